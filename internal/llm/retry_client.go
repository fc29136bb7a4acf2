package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts       int           // Maximum number of attempts
	Multiplier        int           // Exponential backoff multiplier (seconds)
	MaxWaitPerAttempt time.Duration // Maximum wait time per attempt
	MaxTotalWait      time.Duration // Maximum total wait time
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       5,
		Multiplier:        1,
		MaxWaitPerAttempt: 60 * time.Second,
		MaxTotalWait:      300 * time.Second,
	}
}

// RetryClient wraps http.Client with retry logic. Network errors, 429
// and 5xx responses are retried with exponential backoff; other 4xx
// responses are returned to the caller unchanged.
type RetryClient struct {
	client *http.Client
	config *RetryConfig
}

// NewRetryClient creates a new retry client
func NewRetryClient(config *RetryConfig) *RetryClient {
	if config == nil {
		config = DefaultRetryConfig()
	}

	return &RetryClient{
		client: &http.Client{
			Timeout: 180 * time.Second,
		},
		config: config,
	}
}

// NewRetryClientWithTimeout creates a retry client with a custom timeout
func NewRetryClientWithTimeout(timeout time.Duration, config *RetryConfig) *RetryClient {
	rc := NewRetryClient(config)
	rc.client.Timeout = timeout
	return rc
}

// Do executes an HTTP request with retry logic
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	return rc.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with retry logic and context
func (rc *RetryClient) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	totalStart := time.Now()

	for attempt := 0; attempt < rc.config.MaxAttempts; attempt++ {
		// The request body can only be read once, so clone per attempt.
		reqClone := req.Clone(ctx)
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", bodyErr)
			}
			reqClone.Body = body
		}

		resp, err = rc.client.Do(reqClone)

		if err == nil && resp != nil {
			if resp.StatusCode < 500 && resp.StatusCode != 429 {
				// Success, or a 4xx the caller must handle itself.
				return resp, nil
			}
			resp.Body.Close()
		}

		waitTime := rc.calculateWaitTime(attempt)

		if time.Since(totalStart)+waitTime > rc.config.MaxTotalWait {
			break
		}

		if attempt < rc.config.MaxAttempts-1 {
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", rc.config.MaxAttempts, err)
	}

	if resp != nil {
		return nil, fmt.Errorf("request failed with status %d after %d attempts", resp.StatusCode, rc.config.MaxAttempts)
	}

	return nil, fmt.Errorf("request failed after %d attempts", rc.config.MaxAttempts)
}

// calculateWaitTime computes the exponential backoff for an attempt
func (rc *RetryClient) calculateWaitTime(attempt int) time.Duration {
	baseWait := time.Duration(math.Pow(2, float64(attempt))) * time.Duration(rc.config.Multiplier) * time.Second

	if baseWait > rc.config.MaxWaitPerAttempt {
		baseWait = rc.config.MaxWaitPerAttempt
	}

	return baseWait
}

// SetTimeout updates the client timeout
func (rc *RetryClient) SetTimeout(timeout time.Duration) {
	rc.client.Timeout = timeout
}

// GetTimeout returns the current client timeout
func (rc *RetryClient) GetTimeout() time.Duration {
	return rc.client.Timeout
}
