package llm

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	helpers "github.com/dexmac221/AgentsTeam/internal/testing"
)

func fastRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		Multiplier:        0,
		MaxWaitPerAttempt: 10 * time.Millisecond,
		MaxTotalWait:      time.Second,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	var requests int64
	server := helpers.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.WriteHeader(http.StatusOK)
	})

	rc := NewRetryClient(fastRetryConfig())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	resp.Body.Close()

	if n := atomic.LoadInt64(&requests); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestRetryOn500ThenSuccess(t *testing.T) {
	server := helpers.NewMockServer(t, helpers.RetryHandler(2, http.StatusInternalServerError,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rc := NewRetryClient(fastRetryConfig())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("Do() should succeed after retries: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRetryOn429(t *testing.T) {
	server := helpers.NewMockServer(t, helpers.RetryHandler(1, http.StatusTooManyRequests,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rc := NewRetryClient(fastRetryConfig())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("Do() should retry 429: %v", err)
	}
	resp.Body.Close()
}

func TestNoRetryOn404(t *testing.T) {
	var requests int64
	server := helpers.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	rc := NewRetryClient(fastRetryConfig())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 passed through", resp.StatusCode)
	}
	if n := atomic.LoadInt64(&requests); n != 1 {
		t.Errorf("server saw %d requests, 4xx must not be retried", n)
	}
}

func TestRetryExhaustion(t *testing.T) {
	var requests int64
	server := helpers.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	rc := NewRetryClient(fastRetryConfig())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	if _, err := rc.Do(req); err == nil {
		t.Fatal("Do() should fail after exhausting retries")
	}
	if n := atomic.LoadInt64(&requests); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	server := helpers.NewMockServer(t, helpers.InternalErrorHandler("down"))

	rc := NewRetryClient(&RetryConfig{
		MaxAttempts:       5,
		Multiplier:        1,
		MaxWaitPerAttempt: 10 * time.Second,
		MaxTotalWait:      time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

	start := time.Now()
	_, err := rc.DoWithContext(ctx, req)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v, should abort the backoff wait", elapsed)
	}
}

func TestBackoffCalculation(t *testing.T) {
	rc := NewRetryClient(&RetryConfig{
		MaxAttempts:       5,
		Multiplier:        1,
		MaxWaitPerAttempt: 5 * time.Second,
		MaxTotalWait:      time.Minute,
	})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 5 * time.Second}, // capped
		{4, 5 * time.Second}, // capped
	}
	for _, tt := range tests {
		if got := rc.calculateWaitTime(tt.attempt); got != tt.want {
			t.Errorf("calculateWaitTime(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestTimeoutAccessors(t *testing.T) {
	rc := NewRetryClientWithTimeout(42*time.Second, nil)
	if rc.GetTimeout() != 42*time.Second {
		t.Errorf("GetTimeout() = %v", rc.GetTimeout())
	}
	rc.SetTimeout(7 * time.Second)
	if rc.GetTimeout() != 7*time.Second {
		t.Errorf("GetTimeout() after SetTimeout = %v", rc.GetTimeout())
	}
}
