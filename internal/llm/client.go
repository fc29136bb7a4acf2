package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dexmac221/AgentsTeam/internal/llmtypes"
)

// Shared request/response types live in llmtypes so cache and router
// packages can use them without importing the clients.
type Message = llmtypes.Message
type CompletionRequest = llmtypes.CompletionRequest
type CompletionResponse = llmtypes.CompletionResponse
type TokenUsage = llmtypes.TokenUsage

// Client is the interface for LLM providers
type Client interface {
	// Complete generates a completion from the model
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// Provider returns the provider name
	Provider() string
}

// StreamHandler receives content deltas during a streaming completion
type StreamHandler func(delta string)

// BaseClient provides common HTTP functionality for all provider clients
type BaseClient struct {
	retryClient *RetryClient
}

// NewBaseClient creates a new base client
func NewBaseClient(retryClient *RetryClient) *BaseClient {
	if retryClient == nil {
		retryClient = NewRetryClient(nil)
	}
	return &BaseClient{
		retryClient: retryClient,
	}
}

// doHTTPRequest executes an HTTP request with a JSON payload.
// The caller is responsible for closing the response body and handling
// status codes.
func (b *BaseClient) doHTTPRequest(
	ctx context.Context,
	method string,
	url string,
	headers map[string]string,
	payload interface{},
) (*http.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	var httpReq *http.Request
	var err error
	if body != nil {
		httpReq, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := b.retryClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// codeOnlySystemPrompt replaces the system prompt when the caller wants
// raw code with no prose or markdown fences in the output.
const codeOnlySystemPrompt = "Output ONLY executable code. No explanations, no markdown fences, no prose before or after the code."

// effectiveSystemPrompt applies the CodeOnly override
func effectiveSystemPrompt(req CompletionRequest) string {
	if req.CodeOnly {
		return codeOnlySystemPrompt
	}
	return req.SystemPrompt
}
