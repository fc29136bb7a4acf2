package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dexmac221/AgentsTeam/internal/config"
	"github.com/dexmac221/AgentsTeam/internal/errors"
)

// OllamaClient implements Client against a local Ollama server
type OllamaClient struct {
	*BaseClient
	baseURL string
}

// ollamaChatRequest is the /api/chat request body
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

// ollamaChatResponse is the non-streaming /api/chat response
type ollamaChatResponse struct {
	Model      string        `json:"model"`
	Message    ollamaMessage `json:"message"`
	Done       bool          `json:"done"`
	PromptEval int           `json:"prompt_eval_count"`
	EvalCount  int           `json:"eval_count"`
	Error      string        `json:"error,omitempty"`
}

// ollamaTagsResponse is the /api/tags response
type ollamaTagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		ModifiedAt time.Time `json:"modified_at"`
		Size       int64     `json:"size"`
	} `json:"models"`
}

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(cfg config.OllamaConfig, retryClient *RetryClient) *OllamaClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if retryClient == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout == 0 {
			timeout = 300 * time.Second
		}
		retryClient = NewRetryClientWithTimeout(timeout, nil)
	}

	return &OllamaClient{
		BaseClient: NewBaseClient(retryClient),
		baseURL:    baseURL,
	}
}

// Provider returns the provider name
func (c *OllamaClient) Provider() string {
	return "ollama"
}

// Complete generates a completion from the local model
func (c *OllamaClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	messages := []ollamaMessage{}
	if sys := effectiveSystemPrompt(req); sys != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: sys})
	}
	for _, msg := range req.Messages {
		messages = append(messages, ollamaMessage{Role: msg.Role, Content: msg.Content})
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.1
	}
	topP := req.TopP
	if topP == 0 {
		topP = 0.9
	}

	body := ollamaChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: temperature,
			TopP:        topP,
			TopK:        40,
		},
	}

	resp, err := c.doHTTPRequest(ctx, http.MethodPost, c.baseURL+"/api/chat", nil, body)
	if err != nil {
		return CompletionResponse{}, errors.NewProviderError("ollama", "chat request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, errors.NewProviderError("ollama", "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return CompletionResponse{}, errors.NewProviderError("ollama",
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(raw), 200)), nil)
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(raw, &chatResp); err != nil {
		return CompletionResponse{}, errors.NewProviderError("ollama", "invalid JSON response", err)
	}
	if chatResp.Error != "" {
		return CompletionResponse{}, errors.NewProviderError("ollama", chatResp.Error, nil)
	}

	return CompletionResponse{
		Content: chatResp.Message.Content,
		Model:   chatResp.Model,
		Usage: TokenUsage{
			InputTokens:  chatResp.PromptEval,
			OutputTokens: chatResp.EvalCount,
			TotalTokens:  chatResp.PromptEval + chatResp.EvalCount,
		},
	}, nil
}

// ListModels returns the names of locally installed models
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.doHTTPRequest(ctx, http.MethodGet, c.baseURL+"/api/tags", nil, nil)
	if err != nil {
		return nil, errors.NewProviderError("ollama", "failed to list models", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderError("ollama",
			fmt.Sprintf("list models returned status %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderError("ollama", "failed to read model list", err)
	}

	var tags ollamaTagsResponse
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, errors.NewProviderError("ollama", "invalid model list", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Available reports whether the Ollama server is reachable
func (c *OllamaClient) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	// Bypass retry: a down server should be detected quickly.
	resp, err := (&http.Client{Timeout: 3 * time.Second}).Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// truncate shortens a string for inclusion in error messages
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
