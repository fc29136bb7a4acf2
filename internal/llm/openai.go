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

// OpenAIClient implements Client for OpenAI-compatible APIs
type OpenAIClient struct {
	*BaseClient
	apiKey  string
	baseURL string
}

// openaiRequest is the /chat/completions request body
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	TopP        float64         `json:"top_p,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openaiResponse is the non-streaming /chat/completions response
type openaiResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []openaiChoice     `json:"choices"`
	Usage   openaiUsage        `json:"usage"`
	Error   *openaiErrorDetail `json:"error,omitempty"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// openaiStreamChunk is a single streaming delta
type openaiStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openaiErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// openaiModelsResponse is the /models response
type openaiModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg config.OpenAIConfig, retryClient *RetryClient) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if retryClient == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout == 0 {
			timeout = 120 * time.Second
		}
		retryClient = NewRetryClientWithTimeout(timeout, nil)
	}

	return &OpenAIClient{
		BaseClient: NewBaseClient(retryClient),
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
	}
}

// Provider returns the provider name
func (c *OpenAIClient) Provider() string {
	return "openai"
}

func (c *OpenAIClient) authHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}
}

func (c *OpenAIClient) buildRequest(req CompletionRequest, stream bool) openaiRequest {
	messages := []openaiMessage{}
	if sys := effectiveSystemPrompt(req); sys != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: sys})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openaiMessage{Role: msg.Role, Content: msg.Content})
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.1
	}
	topP := req.TopP
	if topP == 0 {
		topP = 0.9
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4000
	}

	return openaiRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
		Stream:      stream,
	}
}

// statusError converts a non-200 status into a typed error
func (c *OpenAIClient) statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return errors.NewInvalidAPIKeyError("openai")
	case http.StatusTooManyRequests:
		return errors.NewRateLimitError("openai")
	}

	var errResp openaiResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
		return errors.NewProviderError("openai", errResp.Error.Message, nil)
	}
	return errors.NewProviderError("openai",
		fmt.Sprintf("status %d: %s", status, truncate(string(body), 200)), nil)
}

// Complete generates a completion from the cloud model
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	body := c.buildRequest(req, false)

	resp, err := c.doHTTPRequest(ctx, http.MethodPost, c.baseURL+"/chat/completions", c.authHeaders(), body)
	if err != nil {
		return CompletionResponse{}, errors.NewProviderError("openai", "chat request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, errors.NewProviderError("openai", "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return CompletionResponse{}, c.statusError(resp.StatusCode, raw)
	}

	var oaResp openaiResponse
	if err := json.Unmarshal(raw, &oaResp); err != nil {
		return CompletionResponse{}, errors.NewProviderError("openai", "invalid JSON response", err)
	}
	if len(oaResp.Choices) == 0 {
		return CompletionResponse{}, errors.NewProviderError("openai", "response contained no choices", nil)
	}

	return CompletionResponse{
		Content: oaResp.Choices[0].Message.Content,
		Model:   oaResp.Model,
		Usage: TokenUsage{
			InputTokens:  oaResp.Usage.PromptTokens,
			OutputTokens: oaResp.Usage.CompletionTokens,
			TotalTokens:  oaResp.Usage.TotalTokens,
		},
	}, nil
}

// CompleteStream generates a completion and invokes onDelta for every
// content fragment as it arrives. Returns the accumulated content.
func (c *OpenAIClient) CompleteStream(ctx context.Context, req CompletionRequest, onDelta StreamHandler) (CompletionResponse, error) {
	body := c.buildRequest(req, true)

	resp, err := c.doHTTPRequest(ctx, http.MethodPost, c.baseURL+"/chat/completions", c.authHeaders(), body)
	if err != nil {
		return CompletionResponse{}, errors.NewProviderError("openai", "streaming request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return CompletionResponse{}, c.statusError(resp.StatusCode, raw)
	}

	parser := NewSSEParser(resp.Body)
	var content []byte

	for {
		event, err := parser.NextEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			return CompletionResponse{}, errors.NewProviderError("openai", "stream interrupted", err)
		}

		if IsSSEDone(event.Data) {
			break
		}

		var chunk openaiStreamChunk
		if ParseSSEData(event.Data, &chunk) != nil {
			continue // Skip malformed keep-alive chunks
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				content = append(content, choice.Delta.Content...)
				if onDelta != nil {
					onDelta(choice.Delta.Content)
				}
			}
		}
	}

	return CompletionResponse{
		Content: string(content),
		Model:   req.Model,
	}, nil
}

// CheckAPIKey verifies the configured key against the /models endpoint
func (c *OpenAIClient) CheckAPIKey(ctx context.Context) error {
	if c.apiKey == "" {
		return errors.NewMissingAPIKeyError("openai", "OPENAI_API_KEY")
	}

	resp, err := c.doHTTPRequest(ctx, http.MethodGet, c.baseURL+"/models", c.authHeaders(), nil)
	if err != nil {
		return errors.NewProviderError("openai", "key check failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return c.statusError(resp.StatusCode, raw)
	}
	return nil
}

// ListModels returns the model IDs the key has access to
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.doHTTPRequest(ctx, http.MethodGet, c.baseURL+"/models", c.authHeaders(), nil)
	if err != nil {
		return nil, errors.NewProviderError("openai", "failed to list models", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderError("openai", "failed to read model list", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, raw)
	}

	var models openaiModelsResponse
	if err := json.Unmarshal(raw, &models); err != nil {
		return nil, errors.NewProviderError("openai", "invalid model list", err)
	}

	ids := make([]string, 0, len(models.Data))
	for _, m := range models.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
