package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dexmac221/AgentsTeam/internal/config"
	apperrors "github.com/dexmac221/AgentsTeam/internal/errors"
	helpers "github.com/dexmac221/AgentsTeam/internal/testing"
)

func openaiClientFor(url, key string) *OpenAIClient {
	return NewOpenAIClient(config.OpenAIConfig{BaseURL: url, APIKey: key}, NewRetryClient(fastRetryConfig()))
}

func TestOpenAIComplete(t *testing.T) {
	var captured openaiRequest
	server := helpers.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		helpers.OpenAIChatHandler("cloud answer")(w, r)
	}, helpers.WithAuthValidation("Authorization", "Bearer sk-test"))

	client := openaiClientFor(server.URL, "sk-test")
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Model:    "gpt-4.1-mini",
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if resp.Content != "cloud answer" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d, want 30", resp.Usage.TotalTokens)
	}
	if captured.MaxTokens != 4000 {
		t.Errorf("MaxTokens = %d, want default 4000", captured.MaxTokens)
	}
	if captured.Temperature != 0.1 {
		t.Errorf("Temperature = %f, want default 0.1", captured.Temperature)
	}
}

func TestOpenAIInvalidKey(t *testing.T) {
	server := helpers.NewMockServer(t, helpers.UnauthorizedHandler(`{"error":{"message":"bad key"}}`))

	client := openaiClientFor(server.URL, "sk-bad")
	_, err := client.Complete(context.Background(), CompletionRequest{Model: "m"})

	var keyErr *apperrors.InvalidAPIKeyError
	if !errors.As(err, &keyErr) {
		t.Errorf("error = %v, want InvalidAPIKeyError", err)
	}
}

func TestOpenAIRateLimit(t *testing.T) {
	// Rate limits are retried first; only persistent 429s surface.
	server := helpers.NewMockServer(t, helpers.RateLimitHandler(`{"error":{"message":"slow down"}}`))

	client := openaiClientFor(server.URL, "sk-test")
	_, err := client.Complete(context.Background(), CompletionRequest{Model: "m"})
	if err == nil {
		t.Fatal("Complete() should fail on persistent 429")
	}
}

func TestOpenAICompleteStream(t *testing.T) {
	server := helpers.NewMockServer(t, helpers.OpenAIStreamHandler("Hello", ", ", "world"))

	client := openaiClientFor(server.URL, "sk-test")

	var deltas []string
	resp, err := client.CompleteStream(context.Background(), CompletionRequest{
		Model:    "gpt-4.1-mini",
		Messages: []Message{{Role: "user", Content: "greet"}},
	}, func(delta string) {
		deltas = append(deltas, delta)
	})
	if err != nil {
		t.Fatalf("CompleteStream() error: %v", err)
	}

	if resp.Content != "Hello, world" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello, world")
	}
	if strings.Join(deltas, "") != "Hello, world" {
		t.Errorf("deltas = %v, should concatenate to full content", deltas)
	}
}

func TestOpenAICheckAPIKey(t *testing.T) {
	server := helpers.NewMockServer(t, helpers.OpenAIModelsHandler("gpt-4.1-mini"))

	client := openaiClientFor(server.URL, "sk-valid")
	if err := client.CheckAPIKey(context.Background()); err != nil {
		t.Errorf("CheckAPIKey() error: %v", err)
	}
}

func TestOpenAICheckAPIKeyMissing(t *testing.T) {
	client := openaiClientFor("http://unused", "")
	err := client.CheckAPIKey(context.Background())

	var missing *apperrors.MissingAPIKeyError
	if !errors.As(err, &missing) {
		t.Errorf("error = %v, want MissingAPIKeyError", err)
	}
}

func TestOpenAIListModels(t *testing.T) {
	server := helpers.NewMockServer(t, helpers.OpenAIModelsHandler("gpt-4.1-nano", "o4-mini"))

	client := openaiClientFor(server.URL, "sk-test")
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error: %v", err)
	}
	if len(models) != 2 || models[0] != "gpt-4.1-nano" || models[1] != "o4-mini" {
		t.Errorf("models = %v", models)
	}
}

func TestOpenAIEmptyChoices(t *testing.T) {
	server := helpers.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		helpers.SetJSONHeaders(w)
		w.Write([]byte(`{"id":"x","model":"m","choices":[]}`))
	})

	client := openaiClientFor(server.URL, "sk-test")
	if _, err := client.Complete(context.Background(), CompletionRequest{Model: "m"}); err == nil {
		t.Error("Complete() should fail when no choices returned")
	}
}
