// Package testing provides shared mock servers and helpers for provider
// client tests.
package testing

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// WriteSSE writes a single Server-Sent Event
func WriteSSE(w http.ResponseWriter, event, data string) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// WriteSSEDone writes the OpenAI stream terminator
func WriteSSEDone(w http.ResponseWriter) {
	fmt.Fprintln(w, "data: [DONE]")
	fmt.Fprintln(w)
}

// SetSSEHeaders marks the response as an event stream
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
}

// SetJSONHeaders marks the response as JSON
func SetJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}

// MockServerOption customizes NewMockServer
type MockServerOption func(*mockServerConfig)

type mockServerConfig struct {
	validateAuth bool
	authHeader   string
	authValue    string
}

// WithAuthValidation asserts that every request carries the given header
func WithAuthValidation(header, value string) MockServerOption {
	return func(cfg *mockServerConfig) {
		cfg.validateAuth = true
		cfg.authHeader = header
		cfg.authValue = value
	}
}

// NewMockServer starts an httptest server around the given handler
func NewMockServer(t *testing.T, handler http.HandlerFunc, opts ...MockServerOption) *httptest.Server {
	t.Helper()
	cfg := &mockServerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.validateAuth {
			if got := r.Header.Get(cfg.authHeader); got != cfg.authValue {
				t.Errorf("Expected %s header %q, got %q", cfg.authHeader, cfg.authValue, got)
			}
		}
		handler(w, r)
	})

	server := httptest.NewServer(wrapped)
	t.Cleanup(server.Close)
	return server
}

// UnauthorizedHandler always answers 401
func UnauthorizedHandler(errorBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(errorBody))
	}
}

// RateLimitHandler always answers 429
func RateLimitHandler(errorBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(errorBody))
	}
}

// InternalErrorHandler always answers 500
func InternalErrorHandler(errorBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(errorBody))
	}
}

// RetryHandler fails with failStatus until failCount requests have been
// served, then delegates to success.
func RetryHandler(failCount int, failStatus int, success http.HandlerFunc) http.HandlerFunc {
	var served int64
	return func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&served, 1) <= int64(failCount) {
			w.WriteHeader(failStatus)
			w.Write([]byte(`{"error":"transient"}`))
			return
		}
		success(w, r)
	}
}

// OllamaChatHandler answers /api/chat with a fixed completion and
// /api/tags with the given model names.
func OllamaChatHandler(content string, models ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetJSONHeaders(w)
		switch {
		case strings.HasSuffix(r.URL.Path, "/api/tags"):
			fmt.Fprint(w, OllamaTagsBody(models...))
		case strings.HasSuffix(r.URL.Path, "/api/chat"):
			fmt.Fprintf(w, `{"model":"test-model","message":{"role":"assistant","content":%q},"done":true,"prompt_eval_count":10,"eval_count":20}`, content)
		default:
			http.NotFound(w, r)
		}
	}
}

// OllamaTagsBody builds an /api/tags response body
func OllamaTagsBody(models ...string) string {
	entries := make([]string, len(models))
	for i, m := range models {
		entries[i] = fmt.Sprintf(`{"name":%q,"size":4000000000}`, m)
	}
	return fmt.Sprintf(`{"models":[%s]}`, strings.Join(entries, ","))
}

// OpenAIChatHandler answers /chat/completions with a fixed completion
func OpenAIChatHandler(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetJSONHeaders(w)
		fmt.Fprintf(w, `{"id":"chatcmpl-1","model":"test-model","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":20,"total_tokens":30}}`, content)
	}
}

// OpenAIStreamChunk builds a single streaming delta payload
func OpenAIStreamChunk(content string, finishReason string) string {
	fr := "null"
	if finishReason != "" {
		fr = fmt.Sprintf("%q", finishReason)
	}
	deltaContent := ""
	if content != "" {
		deltaContent = fmt.Sprintf(`"content":%q`, content)
	}
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion.chunk","model":"test-model","choices":[{"index":0,"delta":{%s},"finish_reason":%s}]}`, deltaContent, fr)
}

// OpenAIStreamHandler answers with an SSE stream of the given fragments
func OpenAIStreamHandler(fragments ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetSSEHeaders(w)
		WriteSSE(w, "", OpenAIStreamChunk("", ""))
		for _, fragment := range fragments {
			WriteSSE(w, "", OpenAIStreamChunk(fragment, ""))
		}
		WriteSSE(w, "", OpenAIStreamChunk("", "stop"))
		WriteSSEDone(w)
	}
}

// OpenAIModelsHandler answers /models with the given model IDs
func OpenAIModelsHandler(ids ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetJSONHeaders(w)
		entries := make([]string, len(ids))
		for i, id := range ids {
			entries[i] = fmt.Sprintf(`{"id":%q,"object":"model"}`, id)
		}
		fmt.Fprintf(w, `{"object":"list","data":[%s]}`, strings.Join(entries, ","))
	}
}
