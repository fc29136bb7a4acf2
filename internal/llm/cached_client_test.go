package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dexmac221/AgentsTeam/internal/llmcache"
)

// countingClient records how many completions reached the provider
type countingClient struct {
	calls    int
	response CompletionResponse
	err      error
}

func (c *countingClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	c.calls++
	if c.err != nil {
		return CompletionResponse{}, c.err
	}
	return c.response, nil
}

func (c *countingClient) Provider() string { return "counting" }

func testRequest(content string) CompletionRequest {
	return CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: "user", Content: content}},
	}
}

func TestCachedClientMemoryHit(t *testing.T) {
	inner := &countingClient{response: CompletionResponse{Content: "answer"}}
	client := NewCachedClient(inner, llmcache.NewLRUCache(10), nil, true, time.Hour)

	for i := 0; i < 3; i++ {
		resp, err := client.Complete(context.Background(), testRequest("same prompt"))
		if err != nil {
			t.Fatalf("Complete() error: %v", err)
		}
		if resp.Content != "answer" {
			t.Errorf("Content = %q", resp.Content)
		}
	}

	if inner.calls != 1 {
		t.Errorf("provider saw %d calls, want 1", inner.calls)
	}
}

func TestCachedClientDistinctRequests(t *testing.T) {
	inner := &countingClient{response: CompletionResponse{Content: "x"}}
	client := NewCachedClient(inner, llmcache.NewLRUCache(10), nil, true, time.Hour)

	client.Complete(context.Background(), testRequest("prompt one"))
	client.Complete(context.Background(), testRequest("prompt two"))

	if inner.calls != 2 {
		t.Errorf("provider saw %d calls, want 2 for distinct prompts", inner.calls)
	}
}

func TestCachedClientDiskPromotion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	disk := llmcache.NewDiskCache(path, time.Hour)
	disk.Load()

	inner := &countingClient{response: CompletionResponse{Content: "persisted"}}
	warm := NewCachedClient(inner, llmcache.NewLRUCache(10), disk, true, time.Hour)
	warm.Complete(context.Background(), testRequest("the prompt"))
	disk.Save()

	// Fresh memory cache forces a disk lookup.
	disk2 := llmcache.NewDiskCache(path, time.Hour)
	disk2.Load()
	inner2 := &countingClient{response: CompletionResponse{Content: "should not be called"}}
	cold := NewCachedClient(inner2, llmcache.NewLRUCache(10), disk2, true, time.Hour)

	resp, err := cold.Complete(context.Background(), testRequest("the prompt"))
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if resp.Content != "persisted" {
		t.Errorf("Content = %q, want disk hit", resp.Content)
	}
	if inner2.calls != 0 {
		t.Errorf("provider saw %d calls, want 0", inner2.calls)
	}
}

func TestCachedClientDisabled(t *testing.T) {
	inner := &countingClient{response: CompletionResponse{Content: "x"}}
	client := NewCachedClient(inner, llmcache.NewLRUCache(10), nil, false, time.Hour)

	client.Complete(context.Background(), testRequest("p"))
	client.Complete(context.Background(), testRequest("p"))

	if inner.calls != 2 {
		t.Errorf("provider saw %d calls, disabled cache must pass through", inner.calls)
	}
}

func TestCachedClientDoesNotCacheErrors(t *testing.T) {
	inner := &countingClient{err: errors.New("provider down")}
	client := NewCachedClient(inner, llmcache.NewLRUCache(10), nil, true, time.Hour)

	client.Complete(context.Background(), testRequest("p"))
	client.Complete(context.Background(), testRequest("p"))

	if inner.calls != 2 {
		t.Errorf("provider saw %d calls, errors must not be cached", inner.calls)
	}
}

func TestCachedClientProviderName(t *testing.T) {
	client := NewCachedClient(&countingClient{}, llmcache.NewLRUCache(1), nil, true, time.Hour)
	if got := client.Provider(); got != "cached-counting" {
		t.Errorf("Provider() = %q", got)
	}
}
