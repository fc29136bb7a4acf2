package llmcache

import (
	"encoding/json"
	"time"

	"github.com/dexmac221/AgentsTeam/internal/llmtypes"
)

// CachedResponse represents a cached LLM response with metadata
type CachedResponse struct {
	Key         string                       `json:"key"`          // Cache key (SHA256 hash)
	Request     CacheKeyRequest              `json:"request"`      // Original request (for validation)
	Response    llmtypes.CompletionResponse  `json:"response"`     // LLM response
	CreatedAt   time.Time                    `json:"created_at"`   // When cached
	ExpiresAt   time.Time                    `json:"expires_at"`   // When entry expires
	SizeBytes   int64                        `json:"size_bytes"`   // Approximate size in memory
	AccessCount int                          `json:"access_count"` // Number of times accessed
}

// CacheKeyRequest represents the fields used for cache key generation.
// Model is part of the key because the router may send the same prompt
// to different models during a session.
type CacheKeyRequest struct {
	Model        string            `json:"model"`
	SystemPrompt string            `json:"system_prompt"`
	Messages     []CacheKeyMessage `json:"messages"`
	Temperature  float64           `json:"temperature"`
	// CodeOnly swaps the effective system prompt, so requests differing
	// only in it must not share an entry.
	CodeOnly bool `json:"code_only,omitempty"`
}

// CacheKeyMessage represents a message in cache key generation
type CacheKeyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewCachedResponse builds a cache entry for a completed request
func NewCachedResponse(key string, req CacheKeyRequest, resp llmtypes.CompletionResponse, ttl time.Duration) *CachedResponse {
	now := time.Now()
	entry := &CachedResponse{
		Key:       key,
		Request:   req,
		Response:  resp,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	entry.SizeBytes = entry.EstimateSize()
	return entry
}

// EstimateSize calculates the approximate size of this entry in bytes
func (cr *CachedResponse) EstimateSize() int64 {
	data, err := json.Marshal(cr)
	if err != nil {
		return 1024
	}
	return int64(len(data))
}

// IsExpired checks if this cache entry has expired
func (cr *CachedResponse) IsExpired() bool {
	return time.Now().After(cr.ExpiresAt)
}

// RecordAccess updates access metadata when this entry is accessed
func (cr *CachedResponse) RecordAccess() {
	cr.AccessCount++
}
