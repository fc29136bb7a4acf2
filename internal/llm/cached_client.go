package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/dexmac221/AgentsTeam/internal/llmcache"
)

// CachedClient wraps a Client with memory and disk caching.
// Lookups go memory first, then disk (promoting hits to memory),
// then the underlying provider.
type CachedClient struct {
	client      Client
	memoryCache *llmcache.LRUCache
	diskCache   *llmcache.DiskCache
	enabled     bool
	ttl         time.Duration
}

// NewCachedClient creates a new caching decorator
func NewCachedClient(
	client Client,
	memoryCache *llmcache.LRUCache,
	diskCache *llmcache.DiskCache,
	enabled bool,
	ttl time.Duration,
) *CachedClient {
	if ttl == 0 {
		ttl = llmcache.DefaultTTL
	}
	return &CachedClient{
		client:      client,
		memoryCache: memoryCache,
		diskCache:   diskCache,
		enabled:     enabled,
		ttl:         ttl,
	}
}

// Complete implements Client with caching
func (c *CachedClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if !c.enabled || c.memoryCache == nil {
		return c.client.Complete(ctx, req)
	}

	cacheKey, err := llmcache.GenerateCacheKey(req)
	if err != nil {
		// Key generation failed, bypass cache gracefully.
		return c.client.Complete(ctx, req)
	}

	if cached, found := c.memoryCache.Get(cacheKey); found {
		return cached.Response, nil
	}

	if c.diskCache != nil {
		if cached, found := c.diskCache.Get(cacheKey); found {
			c.memoryCache.Put(cacheKey, cached)
			return cached.Response, nil
		}
	}

	resp, err := c.client.Complete(ctx, req)
	if err != nil {
		// Never cache error responses.
		return CompletionResponse{}, err
	}

	entry := llmcache.NewCachedResponse(cacheKey, llmcache.CacheKeyRequestFrom(req), resp, c.ttl)
	c.memoryCache.Put(cacheKey, entry)

	if c.diskCache != nil {
		// Disk write failure only loses persistence, not the response.
		_ = c.diskCache.Put(cacheKey, entry)
	}

	return resp, nil
}

// Provider returns the underlying provider name with a "cached-" prefix
func (c *CachedClient) Provider() string {
	return fmt.Sprintf("cached-%s", c.client.Provider())
}

// Stats returns memory cache statistics
func (c *CachedClient) Stats() llmcache.CacheStats {
	if c.memoryCache == nil {
		return llmcache.CacheStats{}
	}
	return c.memoryCache.Stats()
}

// Unwrap returns the underlying client
func (c *CachedClient) Unwrap() Client {
	return c.client
}
