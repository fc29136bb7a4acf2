package llm

import (
	"fmt"
	"time"

	"github.com/dexmac221/AgentsTeam/internal/config"
	"github.com/dexmac221/AgentsTeam/internal/llmcache"
)

// Factory creates provider clients from configuration
type Factory struct {
	cfg         *config.Config
	memoryCache *llmcache.LRUCache
	diskCache   *llmcache.DiskCache
}

// NewFactory creates a new client factory. Cache instances are created
// lazily on the first client request when caching is enabled.
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg}
}

// CreateClient creates a client for the given provider name, wrapped
// with caching when enabled in configuration.
func (f *Factory) CreateClient(provider string) (Client, error) {
	var base Client
	switch provider {
	case "ollama":
		base = NewOllamaClient(f.cfg.Ollama, nil)
	case "openai":
		base = NewOpenAIClient(f.cfg.OpenAI, nil)
	default:
		return nil, fmt.Errorf("unsupported provider: %s (supported: ollama, openai)", provider)
	}

	if !f.cfg.Cache.Enabled {
		return base, nil
	}

	f.ensureCaches()
	ttl := time.Duration(f.cfg.Cache.TTLHours) * time.Hour
	return NewCachedClient(base, f.memoryCache, f.diskCache, true, ttl), nil
}

// Ollama returns a concrete Ollama client for model listing and probes
func (f *Factory) Ollama() *OllamaClient {
	return NewOllamaClient(f.cfg.Ollama, nil)
}

// OpenAI returns a concrete OpenAI client for key checks and streaming
func (f *Factory) OpenAI() *OpenAIClient {
	return NewOpenAIClient(f.cfg.OpenAI, nil)
}

// FlushCache persists the disk cache, if one is active
func (f *Factory) FlushCache() error {
	if f.diskCache == nil {
		return nil
	}
	return f.diskCache.Save()
}

func (f *Factory) ensureCaches() {
	if f.memoryCache != nil {
		return
	}
	f.memoryCache = llmcache.NewLRUCache(f.cfg.Cache.MaxEntries)
	f.diskCache = llmcache.NewDiskCache(f.cfg.Cache.FilePath, time.Duration(f.cfg.Cache.TTLHours)*time.Hour)
	// A fresh or unreadable cache file is replaced, never fatal.
	_ = f.diskCache.Load()
}
