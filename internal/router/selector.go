// Package router selects a concrete model for a task based on its
// complexity and which providers are actually reachable.
package router

import (
	"context"
	"strings"

	"github.com/dexmac221/AgentsTeam/internal/analyzer"
	"github.com/dexmac221/AgentsTeam/internal/config"
	"github.com/dexmac221/AgentsTeam/internal/errors"
	"github.com/dexmac221/AgentsTeam/internal/llmtypes"
)

// ModelLister provides the live local model list
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
	Available(ctx context.Context) bool
}

// Preference order for capable local models. Matching is
// case-insensitive substring, first hit wins.
var largeModelPreference = []string{
	"gpt-oss:20b", "gpt-oss",
	"qwen2.5-coder:32b", "qwen2.5-coder:14b", "qwen2.5-coder:7b",
	"codellama:13b", "codellama:7b", "codellama",
	"llama3.1:70b", "llama3.1:8b", "llama3:8b",
	"gemma2:27b", "gemma2:9b", "gemma3n:latest", "gemma2:2b",
}

// Preference order for fast local models used on simple tasks.
var smallModelPreference = []string{
	"gpt-oss:20b", "gpt-oss",
	"qwen2.5-coder:7b", "qwen2.5-coder:1.5b", "qwen2.5-coder",
	"codellama:7b", "codellama",
	"llama3.1:8b", "llama3:8b",
	"gemma2:9b", "gemma3n:latest", "gemma2:2b",
}

// Selector routes tasks to models
type Selector struct {
	cfg    *config.Config
	ollama ModelLister
	// hasCloud reports whether a cloud key is configured.
	hasCloud bool
}

// NewSelector creates a model selector
func NewSelector(cfg *config.Config, ollama ModelLister) *Selector {
	return &Selector{
		cfg:      cfg,
		ollama:   ollama,
		hasCloud: cfg.OpenAI.APIKey != "",
	}
}

// Select picks a model for the given complexity. Local models are
// preferred; cloud tiers are the fallback when Ollama is unreachable
// or has no models.
func (s *Selector) Select(ctx context.Context, complexity analyzer.Complexity) (llmtypes.ModelRef, error) {
	local, localErr := s.localModels(ctx)

	switch complexity {
	case analyzer.Simple:
		if name, ok := matchPreferred(local, smallModelPreference); ok {
			return llmtypes.ModelRef{Provider: "ollama", Model: name}, nil
		}
		if s.hasCloud {
			return llmtypes.ModelRef{Provider: "openai", Model: s.cfg.OpenAI.FastModel}, nil
		}
	case analyzer.Medium:
		if name, ok := matchPreferred(local, largeModelPreference); ok {
			return llmtypes.ModelRef{Provider: "ollama", Model: name}, nil
		}
		if s.hasCloud {
			return llmtypes.ModelRef{Provider: "openai", Model: s.cfg.OpenAI.BalancedModel}, nil
		}
	default:
		if name, ok := matchPreferred(local, largeModelPreference); ok {
			return llmtypes.ModelRef{Provider: "ollama", Model: name}, nil
		}
		if s.hasCloud {
			return llmtypes.ModelRef{Provider: "openai", Model: s.cfg.OpenAI.PowerfulModel}, nil
		}
	}

	// No preference matched but some local model exists.
	if len(local) > 0 {
		return llmtypes.ModelRef{Provider: "ollama", Model: local[0]}, nil
	}

	if localErr != nil {
		return llmtypes.ModelRef{}, errors.WrapError(localErr,
			"no usable model: listing local models failed", errors.ExitProviderError)
	}
	return llmtypes.ModelRef{}, errors.NewNoModelAvailableError()
}

// Best returns the strongest reachable model, used by fix workflows
// where quality matters more than latency.
func (s *Selector) Best(ctx context.Context) (llmtypes.ModelRef, error) {
	return s.Select(ctx, analyzer.Complex)
}

// localModels lists Ollama models, or nothing when the server is down
func (s *Selector) localModels(ctx context.Context) ([]string, error) {
	if s.ollama == nil || !s.ollama.Available(ctx) {
		return nil, nil
	}
	return s.ollama.ListModels(ctx)
}

// matchPreferred returns the first available model matching the
// preference list by case-insensitive substring.
func matchPreferred(available []string, preference []string) (string, bool) {
	if len(available) == 0 {
		return "", false
	}

	lowered := make([]string, len(available))
	for i, name := range available {
		lowered[i] = strings.ToLower(name)
	}

	for _, want := range preference {
		want = strings.ToLower(want)
		for i, name := range lowered {
			if strings.Contains(name, want) {
				return available[i], true
			}
		}
	}
	return "", false
}

// Parse resolves a user-supplied model argument into a ModelRef.
// Accepted forms: "provider:model", or a bare model name whose
// provider is guessed from its name.
func Parse(arg string) llmtypes.ModelRef {
	if idx := strings.Index(arg, ":"); idx > 0 {
		provider := strings.ToLower(arg[:idx])
		if provider == "ollama" || provider == "openai" {
			return llmtypes.ModelRef{Provider: provider, Model: arg[idx+1:]}
		}
	}
	return llmtypes.ModelRef{Provider: guessProvider(arg), Model: arg}
}

// guessProvider infers a provider from a bare model name
func guessProvider(model string) string {
	lower := strings.ToLower(model)
	if strings.HasPrefix(lower, "gpt-") || strings.HasPrefix(lower, "o4-") || strings.Contains(lower, "gpt") {
		// gpt-oss is a local model despite the name.
		if strings.Contains(lower, "gpt-oss") {
			return "ollama"
		}
		return "openai"
	}
	return "ollama"
}
