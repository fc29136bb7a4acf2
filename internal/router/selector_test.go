package router

import (
	"context"
	"errors"
	"testing"

	"github.com/dexmac221/AgentsTeam/internal/analyzer"
	"github.com/dexmac221/AgentsTeam/internal/config"
)

// fakeOllama implements ModelLister with a static tag list
type fakeOllama struct {
	models  []string
	up      bool
	listErr error
}

func (f *fakeOllama) ListModels(ctx context.Context) ([]string, error) { return f.models, f.listErr }
func (f *fakeOllama) Available(ctx context.Context) bool               { return f.up }

func selectorWith(models []string, up bool, apiKey string) *Selector {
	cfg := &config.Config{}
	cfg.OpenAI.APIKey = apiKey
	cfg.OpenAI.FastModel = "gpt-4.1-nano"
	cfg.OpenAI.BalancedModel = "gpt-4.1-mini"
	cfg.OpenAI.PowerfulModel = "o4-mini"
	return NewSelector(cfg, &fakeOllama{models: models, up: up})
}

func TestSelectPrefersLocalByOrder(t *testing.T) {
	s := selectorWith([]string{"llama3.1:8b", "qwen2.5-coder:7b", "gemma2:2b"}, true, "")

	ref, err := s.Select(context.Background(), analyzer.Complex)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if ref.Provider != "ollama" || ref.Model != "qwen2.5-coder:7b" {
		t.Errorf("Select() = %s, want ollama:qwen2.5-coder:7b", ref)
	}
}

func TestSelectLargeBeforeSmallVariant(t *testing.T) {
	s := selectorWith([]string{"qwen2.5-coder:7b", "qwen2.5-coder:32b"}, true, "")

	ref, _ := s.Select(context.Background(), analyzer.Complex)
	if ref.Model != "qwen2.5-coder:32b" {
		t.Errorf("complex task picked %s, want the 32b variant", ref.Model)
	}
}

func TestSelectCaseInsensitiveSubstring(t *testing.T) {
	s := selectorWith([]string{"GPT-OSS:20B-custom"}, true, "")

	ref, err := s.Select(context.Background(), analyzer.Simple)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if ref.Model != "GPT-OSS:20B-custom" {
		t.Errorf("Select() = %s, matching should be case-insensitive", ref.Model)
	}
}

func TestSelectCloudFallbackByComplexity(t *testing.T) {
	s := selectorWith(nil, false, "sk-test")

	tests := []struct {
		complexity analyzer.Complexity
		wantModel  string
	}{
		{analyzer.Simple, "gpt-4.1-nano"},
		{analyzer.Medium, "gpt-4.1-mini"},
		{analyzer.Complex, "o4-mini"},
	}
	for _, tt := range tests {
		ref, err := s.Select(context.Background(), tt.complexity)
		if err != nil {
			t.Fatalf("Select(%s) error: %v", tt.complexity, err)
		}
		if ref.Provider != "openai" || ref.Model != tt.wantModel {
			t.Errorf("Select(%s) = %s, want openai:%s", tt.complexity, ref, tt.wantModel)
		}
	}
}

func TestSelectUnknownLocalModelFallback(t *testing.T) {
	s := selectorWith([]string{"mystery-model:latest"}, true, "")

	ref, err := s.Select(context.Background(), analyzer.Medium)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if ref.Model != "mystery-model:latest" {
		t.Errorf("Select() = %s, want first available as fallback", ref.Model)
	}
}

func TestSelectNothingAvailable(t *testing.T) {
	s := selectorWith(nil, false, "")

	if _, err := s.Select(context.Background(), analyzer.Simple); err == nil {
		t.Error("Select() should fail with no providers")
	}
}

func TestSelectReportsListFailure(t *testing.T) {
	cfg := &config.Config{}
	listErr := errors.New("tags request timed out")
	s := NewSelector(cfg, &fakeOllama{up: true, listErr: listErr})

	_, err := s.Select(context.Background(), analyzer.Simple)
	if err == nil {
		t.Fatal("Select() should fail when the model list cannot be fetched")
	}
	if !errors.Is(err, listErr) {
		t.Errorf("Select() error = %v, want the list failure as cause", err)
	}
}

func TestSelectIgnoresDownServer(t *testing.T) {
	// Models listed but server marked down: must go to cloud.
	s := selectorWith([]string{"qwen2.5-coder:7b"}, false, "sk-test")

	ref, err := s.Select(context.Background(), analyzer.Simple)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if ref.Provider != "openai" {
		t.Errorf("Select() provider = %s, want openai when Ollama is down", ref.Provider)
	}
}

func TestBest(t *testing.T) {
	s := selectorWith([]string{"gemma2:2b", "codellama:13b"}, true, "")

	ref, err := s.Best(context.Background())
	if err != nil {
		t.Fatalf("Best() error: %v", err)
	}
	if ref.Model != "codellama:13b" {
		t.Errorf("Best() = %s, want codellama:13b", ref.Model)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		arg          string
		wantProvider string
		wantModel    string
	}{
		{"ollama:gemma2:9b", "ollama", "gemma2:9b"},
		{"openai:gpt-4.1-mini", "openai", "gpt-4.1-mini"},
		{"gpt-4.1-nano", "openai", "gpt-4.1-nano"},
		{"o4-mini", "openai", "o4-mini"},
		{"gpt-oss:20b", "ollama", "gpt-oss:20b"},
		{"qwen2.5-coder:7b", "ollama", "qwen2.5-coder:7b"},
		{"llama3.1:8b", "ollama", "llama3.1:8b"},
	}
	for _, tt := range tests {
		ref := Parse(tt.arg)
		if ref.Provider != tt.wantProvider || ref.Model != tt.wantModel {
			t.Errorf("Parse(%q) = %s:%s, want %s:%s", tt.arg, ref.Provider, ref.Model, tt.wantProvider, tt.wantModel)
		}
	}
}
