package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("Ollama.BaseURL = %q", cfg.Ollama.BaseURL)
	}
	if cfg.OpenAI.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("OpenAI.BaseURL = %q", cfg.OpenAI.BaseURL)
	}
	if cfg.Ollama.TimeoutSeconds != 300 {
		t.Errorf("Ollama.TimeoutSeconds = %d, want 300", cfg.Ollama.TimeoutSeconds)
	}
	if cfg.OpenAI.TimeoutSeconds != 120 {
		t.Errorf("OpenAI.TimeoutSeconds = %d, want 120", cfg.OpenAI.TimeoutSeconds)
	}
	if cfg.Gen.MaxTokens != 4000 {
		t.Errorf("Gen.MaxTokens = %d, want 4000", cfg.Gen.MaxTokens)
	}
	if cfg.Gen.Temperature != 0.1 {
		t.Errorf("Gen.Temperature = %f, want 0.1", cfg.Gen.Temperature)
	}
	if cfg.Builder.SimilarityThreshold != 0.92 {
		t.Errorf("Builder.SimilarityThreshold = %f, want 0.92", cfg.Builder.SimilarityThreshold)
	}
}

func TestEnvConveniences(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":  "sk-test-123",
		"OLLAMA_BASE_URL": "http://gpu-box:11434",
	}
	getenv := func(key string) string { return env[key] }

	cfg := &Config{}
	applyEnvOverrides(cfg, getenv)

	if cfg.OpenAI.APIKey != "sk-test-123" {
		t.Errorf("APIKey = %q", cfg.OpenAI.APIKey)
	}
	if cfg.Ollama.BaseURL != "http://gpu-box:11434" {
		t.Errorf("Ollama.BaseURL = %q", cfg.Ollama.BaseURL)
	}
}

func TestEnvDoesNotOverrideFileValues(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":  "sk-from-env",
		"OLLAMA_BASE_URL": "http://from-env:11434",
	}
	getenv := func(key string) string { return env[key] }

	cfg := &Config{}
	cfg.OpenAI.APIKey = "sk-from-file"
	cfg.Ollama.BaseURL = "http://from-file:11434"
	applyEnvOverrides(cfg, getenv)

	if cfg.OpenAI.APIKey != "sk-from-file" {
		t.Errorf("APIKey = %q, file value should win", cfg.OpenAI.APIKey)
	}
	if cfg.Ollama.BaseURL != "http://from-file:11434" {
		t.Errorf("Ollama.BaseURL = %q, file value should win", cfg.Ollama.BaseURL)
	}
}

func TestEnvPrefixedVariables(t *testing.T) {
	t.Setenv("AGENTSTEAM_OLLAMA_BASE_URL", "http://from-env:11434")
	t.Setenv("AGENTSTEAM_GENERATOR_MAX_TOKENS", "2048")

	cfg, err := LoadConfig(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Ollama.BaseURL != "http://from-env:11434" {
		t.Errorf("Ollama.BaseURL = %q, want the environment value", cfg.Ollama.BaseURL)
	}
	if cfg.Gen.MaxTokens != 2048 {
		t.Errorf("Gen.MaxTokens = %d, want 2048 coerced from the environment", cfg.Gen.MaxTokens)
	}
}

func TestFileBeatsEnvPrefixedVariable(t *testing.T) {
	t.Setenv("AGENTSTEAM_OLLAMA_BASE_URL", "http://from-env:11434")

	dir := t.TempDir()
	configDir := filepath.Join(dir, ".agentsteam")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := []byte("ollama:\n  base_url: http://from-file:11434\n")
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir, nil)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Ollama.BaseURL != "http://from-file:11434" {
		t.Errorf("Ollama.BaseURL = %q, config file should beat the environment", cfg.Ollama.BaseURL)
	}
}

func TestProjectConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, ".agentsteam")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := []byte("ollama:\n  base_url: http://project:11434\ngenerator:\n  max_tokens: 2048\n")
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir, nil)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Ollama.BaseURL != "http://project:11434" {
		t.Errorf("Ollama.BaseURL = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Gen.MaxTokens != 2048 {
		t.Errorf("Gen.MaxTokens = %d, want 2048", cfg.Gen.MaxTokens)
	}
	// Untouched keys keep their defaults.
	if cfg.Gen.TopP != 0.9 {
		t.Errorf("Gen.TopP = %f, want default 0.9", cfg.Gen.TopP)
	}
}

func TestCLIOverridesBeatProjectConfig(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, ".agentsteam")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := []byte("model: ollama:gemma2\n")
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir, map[string]interface{}{"model": "openai:gpt-4.1-mini"})
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Model != "openai:gpt-4.1-mini" {
		t.Errorf("Model = %q, CLI flag should win", cfg.Model)
	}
}

func TestMalformedProjectConfig(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, ".agentsteam")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("ollama: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(dir, nil); err == nil {
		t.Error("LoadConfig() should fail on malformed YAML")
	}
}
