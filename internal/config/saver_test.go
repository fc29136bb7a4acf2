package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func readYAML(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	out := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", path, err)
	}
	return out
}

func TestSetValueCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := setValueInFile(path, "openai.api_key", "sk-abc"); err != nil {
		t.Fatalf("setValueInFile() error: %v", err)
	}

	settings := readYAML(t, path)
	openai, ok := settings["openai"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing openai section: %v", settings)
	}
	if openai["api_key"] != "sk-abc" {
		t.Errorf("api_key = %v", openai["api_key"])
	}
}

func TestSetValuePreservesExistingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	existing := []byte("ollama:\n  base_url: http://gpu:11434\nmodel: ollama:gemma2\n")
	if err := os.WriteFile(path, existing, 0644); err != nil {
		t.Fatal(err)
	}

	if err := setValueInFile(path, "ollama.timeout_seconds", "600"); err != nil {
		t.Fatalf("setValueInFile() error: %v", err)
	}

	settings := readYAML(t, path)
	if settings["model"] != "ollama:gemma2" {
		t.Errorf("model = %v, should be preserved", settings["model"])
	}
	ollama := settings["ollama"].(map[string]interface{})
	if ollama["base_url"] != "http://gpu:11434" {
		t.Errorf("base_url = %v, should be preserved", ollama["base_url"])
	}
	if ollama["timeout_seconds"] != "600" {
		t.Errorf("timeout_seconds = %v", ollama["timeout_seconds"])
	}
}

func TestSetValueRejectsEmptyKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := setValueInFile(path, "", "value"); err == nil {
		t.Error("empty key should be rejected")
	}
}

func TestSetValueRejectsScalarAsSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model: ollama:gemma2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := setValueInFile(path, "model.nested", "x"); err == nil {
		t.Error("writing below a scalar key should be rejected")
	}
}
