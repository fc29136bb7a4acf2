package cmd

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/dexmac221/AgentsTeam/internal/config"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"a todo list REST API":                   "a-todo-list-rest-api",
		"Snake game!! (in pygame)":               "snake-game-in-pygame",
		"one two three four five six seven":      "one-two-three-four-five",
		"  ":                                     "project",
		"C++ & Rust interop, with FFI examples!": "c-rust-interop-with-ffi",
	}
	for in, want := range tests {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitKeyValue(t *testing.T) {
	key, value, ok := splitKeyValue("openai.api_key=sk-123=456")
	if !ok || key != "openai.api_key" || value != "sk-123=456" {
		t.Errorf("got %q, %q, %v", key, value, ok)
	}

	for _, bad := range []string{"novalue", "=leadingeq", ""} {
		if _, _, ok := splitKeyValue(bad); ok {
			t.Errorf("splitKeyValue(%q) accepted", bad)
		}
	}
}

func TestLogLevels(t *testing.T) {
	cfg := &config.Config{}
	cfg.Logging.FileLevel = "info"
	cfg.Logging.ConsoleLevel = "warn"

	file, console := logLevels(cfg, false, false)
	if file != zapcore.InfoLevel || console != zapcore.WarnLevel {
		t.Errorf("default levels = %v/%v", file, console)
	}

	file, console = logLevels(cfg, true, false)
	if file != zapcore.DebugLevel || console != zapcore.DebugLevel {
		t.Errorf("debug levels = %v/%v", file, console)
	}

	_, console = logLevels(cfg, false, true)
	if console != zapcore.InfoLevel {
		t.Errorf("verbose console = %v", console)
	}
}
