package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dexmac221/AgentsTeam/internal/errors"
)

// GlobalConfigName is the per-user configuration file in the home directory
const GlobalConfigName = ".agentsteam.yaml"

// ProjectConfigPath is the per-project configuration file
const ProjectConfigPath = ".agentsteam/config.yaml"

// Loader handles loading configuration from multiple sources
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	return &Loader{v: v}
}

// envKeys enumerates every configuration key settable through an
// AGENTSTEAM_* environment variable; ollama.base_url maps to
// AGENTSTEAM_OLLAMA_BASE_URL.
var envKeys = []string{
	"model",
	"ollama.base_url",
	"ollama.timeout_seconds",
	"openai.api_key",
	"openai.base_url",
	"openai.timeout_seconds",
	"openai.fast_model",
	"openai.balanced_model",
	"openai.powerful_model",
	"generator.max_tokens",
	"generator.temperature",
	"generator.top_p",
	"generator.workers",
	"fixer.max_attempts",
	"builder.max_steps",
	"builder.fix_attempts",
	"builder.stagnation_limit",
	"builder.similarity_threshold",
	"cache.enabled",
	"cache.max_entries",
	"cache.ttl_hours",
	"cache.file_path",
	"logging.dir",
	"logging.file_level",
	"logging.console_level",
}

// applyEnvLayer installs AGENTSTEAM_* values as viper defaults, the
// layer below config files and CLI overrides. The string values are
// coerced by the weakly typed decode.
func (l *Loader) applyEnvLayer(getenv func(string) string) {
	for _, key := range envKeys {
		name := "AGENTSTEAM_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if value := getenv(name); value != "" {
			l.v.SetDefault(key, value)
		}
	}
}

// Load merges all configuration sources and decodes them.
// Precedence: CLI overrides > project .agentsteam/config.yaml >
// ~/.agentsteam.yaml > environment > defaults.
func (l *Loader) Load(projectDir string, cliOverrides map[string]interface{}) (*Config, error) {
	l.applyEnvLayer(os.Getenv)
	if err := l.loadGlobalConfig(); err != nil {
		return nil, err
	}
	if err := l.loadProjectConfig(projectDir); err != nil {
		return nil, err
	}
	for key, value := range cliOverrides {
		if value != nil {
			l.v.Set(key, value)
		}
	}

	cfg := &Config{}
	decoderConfig := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
		TagName:          "mapstructure",
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(l.v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyEnvOverrides(cfg, os.Getenv)
	applyDefaults(cfg)

	return cfg, nil
}

// loadGlobalConfig loads configuration from ~/.agentsteam.yaml
func (l *Loader) loadGlobalConfig() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil // No home directory, skip
	}

	globalConfig := filepath.Join(homeDir, GlobalConfigName)
	if _, err := os.Stat(globalConfig); err != nil {
		return nil // File doesn't exist, skip
	}

	l.v.SetConfigFile(globalConfig)
	if err := l.v.ReadInConfig(); err != nil {
		return errors.NewConfigFileError(globalConfig, err)
	}

	return nil
}

// loadProjectConfig loads configuration from .agentsteam/config.yaml
func (l *Loader) loadProjectConfig(projectDir string) error {
	if projectDir == "" {
		projectDir = "."
	}

	configPath := filepath.Join(projectDir, ProjectConfigPath)
	if _, err := os.Stat(configPath); err != nil {
		return nil // File doesn't exist, skip
	}

	l.v.SetConfigFile(configPath)
	if err := l.v.MergeInConfig(); err != nil {
		return errors.NewConfigFileError(configPath, err)
	}

	return nil
}

// LoadConfig is the convenience entry point used by commands
func LoadConfig(projectDir string, cliOverrides map[string]interface{}) (*Config, error) {
	return NewLoader().Load(projectDir, cliOverrides)
}
