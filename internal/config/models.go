package config

// OllamaConfig holds settings for the local Ollama server
type OllamaConfig struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// OpenAIConfig holds settings for OpenAI-compatible cloud providers
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// Cloud tier models, selected by task complexity.
	FastModel     string `mapstructure:"fast_model" yaml:"fast_model"`
	BalancedModel string `mapstructure:"balanced_model" yaml:"balanced_model"`
	PowerfulModel string `mapstructure:"powerful_model" yaml:"powerful_model"`
}

// GeneratorConfig holds project generation settings
type GeneratorConfig struct {
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	TopP        float64 `mapstructure:"top_p" yaml:"top_p"`
	Workers     int     `mapstructure:"workers" yaml:"workers"`
}

// FixerConfig holds error correction settings
type FixerConfig struct {
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// BuilderConfig holds incremental build settings
type BuilderConfig struct {
	MaxSteps            int     `mapstructure:"max_steps" yaml:"max_steps"`
	FixAttempts         int     `mapstructure:"fix_attempts" yaml:"fix_attempts"`
	StagnationLimit     int     `mapstructure:"stagnation_limit" yaml:"stagnation_limit"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
}

// CacheConfig holds LLM response cache settings
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	MaxEntries int    `mapstructure:"max_entries" yaml:"max_entries"`
	TTLHours   int    `mapstructure:"ttl_hours" yaml:"ttl_hours"`
	FilePath   string `mapstructure:"file_path" yaml:"file_path"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Dir          string `mapstructure:"dir" yaml:"dir"`
	FileLevel    string `mapstructure:"file_level" yaml:"file_level"`
	ConsoleLevel string `mapstructure:"console_level" yaml:"console_level"`
}

// Config is the root application configuration
type Config struct {
	Model   string          `mapstructure:"model" yaml:"model,omitempty"`
	Ollama  OllamaConfig    `mapstructure:"ollama" yaml:"ollama"`
	OpenAI  OpenAIConfig    `mapstructure:"openai" yaml:"openai"`
	Gen     GeneratorConfig `mapstructure:"generator" yaml:"generator"`
	Fixer   FixerConfig     `mapstructure:"fixer" yaml:"fixer"`
	Builder BuilderConfig   `mapstructure:"builder" yaml:"builder"`
	Cache   CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Logging LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// applyDefaults fills zero values with working defaults
func applyDefaults(cfg *Config) {
	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = "http://localhost:11434"
	}
	if cfg.Ollama.TimeoutSeconds == 0 {
		cfg.Ollama.TimeoutSeconds = 300
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 120
	}
	if cfg.OpenAI.FastModel == "" {
		cfg.OpenAI.FastModel = "gpt-4.1-nano"
	}
	if cfg.OpenAI.BalancedModel == "" {
		cfg.OpenAI.BalancedModel = "gpt-4.1-mini"
	}
	if cfg.OpenAI.PowerfulModel == "" {
		cfg.OpenAI.PowerfulModel = "o4-mini"
	}
	if cfg.Gen.MaxTokens == 0 {
		cfg.Gen.MaxTokens = 4000
	}
	if cfg.Gen.Temperature == 0 {
		cfg.Gen.Temperature = 0.1
	}
	if cfg.Gen.TopP == 0 {
		cfg.Gen.TopP = 0.9
	}
	if cfg.Gen.Workers == 0 {
		cfg.Gen.Workers = 4
	}
	if cfg.Fixer.MaxAttempts == 0 {
		cfg.Fixer.MaxAttempts = 3
	}
	if cfg.Builder.MaxSteps == 0 {
		cfg.Builder.MaxSteps = 10
	}
	if cfg.Builder.FixAttempts == 0 {
		cfg.Builder.FixAttempts = 3
	}
	if cfg.Builder.StagnationLimit == 0 {
		cfg.Builder.StagnationLimit = 2
	}
	if cfg.Builder.SimilarityThreshold == 0 {
		cfg.Builder.SimilarityThreshold = 0.92
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 256
	}
	if cfg.Cache.TTLHours == 0 {
		cfg.Cache.TTLHours = 24
	}
	if cfg.Cache.FilePath == "" {
		cfg.Cache.FilePath = ".agentsteam/llm_cache.json"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = ".agentsteam/logs"
	}
	if cfg.Logging.FileLevel == "" {
		cfg.Logging.FileLevel = "info"
	}
	if cfg.Logging.ConsoleLevel == "" {
		cfg.Logging.ConsoleLevel = "warn"
	}
}

// applyEnvOverrides maps convenience environment variables that do not
// carry the AGENTSTEAM_ prefix
func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if key := getenv("OPENAI_API_KEY"); key != "" && cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = key
	}
	if url := getenv("OLLAMA_BASE_URL"); url != "" && cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = url
	}
}
