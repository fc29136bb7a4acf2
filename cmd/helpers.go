package cmd

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/dexmac221/AgentsTeam/internal/analyzer"
	"github.com/dexmac221/AgentsTeam/internal/config"
	"github.com/dexmac221/AgentsTeam/internal/llm"
	"github.com/dexmac221/AgentsTeam/internal/llmtypes"
	"github.com/dexmac221/AgentsTeam/internal/logging"
	"github.com/dexmac221/AgentsTeam/internal/router"
)

// loadConfig loads layered configuration with CLI flag overrides
func loadConfig(projectDir string) (*config.Config, error) {
	overrides := map[string]interface{}{}
	if flagModel != "" {
		overrides["model"] = flagModel
	}
	return config.LoadConfig(projectDir, overrides)
}

// logLevels picks file and console log levels from flags and config
func logLevels(cfg *config.Config, debug, verbose bool) (file, console zapcore.Level) {
	file = logging.LevelFromString(cfg.Logging.FileLevel)
	console = logging.LevelFromString(cfg.Logging.ConsoleLevel)

	if debug {
		return zapcore.DebugLevel, zapcore.DebugLevel
	}
	if verbose && console > zapcore.InfoLevel {
		console = zapcore.InfoLevel
	}
	return file, console
}

// initLogger builds the command logger from configuration and flags
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	fileLevel, consoleLevel := logLevels(cfg, flagDebug, flagVerbose)
	return logging.NewLogger(&logging.Config{
		LogDir:         cfg.Logging.Dir,
		FileLevel:      fileLevel,
		ConsoleLevel:   consoleLevel,
		EnableCaller:   flagDebug,
		ConsoleEnabled: true,
	})
}

// pickModel resolves the model for a task: an explicit configuration or
// flag wins, otherwise the task is routed by its complexity.
func pickModel(ctx context.Context, cfg *config.Config, factory *llm.Factory, complexity analyzer.Complexity) (llmtypes.ModelRef, error) {
	if cfg.Model != "" {
		return router.Parse(cfg.Model), nil
	}
	selector := router.NewSelector(cfg, factory.Ollama())
	return selector.Select(ctx, complexity)
}

// connect resolves the model and creates its provider client
func connect(ctx context.Context, cfg *config.Config, complexity analyzer.Complexity) (llmtypes.ModelRef, llm.Client, *llm.Factory, error) {
	factory := llm.NewFactory(cfg)
	ref, err := pickModel(ctx, cfg, factory, complexity)
	if err != nil {
		return llmtypes.ModelRef{}, nil, nil, err
	}
	client, err := factory.CreateClient(ref.Provider)
	if err != nil {
		return llmtypes.ModelRef{}, nil, nil, err
	}
	return ref, client, factory, nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a directory name from a project description
func slugify(description string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(description), "-")
	slug = strings.Trim(slug, "-")

	parts := strings.Split(slug, "-")
	if len(parts) > 5 {
		parts = parts[:5]
	}
	slug = strings.Join(parts, "-")
	if slug == "" {
		return "project"
	}
	return slug
}

// splitKeyValue parses a KEY=VALUE argument
func splitKeyValue(arg string) (key, value string, ok bool) {
	idx := strings.Index(arg, "=")
	if idx <= 0 {
		return "", "", false
	}
	return arg[:idx], arg[idx+1:], true
}
