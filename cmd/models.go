package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dexmac221/AgentsTeam/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List reachable models and routing tiers",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	factory := llm.NewFactory(cfg)

	ollama := factory.Ollama()
	if ollama.Available(ctx) {
		models, err := ollama.ListModels(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("ollama (%s):\n", cfg.Ollama.BaseURL)
		if len(models) == 0 {
			fmt.Println("  no models installed")
		}
		for _, model := range models {
			fmt.Printf("  %s\n", model)
		}
	} else {
		fmt.Printf("ollama (%s): unreachable\n", cfg.Ollama.BaseURL)
	}

	fmt.Println()
	if cfg.OpenAI.APIKey == "" {
		fmt.Println("openai: no API key configured (set OPENAI_API_KEY)")
	} else if err := factory.OpenAI().CheckAPIKey(ctx); err != nil {
		fmt.Printf("openai: key check failed: %v\n", err)
	} else {
		fmt.Println("openai: key valid")
	}

	fmt.Println("\nCloud routing tiers:")
	fmt.Printf("  simple   %s\n", cfg.OpenAI.FastModel)
	fmt.Printf("  medium   %s\n", cfg.OpenAI.BalancedModel)
	fmt.Printf("  complex  %s\n", cfg.OpenAI.PowerfulModel)

	if cfg.Model != "" {
		fmt.Printf("\nPinned model: %s\n", cfg.Model)
	}
	return nil
}
