package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dexmac221/AgentsTeam/internal/analyzer"
	"github.com/dexmac221/AgentsTeam/internal/generator"
	"github.com/dexmac221/AgentsTeam/internal/logging"
	"github.com/dexmac221/AgentsTeam/internal/prompts"
	"github.com/dexmac221/AgentsTeam/internal/tui"
)

var (
	generateOutput   string
	generateTech     []string
	generateMaxFiles int
)

var generateCmd = &cobra.Command{
	Use:     "generate DESCRIPTION...",
	Aliases: []string{"gen"},
	Short:   "Generate a complete project from a description",
	Example: `  agentsteam generate a todo list REST API with sqlite
  agentsteam generate -t python,fastapi -o ./todo-api a todo list API`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "output directory (default derived from the description)")
	generateCmd.Flags().StringSliceVarP(&generateTech, "tech", "t", nil, "technologies to use")
	generateCmd.Flags().IntVar(&generateMaxFiles, "max-files", generator.DefaultMaxFiles, "upper bound on planned files")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	description := strings.Join(args, " ")

	outputDir := generateOutput
	if outputDir == "" {
		outputDir = slugify(description)
	}

	cfg, err := loadConfig(outputDir)
	if err != nil {
		return err
	}
	log, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	progress := tui.NewProgress(os.Stdout)
	assessment := analyzer.Analyze(description, generateTech)
	progress.Start(fmt.Sprintf("Generating project (%s task, ~%d files)",
		assessment.Complexity, assessment.EstimatedFiles))

	ref, client, factory, err := connect(ctx, cfg, assessment.Complexity)
	if err != nil {
		return err
	}
	progress.Info(fmt.Sprintf("using %s", ref))

	pm, err := prompts.NewManager(outputDir)
	if err != nil {
		return err
	}

	gen := generator.New(client, ref.Model, cfg, pm, log)
	result, err := gen.Generate(ctx, generator.Request{
		Description:  description,
		Technologies: generateTech,
		OutputDir:    outputDir,
		MaxFiles:     generateMaxFiles,
	})
	if err != nil {
		return err
	}
	if err := factory.FlushCache(); err != nil {
		log.Warn("cache flush failed", logging.Error(err))
	}

	for _, file := range result.Files {
		progress.Success(file)
	}
	progress.Done(fmt.Sprintf("%d files in %s", len(result.Files), result.OutputDir))

	if len(result.Instructions) > 0 {
		fmt.Println("\nNext steps:")
		for i, instruction := range result.Instructions {
			fmt.Printf("  %d. %s\n", i+1, instruction)
		}
	}
	return nil
}
