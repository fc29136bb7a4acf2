package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dexmac221/AgentsTeam/internal/analyzer"
	"github.com/dexmac221/AgentsTeam/internal/builder"
	"github.com/dexmac221/AgentsTeam/internal/logging"
	"github.com/dexmac221/AgentsTeam/internal/prompts"
	"github.com/dexmac221/AgentsTeam/internal/tui"
)

var (
	buildDir    string
	buildRunCmd string
	buildExpect string
	buildResume bool
)

var buildCmd = &cobra.Command{
	Use:   "build DESCRIPTION...",
	Short: "Build a project incrementally, step by step",
	Long: `Build grows a project in small steps. Each step asks the model for a
set of file changes, runs the project, and repairs failures before
moving on. Progress is saved so an interrupted build can be resumed
with --resume.`,
	Example: `  agentsteam build a snake game in pygame
  agentsteam build -d ./api --run-cmd "python3 main.py" --expect "listening" a small http api`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildDir, "dir", "d", ".", "project directory")
	buildCmd.Flags().StringVar(&buildRunCmd, "run-cmd", "", "command that runs the project (default inferred)")
	buildCmd.Flags().StringVar(&buildExpect, "expect", "", "substring the run output must contain")
	buildCmd.Flags().BoolVar(&buildResume, "resume", false, "resume the previous session in this directory")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	description := strings.Join(args, " ")

	cfg, err := loadConfig(buildDir)
	if err != nil {
		return err
	}
	log, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	progress := tui.NewProgress(os.Stdout)
	assessment := analyzer.Analyze(description, nil)
	progress.Start(fmt.Sprintf("Building (%s task, up to %d steps)",
		assessment.Complexity, cfg.Builder.MaxSteps))

	ref, client, factory, err := connect(ctx, cfg, assessment.Complexity)
	if err != nil {
		return err
	}
	progress.Info(fmt.Sprintf("using %s", ref))

	pm, err := prompts.NewManager(buildDir)
	if err != nil {
		return err
	}

	b := builder.New(client, ref.Model, cfg, pm, log, progress)
	report, err := b.Run(ctx, builder.Options{
		Description: description,
		Dir:         buildDir,
		RunCommand:  buildRunCmd,
		Expect:      buildExpect,
		Resume:      buildResume,
	})
	if err != nil {
		return err
	}
	if err := factory.FlushCache(); err != nil {
		log.Warn("cache flush failed", logging.Error(err))
	}

	if report.Succeeded {
		progress.Done(fmt.Sprintf("%d of %d steps passing", report.StepsCompleted, report.StepsPlanned))
		return nil
	}

	progress.Failed(fmt.Sprintf("stopped after %d of %d steps", report.StepsCompleted, report.StepsPlanned))
	if report.LastRun.Stderr != "" {
		fmt.Fprintln(os.Stderr, report.LastRun.Stderr)
	}
	return nil
}
