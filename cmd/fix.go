package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dexmac221/AgentsTeam/internal/analyzer"
	"github.com/dexmac221/AgentsTeam/internal/errors"
	"github.com/dexmac221/AgentsTeam/internal/fixer"
	"github.com/dexmac221/AgentsTeam/internal/logging"
	"github.com/dexmac221/AgentsTeam/internal/prompts"
	"github.com/dexmac221/AgentsTeam/internal/tui"
)

var (
	fixCommand  string
	fixDir      string
	fixAttempts int
)

var fixCmd = &cobra.Command{
	Use:   "fix [FILE...]",
	Short: "Run a program and repair it until it works",
	Long: `Fix repairs broken programs. With --cmd it runs the command, reads
the error output to find the failing file, rewrites it and retries
until the command succeeds or attempts run out. Without --cmd it
syntax-checks and repairs the given files directly. Every modified
file keeps a timestamped backup next to it.`,
	Example: `  agentsteam fix --cmd "python3 main.py"
  agentsteam fix broken.py`,
	RunE: runFix,
}

func init() {
	fixCmd.Flags().StringVar(&fixCommand, "cmd", "", "command that reproduces the failure")
	fixCmd.Flags().StringVarP(&fixDir, "dir", "d", ".", "project directory")
	fixCmd.Flags().IntVar(&fixAttempts, "attempts", 0, "maximum repair attempts (default from config)")
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if fixCommand == "" && len(args) == 0 {
		return errors.NewValidationError("arguments", "give a --cmd to run or files to repair")
	}

	cfg, err := loadConfig(fixDir)
	if err != nil {
		return err
	}
	log, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Repairs go to the strongest reachable model.
	ref, client, factory, err := connect(ctx, cfg, analyzer.Complex)
	if err != nil {
		return err
	}

	pm, err := prompts.NewManager(fixDir)
	if err != nil {
		return err
	}

	progress := tui.NewProgress(os.Stdout)
	progress.Info(fmt.Sprintf("using %s", ref))
	f := fixer.New(client, ref.Model, pm, log)

	attempts := fixAttempts
	if attempts <= 0 {
		attempts = cfg.Fixer.MaxAttempts
	}

	var fixErr error
	if fixCommand != "" {
		fixErr = fixWithCommand(cmd, f, progress, attempts, args)
	} else {
		fixErr = fixFilesDirectly(cmd, f, progress, args)
	}

	if err := factory.FlushCache(); err != nil {
		log.Warn("cache flush failed", logging.Error(err))
	}
	return fixErr
}

func fixWithCommand(cmd *cobra.Command, f *fixer.Fixer, progress *tui.SimpleProgress, attempts int, candidates []string) error {
	progress.Start(fmt.Sprintf("Running %q", fixCommand))

	report, err := f.RunAndFix(cmd.Context(), fixCommand, attempts, fixDir, candidates)
	for _, fix := range report.Fixes {
		progress.Success(fmt.Sprintf("fixed %s (backup %s)", fix.Path, fix.BackupPath))
		if fix.Explanation != "" {
			progress.Info(fix.Explanation)
		}
	}
	if err != nil {
		return err
	}

	progress.Done(fmt.Sprintf("command passing after %d attempt(s)", report.Attempts))
	return nil
}

func fixFilesDirectly(cmd *cobra.Command, f *fixer.Fixer, progress *tui.SimpleProgress, files []string) error {
	for _, file := range files {
		language, ok := fixer.LanguageForFile(file)
		if !ok {
			return errors.NewFixError(fmt.Sprintf("unsupported file type: %s", file), nil)
		}

		errOutput := "the file fails to run; find and correct the defect"
		if validationErr := fixer.ValidateSyntax(cmd.Context(), file, language); validationErr != nil {
			errOutput = validationErr.Error()
		}

		fix, err := f.FixFile(cmd.Context(), file, errOutput)
		if err != nil {
			return err
		}
		progress.Success(fmt.Sprintf("fixed %s (backup %s)", fix.Path, fix.BackupPath))
		if fix.Explanation != "" {
			progress.Info(fix.Explanation)
		}
	}
	return nil
}
