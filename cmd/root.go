// Package cmd wires the CLI commands together.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dexmac221/AgentsTeam/internal/errors"
)

var (
	flagDebug   bool
	flagVerbose bool
	flagModel   string
)

var rootCmd = &cobra.Command{
	Use:   "agentsteam",
	Short: "Build software with local and cloud models",
	Long: `AgentsTeam turns project descriptions into working code. It routes
each task to a local Ollama model or a cloud model based on task
complexity, generates or incrementally builds projects, and repairs
programs that fail to run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code matching the
// failure category.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.UserMessage(err))
		os.Exit(int(errors.ExitCodeFor(err)))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "more console output")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "model to use (provider:model or bare name)")
}
