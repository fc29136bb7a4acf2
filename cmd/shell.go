package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dexmac221/AgentsTeam/internal/prompts"
	"github.com/dexmac221/AgentsTeam/internal/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session mixing chat and project commands",
	Long: `Shell starts an interactive session. Plain text chats with the
routed model, ! runs system commands, and slash commands control the
session. Files proposed in chat replies can be written after
confirmation.`,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	log, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	pm, err := prompts.NewManager(".")
	if err != nil {
		return err
	}

	return shell.New(cfg, pm, log, os.Stdin, os.Stdout).Run(cmd.Context())
}
