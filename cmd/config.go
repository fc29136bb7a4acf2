package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dexmac221/AgentsTeam/internal/config"
	"github.com/dexmac221/AgentsTeam/internal/errors"
	"github.com/dexmac221/AgentsTeam/internal/tui"
)

var (
	configSet         []string
	configInteractive bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Without flags, config prints the active configuration after merging
all sources. --set writes individual values to the global file and
--interactive opens a setup wizard.`,
	Example: `  agentsteam config
  agentsteam config --set openai.api_key=sk-...
  agentsteam config --interactive`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringArrayVar(&configSet, "set", nil, "set a value (KEY=VALUE, dotted keys)")
	configCmd.Flags().BoolVarP(&configInteractive, "interactive", "i", false, "interactive setup wizard")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if len(configSet) > 0 {
		for _, arg := range configSet {
			key, value, ok := splitKeyValue(arg)
			if !ok {
				return errors.NewValidationError("set", fmt.Sprintf("%q is not KEY=VALUE", arg))
			}
			if err := config.SetValue(key, value); err != nil {
				return err
			}
			fmt.Printf("set %s\n", key)
		}
		return nil
	}

	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}

	if configInteractive {
		saved, err := tui.RunWizard(cfg)
		if err != nil {
			return err
		}
		if saved {
			path, _ := config.GlobalConfigPath()
			fmt.Printf("saved %s\n", path)
		} else {
			fmt.Println("nothing saved")
		}
		return nil
	}

	shown := *cfg
	if shown.OpenAI.APIKey != "" {
		shown.OpenAI.APIKey = "****"
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return errors.WrapError(err, "failed to render configuration", errors.ExitConfigError)
	}
	fmt.Print(string(data))
	return nil
}
