package cmd

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"thoreinstein.com/bb/pkg/bootstrap"
	"thoreinstein.com/bb/pkg/config"
	bberrors "thoreinstein.com/bb/pkg/errors"
)

const maskedSecret = "********"

// configCmd is the parent command for configuration management.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bb configuration",
}

var configSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Prompt for credentials and write the config file",
	Long: `Prompt for a Bitbucket username and app password and save them.

Existing settings other than the credentials are preserved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := bootstrap.ConfigFilePath(cfgFile)
		if err != nil {
			return err
		}
		return runConfigSetup(cmd.OutOrStdout(), appConfig, path, bootstrap.NewTerminalPrompter())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the effective configuration as TOML. Secrets are masked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd.OutOrStdout(), viper.AllSettings())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetupCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigSetup(w io.Writer, cfg *config.Config, path string, p *bootstrap.Prompter) error {
	if cfg == nil {
		return bberrors.NewConfigError("config", "configuration is not loaded")
	}

	_, err := bootstrap.LoadOrInitCredentials(cfg, bootstrap.CredentialsOptions{
		Path:     path,
		Prompter: p,
		Store:    secretStore(cfg),
		Force:    true,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Saved credentials to %s\n", path)
	return nil
}

func runConfigShow(w io.Writer, settings map[string]any) error {
	if bb, ok := settings["bitbucket"].(map[string]any); ok {
		for _, key := range []string{"app_password", "token"} {
			if v, ok := bb[key].(string); ok && v != "" {
				bb[key] = maskedSecret
			}
		}
	}

	out, err := toml.Marshal(settings)
	if err != nil {
		return bberrors.Wrap(err, "failed to encode config")
	}
	_, err = w.Write(out)
	return err
}

