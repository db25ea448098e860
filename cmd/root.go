package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"thoreinstein.com/bb/pkg/bootstrap"
	"thoreinstein.com/bb/pkg/config"
	bberrors "thoreinstein.com/bb/pkg/errors"
	"thoreinstein.com/bb/pkg/ui"
)

var cfgFile string
var verbose bool
var appConfig *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bb",
	Short: "bb - Bitbucket pull requests from the command line",
	Long: `bb is a command-line client for Bitbucket Cloud.

It lists, creates, merges, approves and declines pull requests, shows their
diffs, comments and commits, and lists repositories in a workspace. The
workspace and repository default to the ones the current git remote points at.

Credentials are read from $HOME/.config/bb/config.toml (or BB_* environment
variables); the first command that needs them prompts for a username and
app password when no config file exists yet.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose)
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		renderError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "C", "", "config file (default is $HOME/.config/bb/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	cfg, err := bootstrap.InitConfig(cfgFile, verbose)
	if err != nil {
		return err
	}
	appConfig = cfg
	ui.SetColor(ui.ColorEnabled(cfg.Display.Color, os.Stdout))
	return nil
}

// setupLogging routes debug logs to stderr when verbose is set.
func setupLogging(verbose bool) {
	if !verbose {
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// resetConfig clears the cached configuration.
// This is primarily used in tests to ensure each test starts with a fresh config.
func resetConfig() {
	appConfig = nil
	viper.Reset()
}

// renderError prints err the way the user should see it: API error payloads
// as highlighted JSON, git failures with their command line and stderr, and
// everything else with actionable guidance.
func renderError(w io.Writer, err error) {
	var apiErr *bberrors.APIError
	if bberrors.As(err, &apiErr) && apiErr.HasPayload() {
		if hlErr := newHighlighter(appConfig, w).JSON(w, apiErr.Payload); hlErr == nil {
			return
		}
	}

	var gitErr *bberrors.GitError
	if bberrors.As(err, &gitErr) {
		fmt.Fprintf(w, "%s exited with %d code\n", gitErr.Command(), gitErr.ExitCode)
		if gitErr.Stderr != "" {
			fmt.Fprintln(w, gitErr.Stderr)
		}
		return
	}

	fmt.Fprintln(w, bberrors.FormatUserError(err))
}

// newHighlighter builds a highlighter from the display settings. Colour is
// enabled only when w is a terminal (or forced by display.color).
func newHighlighter(cfg *config.Config, w io.Writer) ui.Highlighter {
	if cfg == nil {
		return ui.Highlighter{Theme: "emacs", Background: ui.DefaultBackground}
	}
	f, _ := w.(*os.File)
	return ui.Highlighter{
		Theme:      cfg.Display.Theme,
		Background: cfg.Display.Background,
		Color:      ui.ColorEnabled(cfg.Display.Color, f),
	}
}
