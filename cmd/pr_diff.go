package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// prDiffCmd prints the diff of a pull request.
var prDiffCmd = &cobra.Command{
	Use:   "diff <id>",
	Short: "Show the diff of a pull request",
	Long: `Print the unified diff of a pull request, highlighted with the
configured display.theme when writing to a terminal.

Examples:
  bb pr diff 42
  bb pr diff 42 | less -R`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePRID(args[0])
		if err != nil {
			return err
		}

		deps, err := newPRDeps(cmd)
		if err != nil {
			return err
		}

		return runPRDiff(cmd.Context(), id, deps)
	},
}

func init() {
	prCmd.AddCommand(prDiffCmd)
}

func runPRDiff(ctx context.Context, id int, d *commandDeps) error {
	repo, err := d.Repo.Repo(ctx)
	if err != nil {
		return err
	}

	diff, err := loading(func() (string, error) {
		return d.Client.Diff(ctx, repo, id)
	})
	if err != nil {
		return err
	}

	return d.Highlighter.Diff(d.Out, diff)
}
