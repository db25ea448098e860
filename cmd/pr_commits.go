package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"thoreinstein.com/bb/pkg/bitbucket"
	"thoreinstein.com/bb/pkg/ui"
)

// prCommitsCmd prints the commits of a pull request.
var prCommitsCmd = &cobra.Command{
	Use:   "commits <id>",
	Short: "Show the commits of a pull request",
	Long:  `Print the commits of a pull request in git log style.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePRID(args[0])
		if err != nil {
			return err
		}

		deps, err := newPRDeps(cmd)
		if err != nil {
			return err
		}

		return runPRCommits(cmd.Context(), id, deps)
	},
}

func init() {
	prCmd.AddCommand(prCommitsCmd)
}

func runPRCommits(ctx context.Context, id int, d *commandDeps) error {
	repo, err := d.Repo.Repo(ctx)
	if err != nil {
		return err
	}

	commits, err := loading(func() ([]bitbucket.Commit, error) {
		return d.Client.ListCommits(ctx, repo, id)
	})
	if err != nil {
		return err
	}

	if len(commits) == 0 {
		fmt.Fprintln(d.Out, "No commits.")
		return nil
	}

	for _, c := range commits {
		fmt.Fprintf(d.Out, "%s %s\n", ui.Bold("commit"), c.Hash)
		fmt.Fprintf(d.Out, "Author: %s\n", c.Author.Name())
		fmt.Fprintf(d.Out, "Date:   %s (%s)\n", c.Date.Local().Format(time.RFC1123), ui.Since(c.Date))
		fmt.Fprintln(d.Out)
		fmt.Fprintln(d.Out, ui.Indent(strings.TrimRight(c.Message, "\n"), bodyIndent))
		fmt.Fprintln(d.Out)
	}
	return nil
}
