package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"thoreinstein.com/bb/pkg/bitbucket"
	"thoreinstein.com/bb/pkg/ui"
)

var repoListLimit int

var repoListHeaders = []string{"Name", "Project", "Slug", "Owner"}

// repoListCmd lists repositories in a workspace.
var repoListCmd = &cobra.Command{
	Use:   "list [workspace]",
	Short: "List repositories in a workspace",
	Long: `List repositories in a workspace.

The workspace is taken from the argument, then --workspace, then the
current git remote.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace := repoWorkspace
		if len(args) > 0 {
			workspace = args[0]
		}

		deps, err := newCommandDeps(cmd, workspace, "")
		if err != nil {
			return err
		}

		return runRepoList(cmd.Context(), repoListLimit, deps)
	},
}

func init() {
	repoCmd.AddCommand(repoListCmd)

	repoListCmd.Flags().IntVar(&repoListLimit, "limit", 0, "Number of repositories to request (default: API page size)")
}

func runRepoList(ctx context.Context, limit int, d *commandDeps) error {
	workspace, err := d.Repo.Workspace(ctx)
	if err != nil {
		return err
	}

	repos, err := loading(func() ([]bitbucket.Repository, error) {
		return d.Client.ListRepositories(ctx, workspace, bitbucket.ListOptions{Limit: limit})
	})
	if err != nil {
		return err
	}

	if len(repos) == 0 {
		fmt.Fprintf(d.Out, "No repositories found in %s.\n", workspace)
		return nil
	}

	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, []string{r.Name, r.Project.Name, r.Slug, r.Owner.Name()})
	}
	fmt.Fprintln(d.Out, ui.Table(repoListHeaders, rows))
	return nil
}
