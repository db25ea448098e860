package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"thoreinstein.com/bb/pkg/bitbucket"
)

// prCheckoutCmd checks out the source branch of a pull request.
var prCheckoutCmd = &cobra.Command{
	Use:   "checkout <id>",
	Short: "Check out a pull request locally",
	Long: `Create a local branch named after the pull request's source branch and
pull it from the configured remote (git.remote, default origin).`,
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

		return runPRCheckout(cmd.Context(), id, deps)
	},
}

func init() {
	prCmd.AddCommand(prCheckoutCmd)
}

func runPRCheckout(ctx context.Context, id int, d *commandDeps) error {
	repo, err := d.Repo.Repo(ctx)
	if err != nil {
		return err
	}

	pr, err := loading(func() (*bitbucket.PullRequest, error) {
		return d.Client.GetPullRequest(ctx, repo, id)
	})
	if err != nil {
		return err
	}

	branch := pr.Source.Branch.Name
	if verbose {
		fmt.Fprintf(os.Stderr, "Checking out %s for PR #%d...\n", branch, pr.ID)
	}

	if err := d.Git.CheckoutNewBranch(ctx, branch); err != nil {
		return err
	}
	return d.Git.Pull(ctx, branch)
}
