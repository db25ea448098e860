package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"thoreinstein.com/bb/pkg/bitbucket"
	"thoreinstein.com/bb/pkg/config"
	"thoreinstein.com/bb/pkg/ui"
)

type PRMergeOptions struct {
	ID           int
	DeleteBranch bool
	Strategy     string
	Message      string
}

var (
	prMergeOptions        PRMergeOptions
	prMergeNoDeleteBranch bool
)

// prMergeCmd merges a pull request.
var prMergeCmd = &cobra.Command{
	Use:   "merge <id>",
	Short: "Merge a pull request",
	Long: `Merge a pull request and print its resulting state.

After a successful merge the destination branch is checked out locally and
the local source branch is force-deleted, unless --no-delete-branch is given
(or bitbucket.delete_branch_on_merge is false). Nothing is touched locally
when the merge fails.

Examples:
  bb pr merge 42                       # Merge and clean up the local branch
  bb pr merge 42 --strategy squash     # Squash merge
  bb pr merge 42 --no-delete-branch    # Keep the local branch`,
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

		opts := prMergeOptions
		opts.ID = id
		switch {
		case prMergeNoDeleteBranch:
			opts.DeleteBranch = false
		case !cmd.Flags().Changed("delete-branch"):
			opts.DeleteBranch = deps.Config.Bitbucket.DeleteBranchOnMerge
		}

		return runPRMerge(cmd.Context(), opts, deps)
	},
}

func init() {
	prCmd.AddCommand(prMergeCmd)

	prMergeCmd.Flags().BoolVar(&prMergeOptions.DeleteBranch, "delete-branch", true, "Checkout the destination and delete the local source branch (default: bitbucket.delete_branch_on_merge)")
	prMergeCmd.Flags().BoolVar(&prMergeNoDeleteBranch, "no-delete-branch", false, "Keep the local source branch")
	prMergeCmd.Flags().StringVar(&prMergeOptions.Strategy, "strategy", "", "Merge strategy: merge_commit, squash, fast_forward (default: bitbucket.merge_strategy)")
	prMergeCmd.Flags().StringVarP(&prMergeOptions.Message, "message", "m", "", "Merge commit message")
	prMergeCmd.MarkFlagsMutuallyExclusive("delete-branch", "no-delete-branch")
}

func runPRMerge(ctx context.Context, opts PRMergeOptions, d *commandDeps) error {
	strategy, err := resolveMergeStrategy(d.Config, opts.Strategy)
	if err != nil {
		return err
	}

	repo, err := d.Repo.Repo(ctx)
	if err != nil {
		return err
	}

	pr, err := loading(func() (*bitbucket.PullRequest, error) {
		return d.Client.Merge(ctx, repo, opts.ID, bitbucket.MergeOptions{Strategy: strategy, Message: opts.Message})
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(d.Out, ui.TitleState(string(pr.State)))

	if !opts.DeleteBranch {
		return nil
	}

	source, destination := pr.Source.Branch.Name, pr.Destination.Branch.Name
	if verbose {
		fmt.Fprintf(os.Stderr, "Checking out %s and deleting %s...\n", destination, source)
	}
	if err := d.Git.Checkout(ctx, destination); err != nil {
		return err
	}
	return d.Git.DeleteBranch(ctx, source)
}

// resolveMergeStrategy returns the validated flag value, falling back to config.
func resolveMergeStrategy(cfg *config.Config, flagValue string) (string, error) {
	strategy := flagValue
	if strategy == "" && cfg != nil {
		strategy = cfg.Bitbucket.MergeStrategy
	}
	if err := config.ValidateMergeStrategy(strategy); err != nil {
		return "", err
	}
	return strategy, nil
}
