package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"thoreinstein.com/bb/pkg/bitbucket"
	bberrors "thoreinstein.com/bb/pkg/errors"
	"thoreinstein.com/bb/pkg/ui"
)

type CreateOptions struct {
	Title     string
	Body      string
	SrcBranch string
	DstBranch string
	Reviewers []string
	Close     bool // Close the source branch after merge
}

var (
	prCreateOptions CreateOptions
	prCreateNoClose bool
)

// prCreateCmd pushes the source branch and opens a pull request.
var prCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a pull request",
	Long: `Push the source branch and create a pull request from it.

If no title is provided, the last commit message is used. The source branch
defaults to the current branch and the destination to the repository's main
branch. A push failure aborts before anything is sent to Bitbucket.

Examples:
  bb pr create                             # Current branch, last commit message as title
  bb pr create --dst-branch develop        # Target develop
  bb pr create --title "Add X" --body "Details"  # Explicit title and description
  bb pr create --reviewers alice,bob       # Request reviewers
  bb pr create --no-close                  # Keep the source branch after merge`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := newPRDeps(cmd)
		if err != nil {
			return err
		}

		opts := prCreateOptions
		switch {
		case prCreateNoClose:
			opts.Close = false
		case !cmd.Flags().Changed("close"):
			opts.Close = deps.Config.Bitbucket.CloseSourceBranch
		}
		if len(opts.Reviewers) == 0 {
			opts.Reviewers = deps.Config.Bitbucket.DefaultReviewers
		}

		return runPRCreate(cmd.Context(), opts, deps)
	},
}

func init() {
	prCmd.AddCommand(prCreateCmd)

	prCreateCmd.Flags().StringVarP(&prCreateOptions.Title, "title", "t", "", "PR title (default: last commit message)")
	prCreateCmd.Flags().StringVarP(&prCreateOptions.Body, "body", "b", "", "PR description (markdown)")
	prCreateCmd.Flags().StringVar(&prCreateOptions.SrcBranch, "src-branch", "", "Source branch (default: current branch)")
	prCreateCmd.Flags().StringVarP(&prCreateOptions.DstBranch, "dst-branch", "d", "", "Destination branch (default: repository main branch)")
	prCreateCmd.Flags().StringSliceVarP(&prCreateOptions.Reviewers, "reviewers", "r", nil, "Reviewer usernames or {uuid}s (default: bitbucket.default_reviewers)")
	prCreateCmd.Flags().BoolVar(&prCreateOptions.Close, "close", true, "Close the source branch after merge (default: bitbucket.close_source_branch)")
	prCreateCmd.Flags().BoolVar(&prCreateNoClose, "no-close", false, "Keep the source branch after merge")
	prCreateCmd.MarkFlagsMutuallyExclusive("close", "no-close")
}

func runPRCreate(ctx context.Context, opts CreateOptions, d *commandDeps) error {
	repo, err := d.Repo.Repo(ctx)
	if err != nil {
		return err
	}

	source := opts.SrcBranch
	if source == "" {
		if source, err = d.Git.CurrentBranch(ctx); err != nil {
			return err
		}
		if source == "" {
			return bberrors.New("no current branch (detached HEAD?); pass --src-branch")
		}
	}

	title := opts.Title
	if title == "" {
		if verbose {
			fmt.Fprintln(os.Stderr, "No title provided, using last commit message...")
		}
		message, err := d.Git.LastCommitMessage(ctx)
		if err != nil {
			return err
		}
		title = firstLine(message)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Pushing %s...\n", source)
	}
	if err := d.Git.Push(ctx, source); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Creating PR %q in %s\n", title, repo)
		if len(opts.Reviewers) > 0 {
			fmt.Fprintf(os.Stderr, "  Reviewers: %s\n", strings.Join(opts.Reviewers, ", "))
		}
	}

	pr, err := loading(func() (*bitbucket.PullRequest, error) {
		return d.Client.CreatePullRequest(ctx, repo, bitbucket.CreatePullRequestOptions{
			Title:             title,
			Description:       opts.Body,
			SourceBranch:      source,
			DestinationBranch: opts.DstBranch,
			Reviewers:         opts.Reviewers,
			CloseSourceBranch: opts.Close,
		})
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(d.Out, ui.Table(prListHeaders, [][]string{prRow(pr)}))
	fmt.Fprintln(d.Out, pr.Links.HTML.Href)
	return nil
}
