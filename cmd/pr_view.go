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

// prViewCmd displays pull request details.
var prViewCmd = &cobra.Command{
	Use:   "view [id]",
	Short: "View pull request details",
	Long: `View details for a pull request.

If no PR id is provided, finds the open PR for the current branch.

Displays:
  - Title, state and branches
  - Author, reviewers and approvals
  - Build statuses
  - The rendered description

Examples:
  bb pr view         # View PR for current branch
  bb pr view 123     # View PR #123`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int
		if len(args) > 0 {
			var err error
			if id, err = parsePRID(args[0]); err != nil {
				return err
			}
		}

		deps, err := newPRDeps(cmd)
		if err != nil {
			return err
		}

		return runPRView(cmd.Context(), id, deps)
	},
}

func init() {
	prCmd.AddCommand(prViewCmd)
}

func runPRView(ctx context.Context, id int, d *commandDeps) error {
	repo, err := d.Repo.Repo(ctx)
	if err != nil {
		return err
	}

	// If no PR id provided, find PR for current branch
	if id == 0 {
		if verbose {
			fmt.Fprintln(os.Stderr, "No PR id provided, looking for PR for current branch...")
		}
		if id, err = findPRForCurrentBranch(ctx, d, repo); err != nil {
			return err
		}
	}

	pr, err := loading(func() (*bitbucket.PullRequest, error) {
		return d.Client.GetPullRequest(ctx, repo, id)
	})
	if err != nil {
		return err
	}

	build, err := buildColumn(ctx, d.Client, pr)
	if err != nil {
		return err
	}

	return displayPRInfo(d, pr, build)
}

// findPRForCurrentBranch finds the open PR whose source is the current git branch.
func findPRForCurrentBranch(ctx context.Context, d *commandDeps, repo bitbucket.RepoRef) (int, error) {
	branch, err := d.Git.CurrentBranch(ctx)
	if err != nil {
		return 0, err
	}
	if branch == "" {
		return 0, bberrors.New("not on a branch (detached HEAD state)")
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Looking for PR with source branch: %s\n", branch)
	}

	prs, err := d.Client.ListPullRequests(ctx, repo, bitbucket.ListOptions{State: bitbucket.StateOpen})
	if err != nil {
		return 0, err
	}

	for _, pr := range prs {
		if pr.Source.Branch.Name == branch {
			return pr.ID, nil
		}
	}

	return 0, bberrors.Newf("no open PR found for branch '%s'", branch)
}

// displayPRInfo formats and prints PR information.
func displayPRInfo(d *commandDeps, pr *bitbucket.PullRequest, build string) error {
	out := d.Out

	fmt.Fprintf(out, "\n%s\n", ui.Bold(fmt.Sprintf("#%d: %s", pr.ID, pr.Title)))
	fmt.Fprintf(out, "URL: %s\n", pr.Links.HTML.Href)
	fmt.Fprintln(out, strings.Repeat("-", 60))

	fmt.Fprintf(out, "State:     %s\n", ui.TitleState(string(pr.State)))
	fmt.Fprintf(out, "Branches:  %s -> %s\n", pr.Source.Branch.Name, pr.Destination.Branch.Name)
	fmt.Fprintf(out, "Author:    %s\n", pr.Author.Name())
	fmt.Fprintf(out, "Created:   %s, updated %s\n", ui.Since(pr.CreatedOn), ui.Since(pr.UpdatedOn))

	reviewers := make([]string, 0, len(pr.Reviewers))
	for _, u := range pr.Reviewers {
		reviewers = append(reviewers, u.Name())
	}
	if len(reviewers) > 0 {
		fmt.Fprintf(out, "Reviewers: %s\n", strings.Join(reviewers, ", "))
	}

	approvers := pr.Approvers()
	if len(approvers) > 0 {
		names := make([]string, 0, len(approvers))
		for _, u := range approvers {
			names = append(names, ui.Green(u.Name()))
		}
		fmt.Fprintf(out, "Approved:  %s\n", strings.Join(names, ", "))
	}

	if build != "" {
		fmt.Fprintf(out, "Build:     %s\n", build)
	}
	if pr.CommentCount > 0 || pr.TaskCount > 0 {
		fmt.Fprintf(out, "Activity:  %d comment(s), %d task(s)\n", pr.CommentCount, pr.TaskCount)
	}

	if strings.TrimSpace(pr.Description) != "" {
		fmt.Fprintln(out, strings.Repeat("-", 60))
		body, err := ui.Markdown(pr.Description, d.Color, "")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, body)
	}

	fmt.Fprintln(out)
	return nil
}
