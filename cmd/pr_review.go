package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"thoreinstein.com/bb/pkg/bitbucket"
	"thoreinstein.com/bb/pkg/ui"
)

// reviewAction performs one review transition and returns the state to print.
type reviewAction func(ctx context.Context, client bitbucket.Client, repo bitbucket.RepoRef, id int) (string, error)

func approveAction(ctx context.Context, client bitbucket.Client, repo bitbucket.RepoRef, id int) (string, error) {
	p, err := client.Approve(ctx, repo, id)
	if err != nil {
		return "", err
	}
	return participantState(p), nil
}

func requestChangesAction(ctx context.Context, client bitbucket.Client, repo bitbucket.RepoRef, id int) (string, error) {
	p, err := client.RequestChanges(ctx, repo, id)
	if err != nil {
		return "", err
	}
	return participantState(p), nil
}

func declineAction(ctx context.Context, client bitbucket.Client, repo bitbucket.RepoRef, id int) (string, error) {
	pr, err := client.Decline(ctx, repo, id)
	if err != nil {
		return "", err
	}
	return string(pr.State), nil
}

func participantState(p *bitbucket.Participant) string {
	if p.State == "" && p.Approved {
		return "approved"
	}
	return p.State
}

func newReviewCmd(use, short, long string, action reviewAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Long:  long,
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

			return runPRReview(cmd.Context(), id, action, deps)
		},
	}
}

var prApproveCmd = newReviewCmd("approve", "Approve a pull request",
	`Approve a pull request as the authenticated user and print the resulting
participant state. Approving twice sends the same request twice.`,
	approveAction)

var prDeclineCmd = newReviewCmd("decline", "Decline a pull request",
	`Decline a pull request and print its resulting state.`,
	declineAction)

var prRequestChangesCmd = newReviewCmd("request-changes", "Request changes on a pull request",
	`Request changes on a pull request as the authenticated user and print the
resulting participant state.`,
	requestChangesAction)

func init() {
	prCmd.AddCommand(prApproveCmd)
	prCmd.AddCommand(prDeclineCmd)
	prCmd.AddCommand(prRequestChangesCmd)
}

func runPRReview(ctx context.Context, id int, action reviewAction, d *commandDeps) error {
	repo, err := d.Repo.Repo(ctx)
	if err != nil {
		return err
	}

	state, err := loading(func() (string, error) {
		return action(ctx, d.Client, repo, id)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(d.Out, ui.TitleState(state))
	return nil
}
