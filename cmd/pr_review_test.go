package cmd

import (
	"context"
	"testing"

	"thoreinstein.com/bb/pkg/bitbucket"
	bberrors "thoreinstein.com/bb/pkg/errors"
)

func TestRunPRReview(t *testing.T) {
	tests := []struct {
		name     string
		action   reviewAction
		wantCall string
		wantOut  string
	}{
		{name: "approve", action: approveAction, wantCall: "Approve acme/widgets 42", wantOut: "Approved\n"},
		{name: "request changes", action: requestChangesAction, wantCall: "RequestChanges acme/widgets 42", wantOut: "Changes Requested\n"},
		{name: "decline", action: declineAction, wantCall: "Decline acme/widgets 42", wantOut: "Declined\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "acme", "widgets")

			if err := runPRReview(context.Background(), 42, tt.action, env.deps); err != nil {
				t.Fatalf("runPRReview() error = %v", err)
			}

			assertCalls(t, env.log.calls, []string{tt.wantCall})
			if got := env.out.String(); got != tt.wantOut {
				t.Errorf("output = %q, want %q", got, tt.wantOut)
			}
		})
	}
}

func TestRunPRReview_ApproveTwiceSendsSameRequest(t *testing.T) {
	env := newTestEnv(t, "acme", "widgets")

	for i := 0; i < 2; i++ {
		if err := runPRReview(context.Background(), 7, approveAction, env.deps); err != nil {
			t.Fatalf("runPRReview() error = %v", err)
		}
	}

	assertCalls(t, env.log.calls, []string{"Approve acme/widgets 7", "Approve acme/widgets 7"})
}

func TestRunPRReview_Error(t *testing.T) {
	env := newTestEnv(t, "acme", "widgets")
	env.client.declineFunc = func(repo bitbucket.RepoRef, id int) (*bitbucket.PullRequest, error) {
		return nil, bberrors.NewAPIErrorWithStatus("Decline", 404, "Not Found")
	}

	if err := runPRReview(context.Background(), 1, declineAction, env.deps); !bberrors.IsAPIError(err) {
		t.Fatalf("runPRReview() error = %v, want APIError", err)
	}
	if env.out.Len() != 0 {
		t.Errorf("nothing should be printed, got %q", env.out.String())
	}
}

func TestParticipantState(t *testing.T) {
	tests := []struct {
		p    bitbucket.Participant
		want string
	}{
		{bitbucket.Participant{State: "approved", Approved: true}, "approved"},
		{bitbucket.Participant{Approved: true}, "approved"},
		{bitbucket.Participant{State: "changes_requested"}, "changes_requested"},
		{bitbucket.Participant{}, ""},
	}

	for _, tt := range tests {
		if got := participantState(&tt.p); got != tt.want {
			t.Errorf("participantState(%+v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}
