package cmd

import (
	"context"
	"testing"

	"thoreinstein.com/bb/pkg/bitbucket"
)

func TestRunPRDiff(t *testing.T) {
	const diff = "diff --git a/x.go b/x.go\n--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n-old\n+new\n"

	env := newTestEnv(t, "acme", "widgets")
	env.client.diffFunc = func(repo bitbucket.RepoRef, id int) (string, error) {
		return diff, nil
	}

	if err := runPRDiff(context.Background(), 42, env.deps); err != nil {
		t.Fatalf("runPRDiff() error = %v", err)
	}

	assertCalls(t, env.log.calls, []string{"Diff acme/widgets 42"})
	if got := env.out.String(); got != diff {
		t.Errorf("output = %q, want the diff verbatim", got)
	}
}

func TestRunPRDiff_ResolvesRepoFromGit(t *testing.T) {
	env := newTestEnv(t, "", "")

	if err := runPRDiff(context.Background(), 1, env.deps); err != nil {
		t.Fatalf("runPRDiff() error = %v", err)
	}
	assertCalls(t, env.log.calls, []string{"git remote", "Diff acme/widgets 1"})
}
