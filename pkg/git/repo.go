package git

import (
	"context"
	"strings"
)

// DefaultRemote is the remote used when none is configured.
const DefaultRemote = "origin"

// Repo runs git commands against one working tree.
type Repo struct {
	Dir    string // Working directory; empty means the process cwd
	Remote string // Remote used for get-url, push and pull
	runner CommandRunner
}

// NewRepo creates a Repo that runs the real git binary.
func NewRepo(dir, remote string, verbose bool) *Repo {
	return NewRepoWithRunner(dir, remote, &RealCommandRunner{Verbose: verbose})
}

// NewRepoWithRunner creates a Repo with a custom CommandRunner (for testing)
func NewRepoWithRunner(dir, remote string, runner CommandRunner) *Repo {
	if remote == "" {
		remote = DefaultRemote
	}
	return &Repo{Dir: dir, Remote: remote, runner: runner}
}

// RemoteURL returns the URL of the configured remote.
func (r *Repo) RemoteURL(ctx context.Context) (string, error) {
	return r.output(ctx, "remote", "get-url", r.Remote)
}

// CurrentBranch returns the checked out branch name.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	return r.output(ctx, "branch", "--show-current")
}

// LastCommitMessage returns the full message of HEAD.
func (r *Repo) LastCommitMessage(ctx context.Context) (string, error) {
	return r.output(ctx, "log", "-1", "--pretty=%B")
}

// CheckoutNewBranch creates name and switches to it.
func (r *Repo) CheckoutNewBranch(ctx context.Context, name string) error {
	return r.run(ctx, "checkout", "-b", name)
}

// Checkout switches to an existing branch.
func (r *Repo) Checkout(ctx context.Context, name string) error {
	return r.run(ctx, "checkout", name)
}

// Pull pulls name from the configured remote.
func (r *Repo) Pull(ctx context.Context, name string) error {
	return r.run(ctx, "pull", r.Remote, name)
}

// Push pushes name to the configured remote.
func (r *Repo) Push(ctx context.Context, name string) error {
	return r.run(ctx, "push", r.Remote, name)
}

// DeleteBranch force-deletes a local branch.
func (r *Repo) DeleteBranch(ctx context.Context, name string) error {
	return r.run(ctx, "branch", "-D", name)
}

func (r *Repo) run(ctx context.Context, args ...string) error {
	return r.runner.Run(ctx, r.Dir, "git", args...)
}

func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	out, err := r.runner.Output(ctx, r.Dir, "git", args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
