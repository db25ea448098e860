package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"thoreinstein.com/bb/pkg/bitbucket"
	"thoreinstein.com/bb/pkg/bootstrap"
	"thoreinstein.com/bb/pkg/config"
	bberrors "thoreinstein.com/bb/pkg/errors"
	"thoreinstein.com/bb/pkg/git"
	"thoreinstein.com/bb/pkg/ui"
)

// gitRepo is the subset of git.Repo the commands use.
type gitRepo interface {
	RemoteURL(ctx context.Context) (string, error)
	CurrentBranch(ctx context.Context) (string, error)
	LastCommitMessage(ctx context.Context) (string, error)
	CheckoutNewBranch(ctx context.Context, name string) error
	Checkout(ctx context.Context, name string) error
	Pull(ctx context.Context, name string) error
	Push(ctx context.Context, name string) error
	DeleteBranch(ctx context.Context, name string) error
}

var _ gitRepo = (*git.Repo)(nil)

// repoContext resolves the target workspace and slug once per invocation.
// Flags win; git is consulted only for the parts that were not given.
type repoContext struct {
	git       gitRepo
	workspace string
	slug      string
	remote    *git.RemoteURL
}

func newRepoContext(g gitRepo, workspace, slug string) *repoContext {
	return &repoContext{git: g, workspace: workspace, slug: slug}
}

// Workspace returns the workspace flag or the one derived from the git remote.
func (rc *repoContext) Workspace(ctx context.Context) (string, error) {
	if rc.workspace != "" {
		return rc.workspace, nil
	}
	remote, err := rc.remoteURL(ctx)
	if err != nil {
		return "", err
	}
	return remote.Workspace, nil
}

// Repo returns the workspace and slug, consulting git only when a flag is missing.
func (rc *repoContext) Repo(ctx context.Context) (bitbucket.RepoRef, error) {
	ref := bitbucket.RepoRef{Workspace: rc.workspace, Slug: rc.slug}
	if ref.Workspace != "" && ref.Slug != "" {
		return ref, nil
	}

	remote, err := rc.remoteURL(ctx)
	if err != nil {
		return bitbucket.RepoRef{}, err
	}
	if ref.Workspace == "" {
		ref.Workspace = remote.Workspace
	}
	if ref.Slug == "" {
		ref.Slug = remote.Slug
	}
	return ref, nil
}

func (rc *repoContext) remoteURL(ctx context.Context) (*git.RemoteURL, error) {
	if rc.remote != nil {
		return rc.remote, nil
	}
	if rc.git == nil {
		return nil, bberrors.New("--workspace and --slug are required outside a git repository")
	}

	raw, err := rc.git.RemoteURL(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := git.ParseRemoteURL(raw)
	if err != nil {
		return nil, bberrors.Wrap(err, "cannot derive workspace and slug from git remote; pass --workspace and --slug")
	}
	rc.remote = remote
	return remote, nil
}

// commandDeps bundles what the command handlers need.
type commandDeps struct {
	Out         io.Writer
	Client      bitbucket.Client
	Git         gitRepo
	Repo        *repoContext
	Config      *config.Config
	Highlighter ui.Highlighter
	Color       bool
}

// newCommandDeps wires the real client and git adapter for cmd.
func newCommandDeps(cmd *cobra.Command, workspace, slug string) (*commandDeps, error) {
	cfg, err := ensureCredentials()
	if err != nil {
		return nil, err
	}

	client, err := bitbucket.NewClient(&cfg.Bitbucket, verbose)
	if err != nil {
		return nil, err
	}

	repo := git.NewRepo("", cfg.Git.Remote, verbose)
	out := cmd.OutOrStdout()
	f, _ := out.(*os.File)

	return &commandDeps{
		Out:         out,
		Client:      client,
		Git:         repo,
		Repo:        newRepoContext(repo, workspace, slug),
		Config:      cfg,
		Highlighter: newHighlighter(cfg, out),
		Color:       ui.ColorEnabled(cfg.Display.Color, f),
	}, nil
}

// ensureCredentials runs the first-run credential step when needed.
func ensureCredentials() (*config.Config, error) {
	if appConfig == nil {
		if err := initConfig(); err != nil {
			return nil, err
		}
	}

	path, err := bootstrap.ConfigFilePath(cfgFile)
	if err != nil {
		return nil, err
	}

	outcome, err := bootstrap.LoadOrInitCredentials(appConfig, bootstrap.CredentialsOptions{
		Path:     path,
		Prompter: bootstrap.NewTerminalPrompter(),
		Store:    secretStore(appConfig),
	})
	if err != nil {
		return nil, err
	}
	if outcome == bootstrap.CredentialsCreated {
		fmt.Fprintf(os.Stderr, "Saved credentials to %s\n", path)
	}

	return appConfig, nil
}

// secretStore returns the keychain when configured and usable. Otherwise the
// secret is written to the config file.
func secretStore(cfg *config.Config) bootstrap.SecretStore {
	if cfg.Bitbucket.CredentialStore != config.StoreKeyring {
		return nil
	}
	store := bootstrap.NewKeychainStore()
	if !store.Available() {
		fmt.Fprintln(os.Stderr, "Warning: keychain unavailable, storing app password in the config file")
		return nil
	}
	return store
}

// parsePRID parses a pull request id argument.
func parsePRID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || id <= 0 {
		return 0, bberrors.NewConfigError("id", fmt.Sprintf("invalid pull request id %q", arg))
	}
	return id, nil
}

// loading shows a spinner on stderr while fn runs.
func loading[T any](fn func() (T, error)) (T, error) {
	s := ui.Status(os.Stderr, "Loading...")
	defer s.Stop()
	return fn()
}

// firstLine returns the first non-empty line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
