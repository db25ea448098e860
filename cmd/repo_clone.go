package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"thoreinstein.com/bb/pkg/bitbucket"
	"thoreinstein.com/bb/pkg/git"
)

// cloner clones a repository and returns its local path.
type cloner interface {
	Clone(ctx context.Context, remote *git.RemoteURL, cloneURL string) (string, error)
}

var _ cloner = (*git.CloneManager)(nil)

// repoCloneCmd clones a workspace repository.
var repoCloneCmd = &cobra.Command{
	Use:   "clone <workspace>/<slug>",
	Short: "Clone a repository to <base_path>/<workspace>/<slug>",
	Long: `Clone a Bitbucket repository using a structured directory layout.

The clone URL is taken from the repository's clone links, using the
configured clone.protocol (ssh or https). Repositories land in
<clone.base_path>/<workspace>/<slug> (default ~/src). An existing clone at
that path is left untouched.

Examples:
  bb repo clone acme/widgets
  bb repo clone git@bitbucket.org:acme/widgets.git
  bb repo clone https://bitbucket.org/acme/widgets`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := newCommandDeps(cmd, repoWorkspace, "")
		if err != nil {
			return err
		}

		manager := git.NewCloneManager(deps.Config.Clone.BasePath, verbose)
		return runRepoClone(cmd.Context(), args[0], manager, deps)
	},
}

func init() {
	repoCmd.AddCommand(repoCloneCmd)
}

func runRepoClone(ctx context.Context, input string, c cloner, d *commandDeps) error {
	remote, err := parseCloneTarget(input)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Parsed repository:\n")
		fmt.Fprintf(os.Stderr, "  Host: %s\n", remote.Host)
		fmt.Fprintf(os.Stderr, "  Workspace: %s\n", remote.Workspace)
		fmt.Fprintf(os.Stderr, "  Slug: %s\n", remote.Slug)
	}

	ref := bitbucket.RepoRef{Workspace: remote.Workspace, Slug: remote.Slug}
	repo, err := loading(func() (*bitbucket.Repository, error) {
		return d.Client.GetRepository(ctx, ref)
	})
	if err != nil {
		return err
	}

	protocol := d.Config.Clone.Protocol
	cloneURL := repo.Links.CloneURL(protocol)
	if cloneURL == "" {
		cloneURL = remote.CloneURL(protocol)
	}

	path, err := c.Clone(ctx, remote, cloneURL)
	if err != nil {
		return err
	}

	fmt.Fprintf(d.Out, "Repository cloned to: %s\n", path)
	return nil
}

// parseCloneTarget accepts "workspace/slug" or any remote URL form.
func parseCloneTarget(input string) (*git.RemoteURL, error) {
	input = strings.TrimSpace(input)
	if parts := strings.Split(input, "/"); len(parts) == 2 && !strings.Contains(input, ":") {
		return git.ParseRemoteURL(git.DefaultHost + "/" + input)
	}
	return git.ParseRemoteURL(input)
}
