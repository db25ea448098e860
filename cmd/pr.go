package cmd

import (
	"github.com/spf13/cobra"
)

var (
	prWorkspace string
	prSlug      string
)

// prCmd is the parent command for PR operations.
var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Manage pull requests",
	Long: `Manage Bitbucket pull requests.

The workspace and repository slug default to the ones the current git
remote points at; pass --workspace and --slug to target another repository.

Examples:
  bb pr list                       # List open PRs
  bb pr list --state MERGED        # List merged PRs
  bb pr status                     # List PRs with build and approval status
  bb pr create --dst-branch main   # Push the current branch and open a PR
  bb pr approve 42                 # Approve PR #42
  bb pr merge 42                   # Merge PR #42 and delete the local branch
  bb pr diff 42                    # Show the diff of PR #42`,
}

func init() {
	rootCmd.AddCommand(prCmd)

	prCmd.PersistentFlags().StringVarP(&prWorkspace, "workspace", "w", "", "Bitbucket workspace (default: from git remote)")
	prCmd.PersistentFlags().StringVarP(&prSlug, "slug", "s", "", "Repository slug (default: from git remote)")
}

// newPRDeps wires dependencies for a pr subcommand.
func newPRDeps(cmd *cobra.Command) (*commandDeps, error) {
	return newCommandDeps(cmd, prWorkspace, prSlug)
}
