package cmd

import (
	"github.com/spf13/cobra"
)

var repoWorkspace string

// repoCmd is the parent command for repository operations.
var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage repositories",
	Long: `List and clone repositories in a Bitbucket workspace.

Examples:
  bb repo list               # Repositories in the current remote's workspace
  bb repo list acme          # Repositories in the acme workspace
  bb repo clone acme/widgets # Clone into <clone.base_path>/acme/widgets`,
}

func init() {
	rootCmd.AddCommand(repoCmd)

	repoCmd.PersistentFlags().StringVarP(&repoWorkspace, "workspace", "w", "", "Bitbucket workspace (default: from git remote)")
}
