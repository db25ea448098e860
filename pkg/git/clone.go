package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// CloneManager handles repository cloning operations
type CloneManager struct {
	BasePath string // Base path for clones (default: ~/src)
	Verbose  bool
	runner   CommandRunner
	homedir  func() (string, error) // For testing; defaults to os.UserHomeDir
}

// NewCloneManager creates a new CloneManager with default settings
func NewCloneManager(basePath string, verbose bool) *CloneManager {
	return NewCloneManagerWithRunner(basePath, verbose, &RealCommandRunner{Verbose: verbose})
}

// NewCloneManagerWithRunner creates a CloneManager with a custom CommandRunner (for testing)
func NewCloneManagerWithRunner(basePath string, verbose bool, runner CommandRunner) *CloneManager {
	return &CloneManager{
		BasePath: basePath,
		Verbose:  verbose,
		runner:   runner,
		homedir:  os.UserHomeDir,
	}
}

// TargetPath returns <base>/<workspace>/<slug> for remote.
func (cm *CloneManager) TargetPath(remote *RemoteURL) (string, error) {
	basePath := cm.BasePath
	if basePath == "" {
		home, err := cm.homedir()
		if err != nil {
			return "", errors.Wrap(err, "failed to get home directory")
		}
		basePath = filepath.Join(home, "src")
	}
	return filepath.Join(basePath, remote.Workspace, remote.Slug), nil
}

// Clone clones remote using cloneURL into TargetPath(remote).
// An existing git repository at the target is returned unchanged.
func (cm *CloneManager) Clone(ctx context.Context, remote *RemoteURL, cloneURL string) (string, error) {
	if remote == nil {
		return "", errors.New("nil remote provided")
	}
	if cloneURL == "" {
		cloneURL = remote.CloneURL(remote.Protocol)
	}

	repoPath, err := cm.TargetPath(remote)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(repoPath); err == nil {
		if !IsGitRepo(repoPath) {
			return "", errors.Newf("%s already exists and is not a git repository", repoPath)
		}
		if cm.Verbose {
			fmt.Fprintf(os.Stderr, "Repository already exists at %s\n", repoPath)
		}
		return repoPath, nil
	}

	workspaceDir := filepath.Dir(repoPath)
	if err := os.MkdirAll(workspaceDir, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create directory %s", workspaceDir)
	}

	if cm.Verbose {
		fmt.Fprintf(os.Stderr, "Cloning %s to %s...\n", cloneURL, repoPath)
	}

	if err := cm.runner.Run(ctx, "", "git", "clone", cloneURL, repoPath); err != nil {
		return "", err
	}

	return repoPath, nil
}
