// Package git wraps the local git binary.
//
// Every operation shells out through a CommandRunner so that tests can
// substitute a fake. A non-zero exit is reported as an *errors.GitError
// carrying the argv, exit code and captured stderr.
package git

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"

	"github.com/cockroachdb/errors"

	bberrors "thoreinstein.com/bb/pkg/errors"
)

// CommandRunner executes external commands.
type CommandRunner interface {
	// Run executes the command, streaming stdout to the terminal.
	Run(ctx context.Context, dir, name string, args ...string) error

	// Output executes the command and returns its stdout.
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// RealCommandRunner runs commands with os/exec.
type RealCommandRunner struct {
	Verbose bool
	Logger  *slog.Logger
}

// Compile-time check that RealCommandRunner implements CommandRunner.
var _ CommandRunner = (*RealCommandRunner)(nil)

// Run executes the command with stdout attached to os.Stdout.
func (r *RealCommandRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logDebug("exec", "dir", dir, "cmd", name, "args", args)
	return commandError(name, args, cmd.Run(), stderr.String())
}

// Output executes the command and returns its stdout.
func (r *RealCommandRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logDebug("exec", "dir", dir, "cmd", name, "args", args)
	out, err := cmd.Output()
	if err != nil {
		return out, commandError(name, args, err, stderr.String())
	}
	return out, nil
}

func (r *RealCommandRunner) logDebug(msg string, args ...any) {
	if !r.Verbose {
		return
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug(msg, args...)
}

// commandError converts an exec failure into a GitError when the process
// ran and exited non-zero.
func commandError(name string, args []string, err error, stderr string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		argv := append([]string{name}, args...)
		return bberrors.NewGitError(argv, exitErr.ExitCode(), stderr, err)
	}
	return errors.Wrapf(err, "failed to run %s", name)
}
