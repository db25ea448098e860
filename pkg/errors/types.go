// Package errors provides typed errors for the bb project.
//
// This package defines domain-specific error types that provide structured
// error information for the subsystems that can fail a command: configuration,
// the Bitbucket API and the local git binary. All error types implement the
// standard error interface and support errors.Is() and errors.As() from the
// standard library and cockroachdb/errors.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Field   string // Which config field has the issue
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with an underlying cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// APIError represents a failed Bitbucket API call.
//
// Payload holds the raw response body when the API reported the failure
// itself (a JSON object with "type": "error"). It is nil for plain HTTP
// failures without a structured body.
type APIError struct {
	Operation  string // e.g., "CreatePullRequest", "Merge"
	StatusCode int    // HTTP status code if applicable
	Message    string
	Payload    json.RawMessage
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("bitbucket %s failed (HTTP %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("bitbucket %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// HasPayload reports whether the API returned a structured error body.
func (e *APIError) HasPayload() bool {
	return len(e.Payload) > 0
}

// NewAPIError creates a new APIError.
func NewAPIError(operation, message string) *APIError {
	return &APIError{Operation: operation, Message: message}
}

// NewAPIErrorWithStatus creates a new APIError with HTTP status code.
func NewAPIErrorWithStatus(operation string, statusCode int, message string) *APIError {
	return &APIError{Operation: operation, StatusCode: statusCode, Message: message}
}

// NewAPIErrorWithPayload creates an APIError for a response carrying the
// error marker. The message is taken from error.message when present.
func NewAPIErrorWithPayload(operation string, statusCode int, payload []byte) *APIError {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := "request rejected"
	if err := json.Unmarshal(payload, &body); err == nil && body.Error.Message != "" {
		message = body.Error.Message
	}
	return &APIError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Payload:    json.RawMessage(payload),
	}
}

// NewAPIErrorWithCause creates a new APIError with an underlying cause.
func NewAPIErrorWithCause(operation, message string, cause error) *APIError {
	return &APIError{Operation: operation, Message: message, Cause: cause}
}

// GitError represents a git invocation that exited with a non-zero code.
type GitError struct {
	Args     []string // Full argv, starting with "git"
	ExitCode int
	Stderr   string
	Cause    error
}

// Error implements the error interface.
func (e *GitError) Error() string {
	msg := fmt.Sprintf("%s exited with %d code", e.Command(), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Command returns the invoked command line.
func (e *GitError) Command() string {
	return "[" + strings.Join(e.Args, " ") + "]"
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *GitError) Unwrap() error {
	return e.Cause
}

// NewGitError creates a new GitError.
func NewGitError(args []string, exitCode int, stderr string, cause error) *GitError {
	return &GitError{
		Args:     args,
		ExitCode: exitCode,
		Stderr:   strings.TrimSpace(stderr),
		Cause:    cause,
	}
}

// IsConfigError checks if an error or any error in its chain is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsAPIError checks if an error or any error in its chain is an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsGitError checks if an error or any error in its chain is a GitError.
func IsGitError(err error) bool {
	var gitErr *GitError
	return errors.As(err, &gitErr)
}

// Re-export commonly used functions from cockroachdb/errors for convenience.
// This allows consumers to use bberrors.Wrap() instead of importing two packages.
var (
	// New creates a new error with the given message.
	New = errors.New

	// Newf creates a new error with formatted message.
	Newf = errors.Newf

	// Wrap wraps an error with additional context.
	Wrap = errors.Wrap

	// Wrapf wraps an error with formatted additional context.
	Wrapf = errors.Wrapf

	// Is reports whether any error in err's chain matches target.
	Is = errors.Is

	// As finds the first error in err's chain that matches target.
	As = errors.As

	// Cause returns the root cause of an error.
	Cause = errors.Cause
)
