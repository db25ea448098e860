package errors

import (
	"fmt"
	"strings"
)

// FormatUserError returns a user-friendly error message with actionable guidance.
// It examines the error chain and provides context-appropriate help text.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var configErr *ConfigError
	if As(err, &configErr) {
		return formatConfigError(configErr)
	}

	var apiErr *APIError
	if As(err, &apiErr) {
		return formatAPIError(apiErr)
	}

	var gitErr *GitError
	if As(err, &gitErr) {
		return formatGitError(gitErr)
	}

	// Default: return the error message as-is
	return err.Error()
}

// formatConfigError formats a ConfigError with actionable guidance.
func formatConfigError(err *ConfigError) string {
	var b strings.Builder

	if err.Field != "" {
		fmt.Fprintf(&b, "Configuration error in '%s': %s\n", err.Field, err.Message)
	} else {
		fmt.Fprintf(&b, "Configuration error: %s\n", err.Message)
	}

	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Check your config file: ~/.config/bb/config.toml\n")
	b.WriteString("  • Run 'bb config setup' to reconfigure\n")

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

// formatAPIError formats an APIError with guidance based on status code.
func formatAPIError(err *APIError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Bitbucket error during %s: %s\n", err.Operation, err.Message)

	switch err.StatusCode {
	case 401:
		b.WriteString("\nAuthentication failed. To fix this:\n")
		b.WriteString("  • Run 'bb config setup' to enter a new app password\n")
		b.WriteString("  • Or set the BB_BITBUCKET_APP_PASSWORD environment variable\n")
		b.WriteString("  • Create app passwords at https://bitbucket.org/account/settings/app-passwords/\n")

	case 403:
		b.WriteString("\nPermission denied. To fix this:\n")
		b.WriteString("  • Ensure the app password has the pullrequest:write and repository scopes\n")
		b.WriteString("  • Ensure you have access to this repository\n")

	case 404:
		b.WriteString("\nResource not found. To fix this:\n")
		b.WriteString("  • Verify --workspace and --slug (or the git remote they were derived from)\n")
		b.WriteString("  • Ensure the pull request exists\n")
	}

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

// formatGitError formats a GitError the way the failing command reported it.
func formatGitError(err *GitError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s exited with %d code\n", err.Command(), err.ExitCode)
	if err.Stderr != "" {
		b.WriteString(err.Stderr)
		b.WriteString("\n")
	}

	return b.String()
}
