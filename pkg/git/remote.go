package git

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// DefaultHost is the Bitbucket Cloud git host.
const DefaultHost = "bitbucket.org"

// RemoteURL is a parsed git remote pointing at a workspace repository.
type RemoteURL struct {
	Original  string
	Host      string
	Workspace string
	Slug      string // Repository slug, without .git
	Protocol  string // "ssh" or "https"
}

// URL parsing patterns for remotes that net/url cannot handle
var (
	// SCP-like SSH format: git@bitbucket.org:workspace/slug.git
	scpURLRegex = regexp.MustCompile(`^(?:[a-zA-Z0-9_.-]+@)?([a-zA-Z0-9_.-]+):([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?/?$`)

	// Shorthand format: bitbucket.org/workspace/slug (no protocol)
	shorthandURLRegex = regexp.MustCompile(`^([a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)+)/([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?$`)
)

// ParseRemoteURL parses a git remote URL into host, workspace and slug.
// Supported formats:
//   - SSH: git@bitbucket.org:workspace/slug.git
//   - SSH URL: ssh://git@bitbucket.org/workspace/slug.git
//   - HTTPS: https://user@bitbucket.org/workspace/slug.git
//   - Shorthand: bitbucket.org/workspace/slug (interpreted as SSH)
func ParseRemoteURL(input string) (*RemoteURL, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("empty remote URL")
	}

	if strings.Contains(input, "://") {
		return parseSchemeURL(input)
	}

	if matches := scpURLRegex.FindStringSubmatch(input); len(matches) == 4 {
		return &RemoteURL{
			Original:  input,
			Host:      matches[1],
			Workspace: matches[2],
			Slug:      matches[3],
			Protocol:  "ssh",
		}, nil
	}

	if matches := shorthandURLRegex.FindStringSubmatch(input); len(matches) == 4 {
		return &RemoteURL{
			Original:  input,
			Host:      matches[1],
			Workspace: matches[2],
			Slug:      matches[3],
			Protocol:  "ssh",
		}, nil
	}

	return nil, invalidRemote(input)
}

func parseSchemeURL(input string) (*RemoteURL, error) {
	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return nil, invalidRemote(input)
	}

	var protocol string
	switch u.Scheme {
	case "ssh", "git+ssh":
		protocol = "ssh"
	case "https", "http":
		protocol = "https"
	default:
		return nil, invalidRemote(input)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, invalidRemote(input)
	}

	slug := strings.TrimSuffix(parts[1], ".git")
	if slug == "" {
		return nil, invalidRemote(input)
	}

	return &RemoteURL{
		Original:  input,
		Host:      u.Hostname(),
		Workspace: parts[0],
		Slug:      slug,
		Protocol:  protocol,
	}, nil
}

func invalidRemote(input string) error {
	return errors.Newf("invalid remote URL format: %q\n\nSupported formats:\n  git@bitbucket.org:workspace/repo.git (SSH)\n  https://bitbucket.org/workspace/repo.git (HTTPS)\n  bitbucket.org/workspace/repo (shorthand)", input)
}

// CloneURL returns the canonical clone URL for protocol ("ssh" or "https").
func (r *RemoteURL) CloneURL(protocol string) string {
	host := r.Host
	if host == "" {
		host = DefaultHost
	}
	if protocol == "https" {
		return fmt.Sprintf("https://%s/%s/%s.git", host, r.Workspace, r.Slug)
	}
	return fmt.Sprintf("git@%s:%s/%s.git", host, r.Workspace, r.Slug)
}
