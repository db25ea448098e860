package bitbucket

import (
	"context"
	"net/url"

	"thoreinstein.com/bb/pkg/config"
	bberrors "thoreinstein.com/bb/pkg/errors"
)

// RepoRef identifies a repository by workspace and slug.
type RepoRef struct {
	Workspace string
	Slug      string
}

// String returns "workspace/slug".
func (r RepoRef) String() string {
	return r.Workspace + "/" + r.Slug
}

// path returns the API path of the repository.
func (r RepoRef) path() string {
	return "/repositories/" + url.PathEscape(r.Workspace) + "/" + url.PathEscape(r.Slug)
}

// Client defines the Bitbucket operations used by bb.
// Every call performs exactly one HTTP request; nothing is cached or retried.
type Client interface {
	// ListPullRequests lists one page of pull requests, in API order.
	ListPullRequests(ctx context.Context, repo RepoRef, opts ListOptions) ([]PullRequest, error)

	// GetPullRequest retrieves a pull request by id.
	GetPullRequest(ctx context.Context, repo RepoRef, id int) (*PullRequest, error)

	// GetPullRequestByHref retrieves a pull request from its self link.
	GetPullRequestByHref(ctx context.Context, href string) (*PullRequest, error)

	// CreatePullRequest opens a new pull request.
	CreatePullRequest(ctx context.Context, repo RepoRef, opts CreatePullRequestOptions) (*PullRequest, error)

	// Merge merges a pull request and returns it in its new state.
	Merge(ctx context.Context, repo RepoRef, id int, opts MergeOptions) (*PullRequest, error)

	// Approve approves a pull request as the authenticated user.
	Approve(ctx context.Context, repo RepoRef, id int) (*Participant, error)

	// Decline declines a pull request and returns it in its new state.
	Decline(ctx context.Context, repo RepoRef, id int) (*PullRequest, error)

	// RequestChanges requests changes on a pull request as the authenticated user.
	RequestChanges(ctx context.Context, repo RepoRef, id int) (*Participant, error)

	// Diff returns the unified diff of a pull request.
	Diff(ctx context.Context, repo RepoRef, id int) (string, error)

	// ListComments lists one page of comments on a pull request.
	ListComments(ctx context.Context, repo RepoRef, id int) ([]Comment, error)

	// ListCommits lists one page of commits on a pull request.
	ListCommits(ctx context.Context, repo RepoRef, id int) ([]Commit, error)

	// ListStatuses lists build statuses from a pull request's statuses link.
	ListStatuses(ctx context.Context, href string) ([]BuildStatus, error)

	// ListRepositories lists one page of repositories in a workspace.
	ListRepositories(ctx context.Context, workspace string, opts ListOptions) ([]Repository, error)

	// GetRepository retrieves a single repository.
	GetRepository(ctx context.Context, repo RepoRef) (*Repository, error)
}

// Compile-time check that APIClient implements Client.
var _ Client = (*APIClient)(nil)

// NewClient creates a Bitbucket client based on the provided configuration.
//
// With auth_method "token" requests carry a bearer token; otherwise they use
// HTTP basic auth with the username and app password.
func NewClient(cfg *config.BitbucketConfig, verbose bool, opts ...APIClientOption) (Client, error) {
	if cfg == nil {
		return nil, bberrors.NewConfigError("bitbucket", "bitbucket config is required")
	}

	switch cfg.AuthMethod {
	case config.AuthToken:
		if cfg.Token == "" {
			return nil, bberrors.NewConfigError("bitbucket.token",
				"token auth requires BB_BITBUCKET_TOKEN env var or bitbucket.token in config")
		}
	case config.AuthAppPassword, "":
		if cfg.Username == "" || cfg.AppPassword == "" {
			return nil, bberrors.NewConfigError("bitbucket.app_password",
				"app password auth requires bitbucket.username and bitbucket.app_password (run 'bb config setup')")
		}
	default:
		return nil, bberrors.NewConfigError("bitbucket.auth_method", "unknown auth method: "+cfg.AuthMethod)
	}

	return NewAPIClient(cfg, verbose, opts...), nil
}
