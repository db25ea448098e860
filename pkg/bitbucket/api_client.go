package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"

	"thoreinstein.com/bb/pkg/config"
	bberrors "thoreinstein.com/bb/pkg/errors"
)

const requestTimeout = 30 * time.Second

// APIClient implements Client using the Bitbucket Cloud REST API v2.
type APIClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	verbose    bool
	logger     *slog.Logger
}

// APIClientOption is a functional option for configuring APIClient.
type APIClientOption func(*APIClient)

// WithAPILogger sets a custom logger for the API client.
func WithAPILogger(logger *slog.Logger) APIClientOption {
	return func(c *APIClient) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) APIClientOption {
	return func(c *APIClient) {
		c.httpClient = hc
	}
}

// NewAPIClient creates an API client from cfg without validating credentials.
func NewAPIClient(cfg *config.BitbucketConfig, verbose bool, opts ...APIClientOption) *APIClient {
	baseURL := cfg.APIURL
	if baseURL == "" {
		baseURL = config.DefaultAPIURL
	}

	client := &APIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		verbose: verbose,
		logger:  slog.Default(),
	}

	if cfg.AuthMethod == config.AuthToken {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		client.httpClient = oauth2.NewClient(context.Background(), ts)
		client.httpClient.Timeout = requestTimeout
	} else {
		client.username = cfg.Username
		client.password = cfg.AppPassword
		client.httpClient = &http.Client{Timeout: requestTimeout}
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// ListPullRequests lists one page of pull requests filtered by state.
func (c *APIClient) ListPullRequests(ctx context.Context, repo RepoRef, opts ListOptions) ([]PullRequest, error) {
	c.logDebug("listing pull requests", "repo", repo.String(), "state", opts.State, "limit", opts.Limit)

	var page Page[PullRequest]
	if err := c.getJSON(ctx, "ListPullRequests", repo.path()+"/pullrequests", opts.query(), &page); err != nil {
		return nil, err
	}
	return page.Values, nil
}

// GetPullRequest retrieves a pull request by id.
func (c *APIClient) GetPullRequest(ctx context.Context, repo RepoRef, id int) (*PullRequest, error) {
	var pr PullRequest
	if err := c.getJSON(ctx, "GetPullRequest", pullRequestPath(repo, id), nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// GetPullRequestByHref retrieves a pull request from its self link.
func (c *APIClient) GetPullRequestByHref(ctx context.Context, href string) (*PullRequest, error) {
	var pr PullRequest
	if err := c.getJSON(ctx, "GetPullRequest", href, nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// CreatePullRequest opens a new pull request.
func (c *APIClient) CreatePullRequest(ctx context.Context, repo RepoRef, opts CreatePullRequestOptions) (*PullRequest, error) {
	if opts.Title == "" {
		return nil, bberrors.NewAPIError("CreatePullRequest", "title is required")
	}
	if opts.SourceBranch == "" {
		return nil, bberrors.NewAPIError("CreatePullRequest", "source branch is required")
	}

	body := createPullRequestBody{
		Title:             opts.Title,
		Description:       opts.Description,
		Source:            endpointBody{Branch: Branch{Name: opts.SourceBranch}},
		CloseSourceBranch: opts.CloseSourceBranch,
	}
	if opts.DestinationBranch != "" {
		body.Destination = &endpointBody{Branch: Branch{Name: opts.DestinationBranch}}
	}
	for _, r := range opts.Reviewers {
		if r = strings.TrimSpace(r); r != "" {
			body.Reviewers = append(body.Reviewers, newReviewer(r))
		}
	}

	c.logDebug("creating pull request", "repo", repo.String(), "source", opts.SourceBranch, "destination", opts.DestinationBranch)

	var pr PullRequest
	if err := c.postJSON(ctx, "CreatePullRequest", repo.path()+"/pullrequests", body, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// Merge merges a pull request.
func (c *APIClient) Merge(ctx context.Context, repo RepoRef, id int, opts MergeOptions) (*PullRequest, error) {
	c.logDebug("merging pull request", "repo", repo.String(), "id", id, "strategy", opts.Strategy)

	var body any
	if !opts.empty() {
		body = mergeBody{MergeStrategy: opts.Strategy, Message: opts.Message}
	}

	var pr PullRequest
	if err := c.postJSON(ctx, "Merge", pullRequestPath(repo, id)+"/merge", body, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// Approve approves a pull request.
func (c *APIClient) Approve(ctx context.Context, repo RepoRef, id int) (*Participant, error) {
	var p Participant
	if err := c.postJSON(ctx, "Approve", pullRequestPath(repo, id)+"/approve", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Decline declines a pull request.
func (c *APIClient) Decline(ctx context.Context, repo RepoRef, id int) (*PullRequest, error) {
	var pr PullRequest
	if err := c.postJSON(ctx, "Decline", pullRequestPath(repo, id)+"/decline", nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// RequestChanges requests changes on a pull request.
func (c *APIClient) RequestChanges(ctx context.Context, repo RepoRef, id int) (*Participant, error) {
	var p Participant
	if err := c.postJSON(ctx, "RequestChanges", pullRequestPath(repo, id)+"/request-changes", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Diff returns the unified diff of a pull request.
func (c *APIClient) Diff(ctx context.Context, repo RepoRef, id int) (string, error) {
	return c.getText(ctx, "Diff", pullRequestPath(repo, id)+"/diff", nil)
}

// ListComments lists one page of comments on a pull request.
func (c *APIClient) ListComments(ctx context.Context, repo RepoRef, id int) ([]Comment, error) {
	var page Page[Comment]
	if err := c.getJSON(ctx, "ListComments", pullRequestPath(repo, id)+"/comments", nil, &page); err != nil {
		return nil, err
	}
	return page.Values, nil
}

// ListCommits lists one page of commits on a pull request.
func (c *APIClient) ListCommits(ctx context.Context, repo RepoRef, id int) ([]Commit, error) {
	var page Page[Commit]
	if err := c.getJSON(ctx, "ListCommits", pullRequestPath(repo, id)+"/commits", nil, &page); err != nil {
		return nil, err
	}
	return page.Values, nil
}

// ListStatuses lists build statuses from a statuses link.
func (c *APIClient) ListStatuses(ctx context.Context, href string) ([]BuildStatus, error) {
	var page Page[BuildStatus]
	if err := c.getJSON(ctx, "ListStatuses", href, nil, &page); err != nil {
		return nil, err
	}
	return page.Values, nil
}

// ListRepositories lists one page of repositories in a workspace.
func (c *APIClient) ListRepositories(ctx context.Context, workspace string, opts ListOptions) ([]Repository, error) {
	if workspace == "" {
		return nil, bberrors.NewAPIError("ListRepositories", "workspace is required")
	}

	var page Page[Repository]
	if err := c.getJSON(ctx, "ListRepositories", "/repositories/"+url.PathEscape(workspace), opts.query(), &page); err != nil {
		return nil, err
	}
	return page.Values, nil
}

// GetRepository retrieves a single repository.
func (c *APIClient) GetRepository(ctx context.Context, repo RepoRef) (*Repository, error) {
	var r Repository
	if err := c.getJSON(ctx, "GetRepository", repo.path(), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *APIClient) getJSON(ctx context.Context, op, target string, query url.Values, out any) error {
	body, err := c.do(ctx, op, http.MethodGet, target, query, nil)
	if err != nil {
		return err
	}
	return decode(op, body, out)
}

// getText performs a GET and returns the raw response body.
func (c *APIClient) getText(ctx context.Context, op, target string, query url.Values) (string, error) {
	body, err := c.do(ctx, op, http.MethodGet, target, query, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// postJSON performs a POST with an optional JSON body and decodes the response into out.
func (c *APIClient) postJSON(ctx context.Context, op, target string, payload, out any) error {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrapf(err, "failed to encode %s request", op)
		}
		reader = bytes.NewReader(data)
	}

	body, err := c.do(ctx, op, http.MethodPost, target, nil, reader)
	if err != nil {
		return err
	}
	return decode(op, body, out)
}

// do sends one authenticated request and returns the response body.
// A body carrying the error marker, or a non-2xx status, yields an APIError.
func (c *APIClient) do(ctx context.Context, op, method, target string, query url.Values, body io.Reader) ([]byte, error) {
	endpoint, err := c.resolve(target, query)
	if err != nil {
		return nil, bberrors.NewAPIErrorWithCause(op, "invalid request URL", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logDebug("http request", "method", method, "url", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, bberrors.NewAPIErrorWithCause(op, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	c.logDebug("http response", "method", method, "url", endpoint, "status", resp.StatusCode, "bytes", len(data))

	if hasErrorMarker(data) {
		return nil, bberrors.NewAPIErrorWithPayload(op, resp.StatusCode, data)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, bberrors.NewAPIErrorWithStatus(op, resp.StatusCode, statusMessage(resp.StatusCode, data))
	}

	return data, nil
}

// resolve turns an API-relative path or an absolute href into a URL.
func (c *APIClient) resolve(target string, query url.Values) (string, error) {
	raw := target
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		raw = c.baseURL + "/" + strings.TrimPrefix(target, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *APIClient) logDebug(msg string, args ...any) {
	if c.verbose {
		c.logger.Debug(msg, args...)
	}
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.State != "" {
		q.Set("state", string(o.State))
	}
	if o.Limit > 0 {
		q.Set("pagelen", strconv.Itoa(o.Limit))
	}
	return q
}

func pullRequestPath(repo RepoRef, id int) string {
	return repo.path() + "/pullrequests/" + strconv.Itoa(id)
}

// hasErrorMarker reports whether data is a JSON object with "type": "error".
func hasErrorMarker(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return false
	}
	return envelope.Type == "error"
}

func statusMessage(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" || len(text) > 200 {
		return http.StatusText(status)
	}
	return text
}

func decode(op string, data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to parse %s response", op)
	}
	return nil
}
