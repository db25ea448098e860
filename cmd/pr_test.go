package cmd

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"thoreinstein.com/bb/pkg/bitbucket"
	"thoreinstein.com/bb/pkg/config"
	"thoreinstein.com/bb/pkg/git"
	"thoreinstein.com/bb/pkg/ui"
)

// callLog records calls from the client and git mocks in a single order.
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

type mockBBClient struct {
	bitbucket.Client
	log *callLog

	listPRsFunc        func(repo bitbucket.RepoRef, opts bitbucket.ListOptions) ([]bitbucket.PullRequest, error)
	getPRFunc          func(repo bitbucket.RepoRef, id int) (*bitbucket.PullRequest, error)
	getPRByHrefFunc    func(href string) (*bitbucket.PullRequest, error)
	createPRFunc       func(repo bitbucket.RepoRef, opts bitbucket.CreatePullRequestOptions) (*bitbucket.PullRequest, error)
	mergeFunc          func(repo bitbucket.RepoRef, id int, opts bitbucket.MergeOptions) (*bitbucket.PullRequest, error)
	approveFunc        func(repo bitbucket.RepoRef, id int) (*bitbucket.Participant, error)
	requestChangesFunc func(repo bitbucket.RepoRef, id int) (*bitbucket.Participant, error)
	declineFunc        func(repo bitbucket.RepoRef, id int) (*bitbucket.PullRequest, error)
	diffFunc           func(repo bitbucket.RepoRef, id int) (string, error)
	commentsFunc       func(repo bitbucket.RepoRef, id int) ([]bitbucket.Comment, error)
	commitsFunc        func(repo bitbucket.RepoRef, id int) ([]bitbucket.Commit, error)
	statusesFunc       func(href string) ([]bitbucket.BuildStatus, error)
	reposFunc          func(workspace string, opts bitbucket.ListOptions) ([]bitbucket.Repository, error)
	getRepoFunc        func(repo bitbucket.RepoRef) (*bitbucket.Repository, error)
}

func (m *mockBBClient) ListPullRequests(ctx context.Context, repo bitbucket.RepoRef, opts bitbucket.ListOptions) ([]bitbucket.PullRequest, error) {
	m.log.add("ListPullRequests %s state=%s limit=%d", repo, opts.State, opts.Limit)
	if m.listPRsFunc != nil {
		return m.listPRsFunc(repo, opts)
	}
	return nil, nil
}

func (m *mockBBClient) GetPullRequest(ctx context.Context, repo bitbucket.RepoRef, id int) (*bitbucket.PullRequest, error) {
	m.log.add("GetPullRequest %s %d", repo, id)
	if m.getPRFunc != nil {
		return m.getPRFunc(repo, id)
	}
	return &bitbucket.PullRequest{ID: id, Title: "Test PR", State: bitbucket.StateOpen}, nil
}

func (m *mockBBClient) GetPullRequestByHref(ctx context.Context, href string) (*bitbucket.PullRequest, error) {
	m.log.add("GetPullRequestByHref %s", href)
	if m.getPRByHrefFunc != nil {
		return m.getPRByHrefFunc(href)
	}
	return &bitbucket.PullRequest{}, nil
}

func (m *mockBBClient) CreatePullRequest(ctx context.Context, repo bitbucket.RepoRef, opts bitbucket.CreatePullRequestOptions) (*bitbucket.PullRequest, error) {
	m.log.add("CreatePullRequest %s %s", repo, opts.SourceBranch)
	if m.createPRFunc != nil {
		return m.createPRFunc(repo, opts)
	}
	return &bitbucket.PullRequest{ID: 1, Title: opts.Title, State: bitbucket.StateOpen}, nil
}

func (m *mockBBClient) Merge(ctx context.Context, repo bitbucket.RepoRef, id int, opts bitbucket.MergeOptions) (*bitbucket.PullRequest, error) {
	m.log.add("Merge %s %d", repo, id)
	if m.mergeFunc != nil {
		return m.mergeFunc(repo, id, opts)
	}
	return &bitbucket.PullRequest{ID: id, State: bitbucket.StateMerged}, nil
}

func (m *mockBBClient) Approve(ctx context.Context, repo bitbucket.RepoRef, id int) (*bitbucket.Participant, error) {
	m.log.add("Approve %s %d", repo, id)
	if m.approveFunc != nil {
		return m.approveFunc(repo, id)
	}
	return &bitbucket.Participant{Approved: true, State: "approved"}, nil
}

func (m *mockBBClient) RequestChanges(ctx context.Context, repo bitbucket.RepoRef, id int) (*bitbucket.Participant, error) {
	m.log.add("RequestChanges %s %d", repo, id)
	if m.requestChangesFunc != nil {
		return m.requestChangesFunc(repo, id)
	}
	return &bitbucket.Participant{State: "changes_requested"}, nil
}

func (m *mockBBClient) Decline(ctx context.Context, repo bitbucket.RepoRef, id int) (*bitbucket.PullRequest, error) {
	m.log.add("Decline %s %d", repo, id)
	if m.declineFunc != nil {
		return m.declineFunc(repo, id)
	}
	return &bitbucket.PullRequest{ID: id, State: bitbucket.StateDeclined}, nil
}

func (m *mockBBClient) Diff(ctx context.Context, repo bitbucket.RepoRef, id int) (string, error) {
	m.log.add("Diff %s %d", repo, id)
	if m.diffFunc != nil {
		return m.diffFunc(repo, id)
	}
	return "", nil
}

func (m *mockBBClient) ListComments(ctx context.Context, repo bitbucket.RepoRef, id int) ([]bitbucket.Comment, error) {
	m.log.add("ListComments %s %d", repo, id)
	if m.commentsFunc != nil {
		return m.commentsFunc(repo, id)
	}
	return nil, nil
}

func (m *mockBBClient) ListCommits(ctx context.Context, repo bitbucket.RepoRef, id int) ([]bitbucket.Commit, error) {
	m.log.add("ListCommits %s %d", repo, id)
	if m.commitsFunc != nil {
		return m.commitsFunc(repo, id)
	}
	return nil, nil
}

func (m *mockBBClient) ListStatuses(ctx context.Context, href string) ([]bitbucket.BuildStatus, error) {
	m.log.add("ListStatuses %s", href)
	if m.statusesFunc != nil {
		return m.statusesFunc(href)
	}
	return nil, nil
}

func (m *mockBBClient) ListRepositories(ctx context.Context, workspace string, opts bitbucket.ListOptions) ([]bitbucket.Repository, error) {
	m.log.add("ListRepositories %s limit=%d", workspace, opts.Limit)
	if m.reposFunc != nil {
		return m.reposFunc(workspace, opts)
	}
	return nil, nil
}

func (m *mockBBClient) GetRepository(ctx context.Context, repo bitbucket.RepoRef) (*bitbucket.Repository, error) {
	m.log.add("GetRepository %s", repo)
	if m.getRepoFunc != nil {
		return m.getRepoFunc(repo)
	}
	return &bitbucket.Repository{Slug: repo.Slug}, nil
}

// mockGit is a gitRepo that records every call. errs maps a method name to
// the error it should return.
type mockGit struct {
	log     *callLog
	remote  string
	branch  string
	message string
	errs    map[string]error
}

func (g *mockGit) fail(method string) error {
	return g.errs[method]
}

func (g *mockGit) RemoteURL(ctx context.Context) (string, error) {
	g.log.add("git remote")
	return g.remote, g.fail("RemoteURL")
}

func (g *mockGit) CurrentBranch(ctx context.Context) (string, error) {
	g.log.add("git branch")
	return g.branch, g.fail("CurrentBranch")
}

func (g *mockGit) LastCommitMessage(ctx context.Context) (string, error) {
	g.log.add("git log")
	return g.message, g.fail("LastCommitMessage")
}

func (g *mockGit) CheckoutNewBranch(ctx context.Context, name string) error {
	g.log.add("git checkout -b %s", name)
	return g.fail("CheckoutNewBranch")
}

func (g *mockGit) Checkout(ctx context.Context, name string) error {
	g.log.add("git checkout %s", name)
	return g.fail("Checkout")
}

func (g *mockGit) Pull(ctx context.Context, name string) error {
	g.log.add("git pull %s", name)
	return g.fail("Pull")
}

func (g *mockGit) Push(ctx context.Context, name string) error {
	g.log.add("git push %s", name)
	return g.fail("Push")
}

func (g *mockGit) DeleteBranch(ctx context.Context, name string) error {
	g.log.add("git branch -D %s", name)
	return g.fail("DeleteBranch")
}

var _ gitRepo = (*mockGit)(nil)

type mockCloner struct {
	log  *callLog
	path string
	err  error
}

func (c *mockCloner) Clone(ctx context.Context, remote *git.RemoteURL, cloneURL string) (string, error) {
	c.log.add("clone %s", cloneURL)
	return c.path, c.err
}

// testEnv bundles command dependencies wired to mocks.
type testEnv struct {
	deps   *commandDeps
	client *mockBBClient
	git    *mockGit
	out    *bytes.Buffer
	log    *callLog
}

func testConfig() *config.Config {
	return &config.Config{
		Bitbucket: config.BitbucketConfig{
			APIURL:              config.DefaultAPIURL,
			AuthMethod:          config.AuthAppPassword,
			Username:            "alice",
			AppPassword:         "secret",
			CredentialStore:     config.StoreFile,
			CloseSourceBranch:   true,
			DeleteBranchOnMerge: true,
		},
		Display: config.DisplayConfig{Theme: "emacs", Background: "default", Color: ui.ColorNever},
		Git:     config.GitConfig{Remote: "origin"},
		Clone:   config.CloneConfig{Protocol: "ssh"},
	}
}

// newTestEnv returns deps targeting acme/widgets with the current branch
// feature/x. Pass empty workspace and slug to exercise git resolution.
func newTestEnv(t *testing.T, workspace, slug string) *testEnv {
	t.Helper()

	log := &callLog{}
	client := &mockBBClient{log: log}
	g := &mockGit{
		log:    log,
		remote: "git@bitbucket.org:acme/widgets.git",
		branch: "feature/x",
		errs:   map[string]error{},
	}
	out := &bytes.Buffer{}

	return &testEnv{
		deps: &commandDeps{
			Out:         out,
			Client:      client,
			Git:         g,
			Repo:        newRepoContext(g, workspace, slug),
			Config:      testConfig(),
			Highlighter: ui.Highlighter{Theme: "emacs", Background: ui.DefaultBackground},
		},
		client: client,
		git:    g,
		out:    out,
		log:    log,
	}
}

func assertCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
