// Package bitbucket provides a client for the Bitbucket Cloud REST API v2.
//
// The Client interface covers the pull request and repository endpoints the
// bb commands need. APIClient is the only implementation; it talks to the
// API over HTTP with basic auth (username and app password) or a bearer token.
package bitbucket

import (
	"strings"
	"time"

	bberrors "thoreinstein.com/bb/pkg/errors"
)

// PRState is the lifecycle state of a pull request.
type PRState string

const (
	StateOpen       PRState = "OPEN"
	StateMerged     PRState = "MERGED"
	StateSuperseded PRState = "SUPERSEDED"
	StateDeclined   PRState = "DECLINED"
)

// PRStates lists every valid state in display order.
var PRStates = []PRState{StateOpen, StateMerged, StateSuperseded, StateDeclined}

// ParsePRState converts s (any case) into a PRState.
func ParsePRState(s string) (PRState, error) {
	state := PRState(strings.ToUpper(strings.TrimSpace(s)))
	for _, valid := range PRStates {
		if state == valid {
			return state, nil
		}
	}
	return "", bberrors.Newf("invalid pull request state %q: must be one of OPEN, MERGED, SUPERSEDED, DECLINED", s)
}

// String implements fmt.Stringer.
func (s PRState) String() string {
	return string(s)
}

// Link is a single hyperlink in a links object.
type Link struct {
	Href string `json:"href"`
	Name string `json:"name,omitempty"`
}

// Links holds the hyperlinks the API attaches to resources.
type Links struct {
	Self     Link   `json:"self"`
	HTML     Link   `json:"html"`
	Diff     Link   `json:"diff"`
	Statuses Link   `json:"statuses"`
	Comments Link   `json:"comments"`
	Commits  Link   `json:"commits"`
	Approve  Link   `json:"approve"`
	Merge    Link   `json:"merge"`
	Decline  Link   `json:"decline"`
	Clone    []Link `json:"clone,omitempty"`
}

// CloneURL returns the clone link with the given name ("ssh" or "https").
func (l Links) CloneURL(name string) string {
	for _, link := range l.Clone {
		if link.Name == name {
			return link.Href
		}
	}
	return ""
}

// User is an account or team.
type User struct {
	UUID        string `json:"uuid"`
	DisplayName string `json:"display_name"`
	Nickname    string `json:"nickname"`
	AccountID   string `json:"account_id"`
	Username    string `json:"username,omitempty"`
}

// Name returns the most readable identifier available.
func (u User) Name() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Nickname != "":
		return u.Nickname
	case u.Username != "":
		return u.Username
	default:
		return u.UUID
	}
}

// Branch names a branch.
type Branch struct {
	Name string `json:"name"`
}

// CommitRef is a commit reference inside a PR endpoint.
type CommitRef struct {
	Hash string `json:"hash"`
}

// RepositoryRef is the short repository form inside a PR endpoint.
type RepositoryRef struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
}

// Endpoint is the source or destination of a pull request.
type Endpoint struct {
	Branch     Branch        `json:"branch"`
	Commit     CommitRef     `json:"commit"`
	Repository RepositoryRef `json:"repository"`
}

// Participant is a user involved in a pull request.
type Participant struct {
	User     User   `json:"user"`
	Role     string `json:"role"` // "PARTICIPANT" or "REVIEWER"
	Approved bool   `json:"approved"`
	State    string `json:"state"` // "approved", "changes_requested" or empty
}

// PullRequest is a Bitbucket pull request.
type PullRequest struct {
	ID                int           `json:"id"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	State             PRState       `json:"state"`
	Source            Endpoint      `json:"source"`
	Destination       Endpoint      `json:"destination"`
	Author            User          `json:"author"`
	CreatedOn         time.Time     `json:"created_on"`
	UpdatedOn         time.Time     `json:"updated_on"`
	CloseSourceBranch bool          `json:"close_source_branch"`
	CommentCount      int           `json:"comment_count"`
	TaskCount         int           `json:"task_count"`
	Reviewers         []User        `json:"reviewers"`
	Participants      []Participant `json:"participants"`
	Links             Links         `json:"links"`
}

// Approvers returns the participants that approved the pull request.
func (pr *PullRequest) Approvers() []User {
	var users []User
	for _, p := range pr.Participants {
		if p.Approved {
			users = append(users, p.User)
		}
	}
	return users
}

// BuildStatus is a commit build status attached to a pull request.
type BuildStatus struct {
	State       string    `json:"state"` // "SUCCESSFUL", "FAILED", "INPROGRESS", "STOPPED"
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// Failed reports whether the status represents a failing build.
func (s BuildStatus) Failed() bool {
	return strings.Contains(strings.ToUpper(s.State), "FAIL")
}

// Inline locates a comment in the diff.
type Inline struct {
	Path string `json:"path"`
	From *int   `json:"from"`
	To   *int   `json:"to"`
}

// Line returns the line the comment is anchored to, preferring the new side.
func (i *Inline) Line() (int, bool) {
	if i == nil {
		return 0, false
	}
	if i.To != nil {
		return *i.To, true
	}
	if i.From != nil {
		return *i.From, true
	}
	return 0, false
}

// Content is rendered text with its markup source.
type Content struct {
	Raw    string `json:"raw"`
	Markup string `json:"markup,omitempty"`
	HTML   string `json:"html,omitempty"`
}

// Comment is a pull request comment.
type Comment struct {
	ID        int       `json:"id"`
	User      User      `json:"user"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
	Inline    *Inline   `json:"inline,omitempty"`
	Deleted   bool      `json:"deleted"`
	Content   Content   `json:"content"`
}

// CommitAuthor is the author recorded in a commit.
type CommitAuthor struct {
	Raw  string `json:"raw"`
	User *User  `json:"user,omitempty"`
}

// Name returns the linked account name or the raw author string.
func (a CommitAuthor) Name() string {
	if a.User != nil {
		return a.User.Name()
	}
	return a.Raw
}

// Commit is a commit on a pull request.
type Commit struct {
	Hash    string       `json:"hash"`
	Author  CommitAuthor `json:"author"`
	Date    time.Time    `json:"date"`
	Message string       `json:"message"`
}

// Project groups repositories within a workspace.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Repository is a Bitbucket repository.
type Repository struct {
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Owner       User    `json:"owner"`
	Project     Project `json:"project"`
	IsPrivate   bool    `json:"is_private"`
	MainBranch  *Branch `json:"mainbranch,omitempty"`
	Links       Links   `json:"links"`
}

// Page is one page of a paginated collection.
type Page[T any] struct {
	Values  []T    `json:"values"`
	Page    int    `json:"page"`
	PageLen int    `json:"pagelen"`
	Size    int    `json:"size"`
	Next    string `json:"next,omitempty"`
}

// ListOptions filters collection requests.
type ListOptions struct {
	State PRState // Empty means the API default (OPEN)
	Limit int     // Sent as pagelen when positive
}

// CreatePullRequestOptions holds the fields of a new pull request.
type CreatePullRequestOptions struct {
	Title             string
	Description       string
	SourceBranch      string
	DestinationBranch string // Empty means the repository main branch
	Reviewers         []string
	CloseSourceBranch bool
}

// MergeOptions holds optional merge parameters.
type MergeOptions struct {
	Strategy string // "merge_commit", "squash", "fast_forward"; empty uses the repo default
	Message  string
}

// empty reports whether the merge request needs no body.
func (o MergeOptions) empty() bool {
	return o.Strategy == "" && o.Message == ""
}

// createPullRequestBody is the POST payload for a new pull request.
type createPullRequestBody struct {
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	Source            endpointBody   `json:"source"`
	Destination       *endpointBody  `json:"destination,omitempty"`
	Reviewers         []reviewerBody `json:"reviewers,omitempty"`
	CloseSourceBranch bool           `json:"close_source_branch"`
}

type endpointBody struct {
	Branch Branch `json:"branch"`
}

type reviewerBody struct {
	UUID     string `json:"uuid,omitempty"`
	Username string `json:"username,omitempty"`
}

type mergeBody struct {
	MergeStrategy string `json:"merge_strategy,omitempty"`
	Message       string `json:"message,omitempty"`
}

// newReviewer maps a reviewer identifier to the form the API expects:
// "{...}" values are account UUIDs, anything else is a username.
func newReviewer(id string) reviewerBody {
	if strings.HasPrefix(id, "{") {
		return reviewerBody{UUID: id}
	}
	return reviewerBody{Username: id}
}
