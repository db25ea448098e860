package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"thoreinstein.com/bb/pkg/bitbucket"
	"thoreinstein.com/bb/pkg/ui"
)

// PRListOptions holds the flags shared by pr list and pr status.
type PRListOptions struct {
	State string
	Limit int
}

var (
	prListOptions   PRListOptions
	prStatusOptions PRListOptions
)

var prListHeaders = []string{"Id", "Title", "Branch", "Created", "Updated", "Author"}

// prListCmd lists pull requests.
var prListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pull requests",
	Long: `List pull requests for the repository.

Filters:
  --state: OPEN, MERGED, SUPERSEDED or DECLINED (default OPEN)
  --limit: page size requested from the API

Examples:
  bb pr list                   # List open PRs
  bb pr list --state DECLINED  # List declined PRs`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := newPRDeps(cmd)
		if err != nil {
			return err
		}
		return runPRList(cmd.Context(), prListOptions, deps)
	},
}

// prStatusCmd lists pull requests with build and approval status.
var prStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List pull requests with build and approval status",
	Long: `List pull requests like 'bb pr list', adding a Build column with the
state of every build status and an Approved column with the approvers.

Each row costs two extra requests, made one after another.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := newPRDeps(cmd)
		if err != nil {
			return err
		}
		return runPRStatus(cmd.Context(), prStatusOptions, deps)
	},
}

func init() {
	prCmd.AddCommand(prListCmd)
	prCmd.AddCommand(prStatusCmd)

	for _, c := range []struct {
		cmd  *cobra.Command
		opts *PRListOptions
	}{{prListCmd, &prListOptions}, {prStatusCmd, &prStatusOptions}} {
		c.cmd.Flags().StringVar(&c.opts.State, "state", string(bitbucket.StateOpen), "Filter by state (OPEN, MERGED, SUPERSEDED, DECLINED)")
		c.cmd.Flags().IntVar(&c.opts.Limit, "limit", 0, "Number of pull requests to request (default: API page size)")
	}
}

func runPRList(ctx context.Context, opts PRListOptions, d *commandDeps) error {
	prs, err := listPullRequests(ctx, opts, d)
	if err != nil {
		return err
	}

	if len(prs) == 0 {
		fmt.Fprintln(d.Out, "No pull requests found.")
		return nil
	}

	rows := make([][]string, 0, len(prs))
	for i := range prs {
		rows = append(rows, prRow(&prs[i]))
	}
	fmt.Fprintln(d.Out, ui.Table(prListHeaders, rows))
	return nil
}

func runPRStatus(ctx context.Context, opts PRListOptions, d *commandDeps) error {
	prs, err := listPullRequests(ctx, opts, d)
	if err != nil {
		return err
	}

	if len(prs) == 0 {
		fmt.Fprintln(d.Out, "No pull requests found.")
		return nil
	}

	headers := append(append([]string{}, prListHeaders...), "Build", "Approved")
	rows := make([][]string, 0, len(prs))

	// One request pair per row, sequentially.
	for i := range prs {
		pr := &prs[i]

		build, err := buildColumn(ctx, d.Client, pr)
		if err != nil {
			return err
		}
		approved, err := approvedColumn(ctx, d.Client, pr)
		if err != nil {
			return err
		}

		rows = append(rows, append(prRow(pr), build, approved))
	}

	fmt.Fprintln(d.Out, ui.Table(headers, rows))
	return nil
}

func listPullRequests(ctx context.Context, opts PRListOptions, d *commandDeps) ([]bitbucket.PullRequest, error) {
	var state bitbucket.PRState
	if opts.State != "" {
		var err error
		if state, err = bitbucket.ParsePRState(opts.State); err != nil {
			return nil, err
		}
	}

	repo, err := d.Repo.Repo(ctx)
	if err != nil {
		return nil, err
	}

	return loading(func() ([]bitbucket.PullRequest, error) {
		return d.Client.ListPullRequests(ctx, repo, bitbucket.ListOptions{State: state, Limit: opts.Limit})
	})
}

// prRow renders the common pull request columns.
func prRow(pr *bitbucket.PullRequest) []string {
	return []string{
		strconv.Itoa(pr.ID),
		ui.TruncateTitle(pr.Title),
		pr.Source.Branch.Name + "->" + pr.Destination.Branch.Name,
		ui.Since(pr.CreatedOn),
		ui.Since(pr.UpdatedOn),
		pr.Author.Name(),
	}
}

// buildColumn lists the state of every build status, failing ones in red.
func buildColumn(ctx context.Context, client bitbucket.Client, pr *bitbucket.PullRequest) (string, error) {
	if pr.Links.Statuses.Href == "" {
		return "", nil
	}

	statuses, err := client.ListStatuses(ctx, pr.Links.Statuses.Href)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if s.Failed() {
			parts = append(parts, ui.Red(s.State))
		} else {
			parts = append(parts, ui.Green(s.State))
		}
	}
	return strings.Join(parts, " "), nil
}

// approvedColumn lists the display names of approving participants.
func approvedColumn(ctx context.Context, client bitbucket.Client, pr *bitbucket.PullRequest) (string, error) {
	if pr.Links.Self.Href == "" {
		return "", nil
	}

	full, err := client.GetPullRequestByHref(ctx, pr.Links.Self.Href)
	if err != nil {
		return "", err
	}

	approvers := full.Approvers()
	names := make([]string, 0, len(approvers))
	for _, u := range approvers {
		names = append(names, ui.Green(u.Name()))
	}
	return strings.Join(names, ", "), nil
}
