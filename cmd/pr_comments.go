package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"thoreinstein.com/bb/pkg/bitbucket"
	"thoreinstein.com/bb/pkg/ui"
)

const bodyIndent = "    "

// prCommentsCmd prints the comments on a pull request.
var prCommentsCmd = &cobra.Command{
	Use:   "comments <id>",
	Short: "Show the comments on a pull request",
	Long: `Print every comment on a pull request with its author, file location for
inline comments, last update time and markdown body.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePRID(args[0])
		if err != nil {
			return err
		}

		deps, err := newPRDeps(cmd)
		if err != nil {
			return err
		}

		return runPRComments(cmd.Context(), id, deps)
	},
}

func init() {
	prCmd.AddCommand(prCommentsCmd)
}

func runPRComments(ctx context.Context, id int, d *commandDeps) error {
	repo, err := d.Repo.Repo(ctx)
	if err != nil {
		return err
	}

	comments, err := loading(func() ([]bitbucket.Comment, error) {
		return d.Client.ListComments(ctx, repo, id)
	})
	if err != nil {
		return err
	}

	if len(comments) == 0 {
		fmt.Fprintln(d.Out, "No comments.")
		return nil
	}

	for i := range comments {
		if err := printComment(d, &comments[i]); err != nil {
			return err
		}
	}
	return nil
}

func printComment(d *commandDeps, c *bitbucket.Comment) error {
	fmt.Fprintln(d.Out, commentHeader(c))

	body, err := ui.Markdown(c.Content.Raw, d.Color, bodyIndent)
	if err != nil {
		return err
	}
	if body != "" {
		fmt.Fprintln(d.Out, body)
	}
	fmt.Fprintln(d.Out)
	return nil
}

// commentHeader renders "author path:line updated (Deleted)".
func commentHeader(c *bitbucket.Comment) string {
	parts := []string{ui.Bold(c.User.Name())}

	if c.Inline != nil && c.Inline.Path != "" {
		location := c.Inline.Path
		if line, ok := c.Inline.Line(); ok {
			location = fmt.Sprintf("%s:%d", location, line)
		}
		parts = append(parts, location)
	}

	if since := ui.Since(c.UpdatedOn); since != "" {
		parts = append(parts, ui.Faint(since))
	}

	if c.Deleted {
		parts = append(parts, ui.Red("(Deleted)"))
	}

	return strings.Join(parts, " ")
}
