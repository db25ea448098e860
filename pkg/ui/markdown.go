package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/cockroachdb/errors"
)

// DefaultWrap is the word-wrap width for rendered markdown.
const DefaultWrap = 100

// Markdown renders text as terminal markdown and indents every line.
// With colour off the plain "notty" style is used.
func Markdown(text string, color bool, indent string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(DefaultWrap)}
	if color {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", errors.Wrap(err, "failed to create markdown renderer")
	}

	out, err := renderer.Render(text)
	if err != nil {
		return "", errors.Wrap(err, "failed to render markdown")
	}

	return Indent(strings.Trim(out, "\n"), indent), nil
}
