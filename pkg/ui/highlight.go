package ui

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/cockroachdb/errors"
)

// DefaultBackground keeps the theme's own background colour.
const DefaultBackground = "default"

// Highlighter syntax-highlights text for a 256-colour terminal.
type Highlighter struct {
	Theme      string // chroma style name; unknown names use the fallback style
	Background string // hex colour overriding the style background, or "default"
	Color      bool   // when false text is written verbatim
}

// Highlight writes source to w, highlighted as language.
func (h Highlighter) Highlight(w io.Writer, source, language string) error {
	if !h.Color {
		_, err := io.WriteString(w, source)
		return err
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return errors.Wrapf(err, "failed to tokenise %s", language)
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	if err := formatter.Format(w, h.style(), iterator); err != nil {
		return errors.Wrap(err, "failed to format highlighted output")
	}
	return nil
}

// Diff writes a unified diff.
func (h Highlighter) Diff(w io.Writer, diff string) error {
	return h.Highlight(w, diff, "diff")
}

// JSON pretty-prints data and writes it highlighted. Invalid JSON is
// written as-is.
func (h Highlighter) JSON(w io.Writer, data []byte) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, bytes.TrimSpace(data), "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(data)
	}
	pretty.WriteByte('\n')
	return h.Highlight(w, pretty.String(), "json")
}

func (h Highlighter) style() *chroma.Style {
	style := styles.Get(h.Theme)
	if h.Background == "" || h.Background == DefaultBackground {
		return style
	}

	builder := style.Builder()
	builder.Add(chroma.Background, "bg:"+h.Background)
	custom, err := builder.Build()
	if err != nil {
		return style
	}
	return custom
}
