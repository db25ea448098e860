// Package ui renders bb output for the terminal: tables, highlighted diffs
// and JSON, markdown, colours and relative times.
package ui

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Colour modes accepted by display.color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// maxTitleLen is the display width of a pull request title.
const maxTitleLen = 32

var titleCaser = cases.Title(language.English)

// ColorEnabled resolves a colour mode against f. Auto enables colour only
// on a terminal and honours NO_COLOR.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return f != nil && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// SetColor switches colour output on or off for every renderer in the package.
func SetColor(enabled bool) {
	color.NoColor = !enabled
	if enabled {
		lipgloss.SetColorProfile(termenv.ANSI256)
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// TruncateTitle shortens titles longer than 32 characters to 29 plus "...".
func TruncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}
	return string(runes[:maxTitleLen-3]) + "..."
}

// Since renders t relative to now, e.g. "3 hours ago".
func Since(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// TitleState title-cases an API state: "MERGED" becomes "Merged" and
// "changes_requested" becomes "Changes Requested".
func TitleState(s string) string {
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(s), "_", " "))
}

// Red renders s in red when colour is enabled.
func Red(s string) string {
	return color.RedString("%s", s)
}

// Green renders s in green when colour is enabled.
func Green(s string) string {
	return color.GreenString("%s", s)
}

// Bold renders s in bold when colour is enabled.
func Bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}

// Faint renders s dimmed when colour is enabled.
func Faint(s string) string {
	return color.New(color.Faint).Sprint(s)
}

// Indent prefixes every non-empty line of s with prefix.
func Indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
