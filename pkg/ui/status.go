package ui

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Spinner is a running progress indicator. The zero value is a no-op.
type Spinner struct {
	s *spinner.Spinner
}

// Status starts a spinner with msg on f when f is a terminal.
// Callers must Stop it before writing their own output.
func Status(f *os.File, msg string) *Spinner {
	if f == nil || !isatty.IsTerminal(f.Fd()) {
		return &Spinner{}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " " + msg
	s.Start()
	return &Spinner{s: s}
}

// Stop halts the spinner and clears its line.
func (s *Spinner) Stop() {
	if s == nil || s.s == nil {
		return
	}
	s.s.Stop()
}
