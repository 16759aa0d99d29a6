package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows the line-mode status while a background task runs.
type Spinner struct {
	s       *spinner.Spinner
	running bool
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	return &Spinner{s: s}
}

// Update sets the message and starts the animation if needed.
func (s *Spinner) Update(msg string) {
	s.s.Lock()
	s.s.Suffix = " " + msg
	s.s.Unlock()
	if !s.running {
		s.s.Start()
		s.running = true
	}
}

// Stop clears the spinner line.
func (s *Spinner) Stop() {
	if !s.running {
		return
	}
	s.s.Stop()
	s.running = false
}
