// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// spinner.go - stderr progress spinner for blocking API calls.
//
// USABILITY: visible progress during completions that can take a minute
package cli

import (
	"fmt"
	"os"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// Spinner animates on stderr while a blocking call runs. It is inert when
// stderr is not a terminal, quiet mode is on, or ASKAI_TESTING is set, so
// piped and scripted runs never see control sequences.
type Spinner struct {
	message string
	enabled bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(message string, args Args) *Spinner {
	return &Spinner{
		message: message,
		enabled: IsStderrTTY() && !args.Quiet && os.Getenv("ASKAI_TESTING") == "",
	}
}

// Start begins the animation. Calling Start on a disabled spinner is a
// no-op, so callers never need to branch.
func (s *Spinner) Start() {
	if !s.enabled {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		frame := 0
		for {
			select {
			case <-s.stop:
				// Erase the spinner line before handing the terminal back.
				fmt.Fprintf(os.Stderr, "\r%*s\r", len(s.message)+4, "")
				return
			case <-ticker.C:
				fmt.Fprintf(os.Stderr, "\r%s %s ", NoticeStyle.Render(spinnerFrames[frame]), s.message)
				frame = (frame + 1) % len(spinnerFrames)
			}
		}
	}()
}

// Stop halts the animation and waits for the line to be erased.
// CANCELLATION: waits for the goroutine so later output never interleaves
// with a half-drawn frame.
func (s *Spinner) Stop() {
	if !s.enabled || s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}
