// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection and handling for the askai CLI.
//
// USABILITY: TTY detection for proper terminal handling
//
// These utilities ensure proper behavior in different environments:
// - Interactive terminals (colors, spinner, markdown rendering)
// - Piped input (stdin becomes prompt context)
// - Piped output (no colors, raw response text)
// - CI environments (respects NO_COLOR)
package cli

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStderrTTY returns true if stderr is a terminal.
func IsStderrTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// =============================================================================
// PIPED INPUT
// =============================================================================

// MaxPipedInputSize caps how much piped stdin is read into the prompt.
// SECURITY: An unbounded pipe (yes | askai ...) must not exhaust memory.
const MaxPipedInputSize = 10 * 1024 * 1024

// ReadPipedInput reads stdin when it is a pipe or redirect, returning ""
// on a terminal. The result is trimmed; binary garbage is the user's
// problem, size is ours.
func ReadPipedInput() string {
	if IsTTY() {
		return ""
	}
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(os.Stdin, MaxPipedInputSize))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// =============================================================================
// TERMINAL WIDTH DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width used for wrapping
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the current terminal width.
// Returns DefaultTerminalWidth (80) if width cannot be determined.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
)

// ColorsEnabled returns true if colored output should be used.
// Respects NO_COLOR and TTY detection; FORCE_COLOR overrides both.
func ColorsEnabled() bool {
	colorsEnabledOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" {
			colorsEnabled = false
			return
		}
		if os.Getenv("FORCE_COLOR") != "" {
			colorsEnabled = true
			return
		}
		colorsEnabled = IsStdoutTTY()
	})
	return colorsEnabled
}

// GetColorProfile returns the appropriate termenv color profile.
// Returns Ascii (no colors) for non-TTY or when NO_COLOR is set.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
