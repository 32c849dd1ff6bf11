// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Centralized styling for all askai CLI commands.
//
// USABILITY: TTY detection for proper terminal handling
//
// Color handling:
// - Colors are automatically disabled for non-TTY output (piped, redirected)
// - Respects NO_COLOR environment variable (https://no-color.org/)
// - Supports FORCE_COLOR environment variable to override detection
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// init configures lipgloss color profile based on terminal capabilities.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// SectionStyle is used for section headers within commands
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")) // White

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(22)

	// ValueStyle is used for regular values and text
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Off-white

	// SuccessStyle is used for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true)

	// ErrorStyle is used for error messages and failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// WarningStyle is used for warnings and cautions
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Yellow/Orange

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray

	// SeparatorStyle is used for visual separators
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // Dark gray

	// NoticeStyle is the [+] prefix on progress notices
	NoticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // Cyan

	// CommandStyle marks commands queued for execution
	CommandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // Yellow/Orange
			Bold(true)
)

// =============================================================================
// NOTICE HELPERS
// =============================================================================
// Progress notices go to stderr so response content on stdout stays clean
// for piping.

// Notice prints a [+] progress line to stderr unless quiet.
func Notice(args Args, format string, a ...any) {
	if args.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", NoticeStyle.Render("[+]"), fmt.Sprintf(format, a...))
}

// Warn prints a [!] warning line to stderr unless quiet.
func Warn(args Args, format string, a ...any) {
	if args.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle.Render("[!]"), fmt.Sprintf(format, a...))
}

// Debug prints a verbose-only line to stderr.
func Debug(args Args, format string, a ...any) {
	if !args.Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", DimStyle.Render("[debug]"), fmt.Sprintf(format, a...))
}

// RenderSeparator renders a horizontal separator line of the specified width.
// Default width is 70 characters if not specified.
func RenderSeparator(width ...int) string {
	w := 70
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("─", w))
}

// RenderLabel renders a label with consistent width.
func RenderLabel(label string, width ...int) string {
	if len(width) > 0 && width[0] > 0 {
		return LabelStyle.Copy().Width(width[0]).Render(label)
	}
	return LabelStyle.Render(label)
}

// RenderConditional renders text with style if colors are enabled,
// otherwise returns the text unmodified.
func RenderConditional(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}
