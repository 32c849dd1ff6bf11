// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Response and pattern-output rendering for the askai CLI.
//
// USABILITY: Markdown rendering and syntax highlighting on a TTY; raw
// text when stdout is piped so downstream tools get clean content.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/askai/internal/output"
	"github.com/jeranaias/askai/internal/pattern"
)

// markdownRenderer is the shared glamour renderer for markdown output.
var markdownRenderer *glamour.TermRenderer

func init() {
	width := GetTerminalWidth()
	if width > DefaultTerminalWidth {
		width = DefaultTerminalWidth
	}
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails.
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse prints the model response to stdout. Markdown is only
// rendered when stdout is a TTY, the configured response format is md,
// and rendering is enabled in config.
func displayResponse(response, format string, renderEnabled bool) {
	if IsStdoutTTY() && renderEnabled && (format == "" || format == "md") {
		fmt.Print(renderMarkdown(response))
		if !strings.HasSuffix(response, "\n") {
			fmt.Println()
		}
		return
	}
	fmt.Print(response)
	if !strings.HasSuffix(response, "\n") {
		fmt.Println()
	}
}

// highlight runs chroma over content. lang "" lets chroma analyse the
// content; failures fall back to the raw text.
func highlight(content, lang, theme string) string {
	if !ColorsEnabled() {
		return content
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		return content
	}

	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return content
	}

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}
	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return content
	}
	return sb.String()
}

// lexerFor maps an output type to a chroma lexer name. Empty means
// analyse the content.
func lexerFor(t pattern.OutputType) string {
	switch t {
	case pattern.TypeHTML:
		return "html"
	case pattern.TypeCommand:
		return "bash"
	case pattern.TypeJSON:
		return "json"
	default:
		return ""
	}
}

// displayOutputs prints DISPLAY pattern outputs, each under a styled
// header, with rendering appropriate to the declared type.
func displayOutputs(displays []output.Display, theme string) {
	for _, d := range displays {
		fmt.Println()
		fmt.Println(RenderConditional(SectionStyle, "── "+d.Name+" ──"))

		switch d.Type {
		case pattern.TypeMarkdown:
			if IsStdoutTTY() {
				fmt.Print(renderMarkdown(d.Content))
				continue
			}
			fmt.Println(d.Content)
		case pattern.TypeHTML, pattern.TypeCode, pattern.TypeCommand, pattern.TypeJSON:
			fmt.Println(highlight(d.Content, lexerFor(d.Type), theme))
		default:
			fmt.Println(d.Content)
		}
	}
}

// announceCommands echoes queued EXECUTE outputs before they run, so the
// user sees exactly what is about to execute.
// SECURITY: commands are shown after the full response has been displayed
// and are never run silently.
func announceCommands(commands []output.Command) {
	if len(commands) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "%s %d command(s) queued for execution\n",
		CommandStyle.Render("[EXEC]"), len(commands))
}
