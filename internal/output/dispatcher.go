// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"log"
	"path/filepath"

	"github.com/jeranaias/askai/internal/pattern"
)

// Display is a resolved output destined for the terminal.
type Display struct {
	Name    string
	Type    pattern.OutputType
	Content string
}

// Command is a resolved output queued for execution.
//
// SECURITY: Commands are returned to the caller instead of run here so
// they only execute after the user has seen the response they came from.
type Command struct {
	Name    string
	Content string
}

// Result is everything one dispatch produced.
type Result struct {
	CreatedFiles []string
	Displays     []Display
	Commands     []Command
}

// Dispatcher resolves declared pattern outputs against a response and
// performs their actions in declaration order.
type Dispatcher struct {
	dirs   DirectoryResolver
	writer FileWriter
}

// NewDispatcher creates a dispatcher with the given collaborators.
func NewDispatcher(dirs DirectoryResolver, writer FileWriter) *Dispatcher {
	return &Dispatcher{dirs: dirs, writer: writer}
}

// HandleOutputs dispatches each declared output. It never fails: every
// internal error degrades to skipping the affected output so siblings
// still dispatch, and the partial result is returned.
func (d *Dispatcher) HandleOutputs(response string, outputs []pattern.Output) Result {
	var result Result
	if len(outputs) == 0 {
		return result
	}

	// The output directory is only resolved when a write output exists,
	// and without one no file is ever created anywhere else.
	outputDir := ""
	if hasWriteOutput(outputs) {
		dir, err := d.dirs.OutputDirectory()
		if err != nil {
			log.Printf("warning: no output directory available for file outputs: %v", err)
			return result
		}
		outputDir = dir
	}

	contents := d.resolveContents(response, outputs)

	for _, out := range outputs {
		content, ok := contents[out.Name]
		if !ok {
			continue
		}

		switch out.Action {
		case pattern.ActionWrite:
			path := filepath.Join(outputDir, out.WriteToFile)
			abs, err := filepath.Abs(path)
			if err != nil {
				log.Printf("warning: failed to resolve path for output %q: %v", out.Name, err)
				continue
			}
			if err := d.writer.WriteByExtension(content, abs); err != nil {
				log.Printf("warning: failed to write output %q: %v", out.Name, err)
				continue
			}
			result.CreatedFiles = append(result.CreatedFiles, abs)

		case pattern.ActionDisplay:
			result.Displays = append(result.Displays, Display{
				Name: out.Name, Type: out.Type, Content: content,
			})

		case pattern.ActionExecute:
			result.Commands = append(result.Commands, Command{
				Name: out.Name, Content: content,
			})
		}
	}

	return result
}

// resolveContents maps output names to content via the two-tier lookup:
// structured data first, regex fallback second. Outputs with no content
// anywhere are omitted.
func (d *Dispatcher) resolveContents(response string, outputs []pattern.Output) map[string]string {
	structured := ExtractStructuredData(response)

	contents := make(map[string]string, len(outputs))
	for _, out := range outputs {
		if value, ok := structured[out.Name]; ok {
			if content := FormatValue(value); content != "" {
				contents[out.Name] = content
				continue
			}
		}
		if content := ExtractContent(response, out); content != "" {
			contents[out.Name] = content
			continue
		}
		log.Printf("warning: no content found for output %q", out.Name)
	}
	return contents
}

func hasWriteOutput(outputs []pattern.Output) bool {
	for _, out := range outputs {
		if out.Action == pattern.ActionWrite {
			return true
		}
	}
	return false
}
