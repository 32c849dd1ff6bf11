// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pattern

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatTemplate generates the output-format instruction block for a list of
// declared outputs. The model is told to return a JSON object with a
// top-level "results" field keyed by output name. Returns "" for an empty
// output list. Never fails; the caller falls back to MinimalSpec when it
// needs a format block and this one is empty.
func FormatTemplate(outputs []Output) string {
	if len(outputs) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("You MUST return your response as valid JSON in the following structure:\n")
	sb.WriteString("\n{\n  \"results\": {\n")

	fields := make([]string, 0, len(outputs))
	for _, out := range outputs {
		line := fmt.Sprintf("    %q: %s", out.Name, typeHint(out.Type))
		if out.Description != "" {
			line += "  // " + out.Description
		}
		fields = append(fields, line)
	}
	sb.WriteString(strings.Join(fields, ",\n"))
	sb.WriteString("\n  }\n}\n")

	sb.WriteString("\nField requirements:\n")
	for _, out := range outputs {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", out.Name, requirement(out.Type, out.Description)))
	}

	return sb.String()
}

// typeHint returns the JSON placeholder shown for an output type.
func typeHint(t OutputType) string {
	switch t {
	case TypeJSON:
		return "{ ... }"
	case TypeMarkdown:
		return `"markdown string"`
	case TypeText:
		return `"plain text string"`
	case TypeHTML:
		return `"HTML string"`
	case TypeCode:
		return `"code string"`
	case TypeCommand:
		return `"command string"`
	case TypeList, TypeTable:
		return "[ ... ]"
	default:
		return `"string"`
	}
}

// requirement returns the per-field requirement bullet for an output type.
func requirement(t OutputType, description string) string {
	switch t {
	case TypeJSON:
		return "A valid JSON object/array (not a string)"
	case TypeMarkdown:
		return "Markdown formatted text with proper headings, lists, and formatting"
	case TypeCommand:
		return "Plain command text without backticks, quotes, or markdown formatting"
	case TypeCode:
		return "Plain code without markdown code block wrappers"
	case TypeHTML:
		return "Valid HTML without markdown code block wrappers"
	default:
		if description != "" {
			return description
		}
		return "Plain text content"
	}
}

// MinimalSpec is the fallback format block used when FormatTemplate yields
// nothing: a pretty-printed JSON description of each output's metadata.
func MinimalSpec(outputs []Output) string {
	if len(outputs) == 0 {
		return ""
	}

	spec := make(map[string]map[string]any, len(outputs))
	for _, out := range outputs {
		spec[out.Name] = map[string]any{
			"description": out.Description,
			"type":        string(out.Type),
			"required":    out.Required,
			"schema":      out.Schema,
		}
	}

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return ""
	}
	return "Required output format:\n" + string(data)
}
