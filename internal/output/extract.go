// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jeranaias/askai/internal/pattern"
)

// =============================================================================
// STRUCTURED DATA
// =============================================================================

var jsonFence = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n```")

// ExtractStructuredData parses machine-readable JSON out of a response.
// A response that is itself a JSON object is used directly; a top-level
// "results" object is unwrapped so output names resolve against its keys.
// As a fallback the first ```json fence is parsed. Returns nil when the
// response carries no parseable JSON.
func ExtractStructuredData(response string) map[string]any {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "{") {
		if data := parseObject(trimmed); data != nil {
			return data
		}
	}

	if m := jsonFence.FindStringSubmatch(trimmed); m != nil {
		if data := parseObject(strings.TrimSpace(m[1])); data != nil {
			return data
		}
	}

	return nil
}

func parseObject(text string) map[string]any {
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil
	}
	if results, ok := data["results"].(map[string]any); ok {
		return results
	}
	return data
}

// FormatValue renders a structured value as output content. Objects and
// arrays are pretty-printed JSON; everything else is stringified and
// trimmed.
func FormatValue(value any) string {
	switch value.(type) {
	case map[string]any, []any:
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return strings.TrimSpace(fmt.Sprint(value))
		}
		return string(data)
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

// =============================================================================
// REGEX FALLBACK
// =============================================================================

// patternsFor returns the ordered candidate regexes for an output name.
// The group is chosen by substring matches on the name; within a group the
// first pattern that matches wins and only its first match is used. The
// chains are deliberately literal: they compensate for a model that
// ignored the structured format, so ordering is pinned by tests rather
// than made smarter.
func patternsFor(name string) []string {
	quoted := regexp.QuoteMeta(name)
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "html") || strings.Contains(lower, "page"):
		return []string{
			fmt.Sprintf("(?is)%s:\\s*```html\\s*\\n(.*?)\\n```", quoted),
			fmt.Sprintf("(?is)%s:\\s*```\\s*\\n(<!DOCTYPE.*?</html>)\\s*\\n```", quoted),
			"(?is)```html\\s*\\n(.*?)\\n```",
			"(?is)(<!DOCTYPE html.*?</html>)",
		}
	case strings.Contains(lower, "css") || strings.Contains(lower, "style"):
		return []string{
			fmt.Sprintf("(?is)%s:\\s*```css\\s*\\n(.*?)\\n```", quoted),
			"(?is)```css\\s*\\n(.*?)\\n```",
		}
	case strings.Contains(lower, "js") || strings.Contains(lower, "javascript"):
		return []string{
			fmt.Sprintf("(?is)%s:\\s*```javascript\\s*\\n(.*?)\\n```", quoted),
			fmt.Sprintf("(?is)%s:\\s*```js\\s*\\n(.*?)\\n```", quoted),
			"(?is)```javascript\\s*\\n(.*?)\\n```",
			"(?is)```js\\s*\\n(.*?)\\n```",
		}
	case strings.Contains(lower, "json"):
		return []string{
			fmt.Sprintf("(?is)%s:\\s*```json\\s*\\n(.*?)\\n```", quoted),
			"(?is)```json\\s*\\n(.*?)\\n```",
		}
	default:
		return []string{
			fmt.Sprintf("(?is)%s:\\s*```\\w*\\s*\\n(.*?)\\n```", quoted),
			fmt.Sprintf("(?is)%s:\\s*(.+?)(?:\\n\\w+:|$)", quoted),
			fmt.Sprintf("(?is)## %s\\s*\\n(.*?)(?:\\n##|$)", quoted),
			fmt.Sprintf("(?is)\\*\\*%s\\*\\*:\\s*(.+?)(?:\\n|$)", quoted),
		}
	}
}

// ExtractContent applies the fallback regex chain for one output against
// the raw response text. Returns "" when no pattern matches.
func ExtractContent(text string, out pattern.Output) string {
	for _, expr := range patternsFor(out.Name) {
		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(text); m != nil {
			return CleanEscapedContent(strings.TrimSpace(m[1]))
		}
	}
	return ""
}

// escapedSequences rewrites literal backslash escapes that survive when a
// model embeds content inside a JSON string it then failed to close
// properly.
var escapedSequences = strings.NewReplacer(
	`\n`, "\n",
	`\t`, "\t",
	`\"`, `"`,
)

// CleanEscapedContent normalizes extracted content for writing/display.
func CleanEscapedContent(text string) string {
	if strings.Contains(text, `\n`) || strings.Contains(text, `\"`) || strings.Contains(text, `\t`) {
		text = escapedSequences.Replace(text)
	}
	return strings.TrimSpace(text)
}
