// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import "strings"

// Response format names accepted on the command line.
const (
	FormatRawText  = "rawtext"
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

const jsonInstruction = "\n\n⚠️⚠️⚠️ CRITICAL OUTPUT FORMAT INSTRUCTIONS ⚠️⚠️⚠️\n\n" +
	"Your response MUST be in valid JSON format only.\n\n" +
	"CRITICAL REQUIREMENTS:\n" +
	"1. Return ONLY valid JSON - nothing else\n" +
	"2. DO NOT wrap your response in code blocks or triple backticks\n" +
	"3. DO NOT include any explanation text before or after the JSON\n" +
	"4. The JSON must be properly formatted and valid\n" +
	"5. Structure your JSON response appropriately for the content\n\n" +
	"This is the most important instruction: DO NOT USE ```json or ``` around your response."

// USABILITY: Smaller models drift back to prose around the JSON unless the
// requirement is restated with an example.
const haikuEmphasis = "\n\n🚨 EXTRA EMPHASIS FOR CLAUDE-3-HAIKU 🚨\n" +
	"You are Claude-3-Haiku and you MUST follow format instructions precisely.\n" +
	"The user specifically requested JSON format. You MUST respond with ONLY JSON.\n" +
	"Start your response with { and end with }. NO OTHER TEXT ALLOWED.\n" +
	"Example valid response: {\"key\": \"value\"}\n" +
	"Example INVALID response: Here is the JSON: {\"key\": \"value\"}"

const markdownInstruction = "\n\nIMPORTANT: Format your response using Markdown syntax for better readability."

// FormatInstruction returns the system instruction for the requested
// response format, or "" when no instruction is needed (rawtext).
func FormatInstruction(responseFormat, modelName string) string {
	switch responseFormat {
	case FormatJSON:
		instruction := jsonInstruction
		if strings.Contains(strings.ToLower(modelName), "haiku") {
			instruction += haikuEmphasis
		}
		return instruction
	case FormatMarkdown:
		return markdownInstruction
	default:
		return ""
	}
}
