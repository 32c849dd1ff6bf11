// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pattern

import (
	"fmt"
	"strings"

	"github.com/jeranaias/askai/internal/model"
)

// =============================================================================
// OUTPUT TYPES AND ACTIONS
// =============================================================================

// OutputType classifies the content the model is expected to produce for an
// output. The closed set drives both the format-instruction type hints and
// the regex extraction heuristics.
type OutputType string

const (
	TypeText     OutputType = "text"
	TypeMarkdown OutputType = "markdown"
	TypeHTML     OutputType = "html"
	TypeCode     OutputType = "code"
	TypeCommand  OutputType = "command"
	TypeJSON     OutputType = "json"
	TypeList     OutputType = "list"
	TypeTable    OutputType = "table"
)

// ParseOutputType normalizes an output type name. Empty defaults to text.
func ParseOutputType(s string) (OutputType, error) {
	switch OutputType(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return TypeText, nil
	case TypeText, TypeMarkdown, TypeHTML, TypeCode, TypeCommand, TypeJSON, TypeList, TypeTable:
		return OutputType(strings.ToLower(strings.TrimSpace(s))), nil
	default:
		return "", fmt.Errorf("unknown output type %q", s)
	}
}

// OutputAction says what the dispatcher does with an output's content.
type OutputAction string

const (
	ActionWrite   OutputAction = "write"
	ActionDisplay OutputAction = "display"
	ActionExecute OutputAction = "execute"
)

// ParseOutputAction normalizes an action name. Empty defaults to display.
func ParseOutputAction(s string) (OutputAction, error) {
	switch OutputAction(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ActionDisplay, nil
	case ActionWrite, ActionDisplay, ActionExecute:
		return OutputAction(strings.ToLower(strings.TrimSpace(s))), nil
	default:
		return "", fmt.Errorf("unknown output action %q", s)
	}
}

// Output declares one expected field in the model's response.
type Output struct {
	// Name is the lookup key in structured data and the anchor for regex
	// extraction. Must be unique within the pattern.
	Name string `yaml:"name"`
	// Type is one of the OutputType constants
	Type OutputType `yaml:"type"`
	// Action is write, display, or execute
	Action OutputAction `yaml:"action"`
	// WriteToFile is the target filename, required when Action is write
	WriteToFile string `yaml:"write_to_file"`
	// Description is surfaced to the model in the format instructions
	Description string `yaml:"description"`
	// Required marks the output as mandatory in the format instructions
	Required bool `yaml:"required"`
	// Schema is optional free-form validation metadata shown to the model
	Schema map[string]any `yaml:"schema"`
}

// =============================================================================
// INPUT TYPES
// =============================================================================

// InputType classifies a declared pattern input. File and URL inputs are
// pulled out of the structured input bag and turned into multimodal
// messages during assembly.
type InputType string

const (
	InputValue     InputType = "value"
	InputImageFile InputType = "image_file"
	InputPDFFile   InputType = "pdf_file"
	InputImageURL  InputType = "image_url"
	InputPDFURL    InputType = "pdf_url"
)

// ParseInputType normalizes an input type name. Empty defaults to value.
func ParseInputType(s string) (InputType, error) {
	switch InputType(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return InputValue, nil
	case InputValue, InputImageFile, InputPDFFile, InputImageURL, InputPDFURL:
		return InputType(strings.ToLower(strings.TrimSpace(s))), nil
	default:
		return "", fmt.Errorf("unknown input type %q", s)
	}
}

// Input declares one expected user-supplied value for a pattern.
type Input struct {
	Name        string    `yaml:"name"`
	Type        InputType `yaml:"type"`
	Description string    `yaml:"description"`
	Required    bool      `yaml:"required"`
	Default     string    `yaml:"default"`
}

// =============================================================================
// MODEL OVERRIDE
// =============================================================================

// ModelOverride is a pattern's pinned model configuration. All fields are
// optional; set fields override the config-file layer when the pattern is
// active.
type ModelOverride struct {
	Name          string   `yaml:"name"`
	Temperature   *float64 `yaml:"temperature"`
	MaxTokens     *int     `yaml:"max_tokens"`
	StopSequences []string `yaml:"stop_sequences"`
	WebSearch     *bool    `yaml:"web_search"`
}

// Overrides converts the pattern override into a configuration layer.
// Returns nil when the override carries no generation parameters.
func (m *ModelOverride) Overrides() *model.Overrides {
	if m == nil {
		return nil
	}
	o := &model.Overrides{
		Temperature:   m.Temperature,
		MaxTokens:     m.MaxTokens,
		StopSequences: m.StopSequences,
	}
	if m.WebSearch != nil {
		o.WebSearch = &model.WebSearchOptions{Enabled: *m.WebSearch}
	}
	if o.Temperature == nil && o.MaxTokens == nil && o.StopSequences == nil && o.WebSearch == nil {
		return nil
	}
	return o
}

// =============================================================================
// PATTERN
// =============================================================================

// Pattern is a named, reusable prompt template with declared inputs and
// expected outputs.
type Pattern struct {
	// ID is the pattern file's base name without extension, set on load.
	ID string `yaml:"-"`

	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Features    []string `yaml:"features"`
	// Prompt is the system message content installed when the pattern is used
	Prompt  string   `yaml:"prompt"`
	Inputs  []Input  `yaml:"inputs"`
	Outputs []Output `yaml:"outputs"`
	// Model pins a model configuration that outranks the config file
	Model *ModelOverride `yaml:"model"`
	// FormatInstructions replaces the generated output format template
	FormatInstructions string `yaml:"format_instructions"`
	// MaxContextLength caps replayed chat context when the pattern is used
	MaxContextLength int `yaml:"max_context_length"`
}

// Validate checks structural invariants: non-empty unique output names,
// write targets present on write outputs, and known type/action tags.
func (p *Pattern) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pattern %q: name is required", p.ID)
	}
	if strings.TrimSpace(p.Prompt) == "" {
		return fmt.Errorf("pattern %q: prompt is required", p.ID)
	}

	seen := make(map[string]bool, len(p.Outputs))
	for i := range p.Outputs {
		out := &p.Outputs[i]
		if strings.TrimSpace(out.Name) == "" {
			return fmt.Errorf("pattern %q: output %d has no name", p.ID, i)
		}
		if seen[out.Name] {
			return fmt.Errorf("pattern %q: duplicate output name %q", p.ID, out.Name)
		}
		seen[out.Name] = true

		typ, err := ParseOutputType(string(out.Type))
		if err != nil {
			return fmt.Errorf("pattern %q: output %q: %w", p.ID, out.Name, err)
		}
		out.Type = typ

		action, err := ParseOutputAction(string(out.Action))
		if err != nil {
			return fmt.Errorf("pattern %q: output %q: %w", p.ID, out.Name, err)
		}
		out.Action = action

		if out.Action == ActionWrite && strings.TrimSpace(out.WriteToFile) == "" {
			return fmt.Errorf("pattern %q: output %q: write action requires write_to_file", p.ID, out.Name)
		}
	}

	seenInputs := make(map[string]bool, len(p.Inputs))
	for i := range p.Inputs {
		in := &p.Inputs[i]
		if strings.TrimSpace(in.Name) == "" {
			return fmt.Errorf("pattern %q: input %d has no name", p.ID, i)
		}
		if seenInputs[in.Name] {
			return fmt.Errorf("pattern %q: duplicate input name %q", p.ID, in.Name)
		}
		seenInputs[in.Name] = true

		typ, err := ParseInputType(string(in.Type))
		if err != nil {
			return fmt.Errorf("pattern %q: input %q: %w", p.ID, in.Name, err)
		}
		in.Type = typ
	}

	return nil
}

// InputByName returns the declared input with the given name, or nil.
func (p *Pattern) InputByName(name string) *Input {
	for i := range p.Inputs {
		if p.Inputs[i].Name == name {
			return &p.Inputs[i]
		}
	}
	return nil
}
