// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPattern() *Pattern {
	return &Pattern{
		ID:          "summarize",
		Name:        "Summarize",
		Description: "Summarize input text",
		Prompt:      "You are a summarizer.",
		Outputs: []Output{
			{Name: "summary", Type: TypeMarkdown, Action: ActionDisplay},
			{Name: "report", Type: TypeText, Action: ActionWrite, WriteToFile: "report.txt"},
		},
	}
}

func TestPatternValidate(t *testing.T) {
	t.Run("valid pattern passes", func(t *testing.T) {
		assert.NoError(t, validPattern().Validate())
	})

	t.Run("empty output name rejected", func(t *testing.T) {
		p := validPattern()
		p.Outputs[0].Name = ""
		assert.Error(t, p.Validate())
	})

	t.Run("duplicate output names rejected", func(t *testing.T) {
		p := validPattern()
		p.Outputs[1].Name = "summary"
		assert.Error(t, p.Validate())
	})

	t.Run("write action requires write_to_file", func(t *testing.T) {
		p := validPattern()
		p.Outputs[1].WriteToFile = ""
		assert.Error(t, p.Validate())
	})

	t.Run("unknown action rejected", func(t *testing.T) {
		p := validPattern()
		p.Outputs[0].Action = "upload"
		assert.Error(t, p.Validate())
	})

	t.Run("empty tags default to text and display", func(t *testing.T) {
		p := validPattern()
		p.Outputs[0].Type = ""
		p.Outputs[0].Action = ""
		require.NoError(t, p.Validate())
		assert.Equal(t, TypeText, p.Outputs[0].Type)
		assert.Equal(t, ActionDisplay, p.Outputs[0].Action)
	})
}

func TestFormatTemplate(t *testing.T) {
	t.Run("empty outputs yield empty string", func(t *testing.T) {
		assert.Equal(t, "", FormatTemplate(nil))
	})

	t.Run("contains output names and results envelope", func(t *testing.T) {
		tpl := FormatTemplate([]Output{
			{Name: "title", Type: TypeText, Description: "Document title"},
			{Name: "data", Type: TypeJSON},
		})
		assert.Contains(t, tpl, `"results"`)
		assert.Contains(t, tpl, `"title"`)
		assert.Contains(t, tpl, "// Document title")
		assert.Contains(t, tpl, `"data": { ... }`)
	})

	t.Run("type hints per output type", func(t *testing.T) {
		tests := []struct {
			typ  OutputType
			hint string
		}{
			{TypeJSON, "{ ... }"},
			{TypeList, "[ ... ]"},
			{TypeTable, "[ ... ]"},
			{TypeMarkdown, `"markdown string"`},
			{TypeCommand, `"command string"`},
		}
		for _, tt := range tests {
			tpl := FormatTemplate([]Output{{Name: "x", Type: tt.typ}})
			assert.Contains(t, tpl, tt.hint, "type %s", tt.typ)
		}
	})

	t.Run("field requirements section", func(t *testing.T) {
		tpl := FormatTemplate([]Output{
			{Name: "payload", Type: TypeJSON},
			{Name: "cmd", Type: TypeCommand},
		})
		assert.Contains(t, tpl, "Field requirements:")
		assert.Contains(t, tpl, "payload: A valid JSON object/array (not a string)")
		assert.Contains(t, tpl, "cmd: Plain command text without backticks")
	})
}

func TestMinimalSpec(t *testing.T) {
	assert.Equal(t, "", MinimalSpec(nil))

	spec := MinimalSpec([]Output{{Name: "summary", Type: TypeText, Required: true}})
	assert.Contains(t, spec, "Required output format:")
	assert.Contains(t, spec, `"summary"`)
	assert.Contains(t, spec, `"required": true`)
}

func writePatternFile(t *testing.T, dir, id, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".yaml"), []byte(content), 0644))
}

const samplePatternYAML = `
name: Web Page
description: Generate a web page
features:
  - HTML output
  - CSS output
prompt: |
  You are a web page generator.
inputs:
  - name: topic
    type: value
    required: true
  - name: image_url
    type: image_url
outputs:
  - name: html
    type: html
    action: write
    write_to_file: index.html
  - name: css
    type: code
    action: write
    write_to_file: style.css
  - name: notes
    type: markdown
    action: display
model:
  name: openai/gpt-4o
  temperature: 0.3
`

func TestRepository_GetAndList(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "webpage", samplePatternYAML)
	writePatternFile(t, dir, "broken", "name: [unclosed")

	repo, err := NewRepository(dir)
	require.NoError(t, err)
	defer repo.Close()

	p, err := repo.Get("webpage")
	require.NoError(t, err)
	assert.Equal(t, "webpage", p.ID)
	assert.Equal(t, "Web Page", p.Name)
	assert.Len(t, p.Outputs, 3)
	assert.Equal(t, ActionWrite, p.Outputs[0].Action)
	assert.Equal(t, "index.html", p.Outputs[0].WriteToFile)
	require.NotNil(t, p.Model)
	assert.Equal(t, "openai/gpt-4o", p.Model.Name)
	require.NotNil(t, p.Model.Temperature)
	assert.Equal(t, 0.3, *p.Model.Temperature)

	// Broken file is skipped, not fatal.
	patterns, err := repo.List()
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "webpage", patterns[0].ID)

	_, err = repo.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ProcessInputs(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "webpage", samplePatternYAML)

	repo, err := NewRepository(dir)
	require.NoError(t, err)
	defer repo.Close()

	t.Run("required input enforced", func(t *testing.T) {
		_, err := repo.ProcessInputs("webpage", map[string]string{})
		assert.ErrorIs(t, err, ErrMissingInput)
	})

	t.Run("valid inputs pass and undeclared keys dropped", func(t *testing.T) {
		got, err := repo.ProcessInputs("webpage", map[string]string{
			"topic":     "gardening",
			"image_url": "https://example.com/a.png",
			"stray":     "dropped",
		})
		require.NoError(t, err)
		assert.Equal(t, "gardening", got["topic"])
		assert.Equal(t, "https://example.com/a.png", got["image_url"])
		_, ok := got["stray"]
		assert.False(t, ok)
	})
}

func TestModelOverride_Overrides(t *testing.T) {
	var none *ModelOverride
	assert.Nil(t, none.Overrides())

	nameOnly := &ModelOverride{Name: "openai/gpt-4o"}
	assert.Nil(t, nameOnly.Overrides())

	temp := 0.2
	withTemp := &ModelOverride{Temperature: &temp}
	o := withTemp.Overrides()
	require.NotNil(t, o)
	assert.Equal(t, 0.2, *o.Temperature)
}
