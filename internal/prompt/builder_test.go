// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/askai/internal/model"
	"github.com/jeranaias/askai/internal/pattern"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeRepository struct {
	patterns  map[string]*pattern.Pattern
	selected  string
	selectErr error
}

func (f *fakeRepository) Get(id string) (*pattern.Pattern, error) {
	p, ok := f.patterns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", pattern.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeRepository) Select() (string, error) {
	if f.selectErr != nil {
		return "", f.selectErr
	}
	return f.selected, nil
}

func (f *fakeRepository) ProcessInputs(id string, values map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out, nil
}

type fakeFetcher struct {
	content string
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	return f.content, f.err
}

func lastMessage(t *testing.T, messages []model.Message) model.Message {
	t.Helper()
	if len(messages) == 0 {
		t.Fatal("no messages built")
	}
	return messages[len(messages)-1]
}

// =============================================================================
// QUESTION HANDLING
// =============================================================================

func TestBuild_QuestionOnly(t *testing.T) {
	b := NewBuilder(&fakeRepository{}, nil)

	messages, id, err := b.Build(context.Background(), BuildRequest{Question: "why is the sky blue"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if id != "" {
		t.Errorf("resolved pattern id = %q, want empty", id)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if messages[0].Role != model.RoleUser || messages[0].Text() != "why is the sky blue" {
		t.Errorf("unexpected message: %+v", messages[0])
	}
}

func TestBuild_PipedInputLeadsContext(t *testing.T) {
	b := NewBuilder(&fakeRepository{}, nil)

	messages, _, err := b.Build(context.Background(), BuildRequest{
		Question:   "what went wrong",
		PipedInput: "panic: nil dereference",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Role != model.RoleSystem ||
		!strings.HasPrefix(messages[0].Text(), "Previous terminal output:\n") {
		t.Errorf("piped input not first: %+v", messages[0])
	}
	if lastMessage(t, messages).Text() != "what went wrong" {
		t.Errorf("question not last: %+v", messages)
	}
}

// =============================================================================
// URL HANDLING
// =============================================================================

func TestBuild_URLSuccessDefaultsQuestion(t *testing.T) {
	b := NewBuilder(&fakeRepository{}, &fakeFetcher{content: "page body"})

	messages, _, err := b.Build(context.Background(), BuildRequest{URL: "https://example.com/a"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if !strings.Contains(messages[0].Text(), "The content from URL https://example.com/a:") {
		t.Errorf("content message missing: %q", messages[0].Text())
	}
	if lastMessage(t, messages).Text() != defaultURLQuestion {
		t.Errorf("question = %q", lastMessage(t, messages).Text())
	}
}

func TestBuild_URLFailureRewritesQuestion(t *testing.T) {
	fetchErr := errors.New("connection refused")

	tests := []struct {
		name     string
		question string
		want     []string
	}{
		{
			name: "no question",
			want: []string{
				"Please analyze and summarize what you know about this URL: https://example.com/x",
				"connection refused",
			},
		},
		{
			name:     "with question",
			question: "is this site safe",
			want: []string{
				"Please analyze this URL: https://example.com/x",
				"connection refused",
				"Question: is this site safe",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(&fakeRepository{}, &fakeFetcher{err: fetchErr})

			messages, _, err := b.Build(context.Background(), BuildRequest{
				Question: tt.question,
				URL:      "https://example.com/x",
			})
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			// A failed fetch produces no content message, only the
			// rewritten question.
			if len(messages) != 1 {
				t.Fatalf("got %d messages, want 1", len(messages))
			}
			got := messages[0].Text()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("question %q missing %q", got, want)
				}
			}
		})
	}
}

// =============================================================================
// IMAGE AND PDF HANDLING
// =============================================================================

func TestBuild_ImageConsumesQuestion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, []byte("fakepng"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(&fakeRepository{}, nil)
	messages, _, err := b.Build(context.Background(), BuildRequest{
		Question: "what is in this photo",
		Image:    path,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1 (question must be consumed): %+v", len(messages), messages)
	}
	msg := messages[0]
	if !msg.IsMultimodal() || msg.Text() != "what is in this photo" {
		t.Errorf("unexpected image message: %+v", msg)
	}
	if !strings.Contains(msg.Parts[1].ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("image url = %q", msg.Parts[1].ImageURL.URL)
	}
}

func TestBuild_ImageEncodeFailureLeavesQuestionPending(t *testing.T) {
	b := NewBuilder(&fakeRepository{}, nil)

	messages, _, err := b.Build(context.Background(), BuildRequest{
		Question: "describe it",
		Image:    "/nonexistent/photo.jpg",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != model.RoleUser || messages[0].Text() != "describe it" {
		t.Errorf("question should survive encode failure: %+v", messages)
	}
}

func TestBuild_ImageURLAlwaysConsumesQuestion(t *testing.T) {
	b := NewBuilder(&fakeRepository{}, nil)

	messages, _, err := b.Build(context.Background(), BuildRequest{
		ImageURL: "https://example.com/cat.png",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	msg := messages[0]
	if msg.Text() != defaultImageQuestion {
		t.Errorf("default question missing: %q", msg.Text())
	}
	// Remote URLs pass through untouched.
	if msg.Parts[1].ImageURL.URL != "https://example.com/cat.png" {
		t.Errorf("image url = %q", msg.Parts[1].ImageURL.URL)
	}
}

func TestBuild_PDFEncodeFailureStillEmitsQuestion(t *testing.T) {
	b := NewBuilder(&fakeRepository{}, nil)

	messages, _, err := b.Build(context.Background(), BuildRequest{
		PDF: "/nonexistent/report.pdf",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	last := lastMessage(t, messages)
	if last.Role != model.RoleUser || last.Text() != defaultPDFQuestion {
		t.Errorf("expected defaulted question as final user message, got %+v", messages)
	}
}

func TestBuild_PDFWithDisclaimer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(&fakeRepository{}, nil)
	messages, _, err := b.Build(context.Background(), BuildRequest{PDF: path})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2: %+v", len(messages), messages)
	}
	if !messages[0].IsMultimodal() || messages[0].Text() != defaultPDFQuestion {
		t.Errorf("unexpected PDF message: %+v", messages[0])
	}
	if messages[0].Parts[1].File.Filename != "report.pdf" {
		t.Errorf("filename = %q", messages[0].Parts[1].File.Filename)
	}
	if messages[1].Role != model.RoleSystem || !strings.Contains(messages[1].Text(), "extracting the text manually") {
		t.Errorf("disclaimer missing: %+v", messages[1])
	}
}

func TestBuild_PDFWithoutExtensionTreatedAsText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("meeting notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(&fakeRepository{}, nil)
	messages, _, err := b.Build(context.Background(), BuildRequest{PDF: path})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2: %+v", len(messages), messages)
	}
	if !strings.Contains(messages[0].Text(), "The file content of notes.txt to work with:\nmeeting notes") {
		t.Errorf("file content message = %q", messages[0].Text())
	}
	if lastMessage(t, messages).Text() != defaultFileQuestion {
		t.Errorf("question = %q", lastMessage(t, messages).Text())
	}
}

func TestPDFURLFilename(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/docs/paper.pdf", "paper.pdf"},
		{"https://example.com/docs/PAPER.PDF", "PAPER.PDF"},
		{"https://example.com/download", "document.pdf"},
		{"https://example.com/", "document.pdf"},
	}
	for _, tt := range tests {
		if got := pdfURLFilename(tt.url); got != tt.want {
			t.Errorf("pdfURLFilename(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

// =============================================================================
// PATTERN CONTEXT
// =============================================================================

func TestBuild_PatternContext(t *testing.T) {
	repo := &fakeRepository{patterns: map[string]*pattern.Pattern{
		"summarize": {
			ID:     "summarize",
			Name:   "Summarize",
			Prompt: "You summarize documents.",
			Inputs: []pattern.Input{
				{Name: "topic", Type: pattern.InputValue},
				{Name: "image_url", Type: pattern.InputImageURL},
			},
			Outputs: []pattern.Output{
				{Name: "summary", Type: pattern.TypeMarkdown, Action: pattern.ActionDisplay},
			},
		},
	}}

	b := NewBuilder(repo, nil)
	messages, id, err := b.Build(context.Background(), BuildRequest{
		PatternID: "summarize",
		PatternInput: map[string]string{
			"topic":     "go routines",
			"image_url": "https://example.com/diagram.png",
		},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if id != "summarize" {
		t.Errorf("resolved id = %q", id)
	}

	if messages[0].Text() != "You summarize documents." {
		t.Errorf("pattern prompt not first: %+v", messages[0])
	}

	var sawImage, sawInputs, sawFormat bool
	for _, msg := range messages[1:] {
		switch {
		case msg.IsMultimodal():
			sawImage = true
			if msg.Parts[1].ImageURL.URL != "https://example.com/diagram.png" {
				t.Errorf("image url = %q", msg.Parts[1].ImageURL.URL)
			}
		case strings.HasPrefix(msg.Text(), "Available inputs:"):
			sawInputs = true
			if !strings.Contains(msg.Text(), "go routines") {
				t.Errorf("structured inputs missing topic: %q", msg.Text())
			}
			// Consumed special inputs must not be duplicated as JSON.
			if strings.Contains(msg.Text(), "diagram.png") {
				t.Errorf("image_url leaked into structured inputs: %q", msg.Text())
			}
		case strings.Contains(msg.Text(), "valid JSON in the following structure"):
			sawFormat = true
		}
	}
	if !sawImage || !sawInputs || !sawFormat {
		t.Errorf("missing messages (image=%v inputs=%v format=%v): %+v",
			sawImage, sawInputs, sawFormat, messages)
	}
}

func TestBuild_PatternCustomFormatInstructionsWin(t *testing.T) {
	repo := &fakeRepository{patterns: map[string]*pattern.Pattern{
		"custom": {
			ID:                 "custom",
			Name:               "Custom",
			Prompt:             "prompt",
			FormatInstructions: "Respond in pig latin.",
			Outputs: []pattern.Output{
				{Name: "out", Type: pattern.TypeText, Action: pattern.ActionDisplay},
			},
		},
	}}

	b := NewBuilder(repo, nil)
	messages, _, err := b.Build(context.Background(), BuildRequest{PatternID: "custom"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if lastMessage(t, messages).Text() != "Respond in pig latin." {
		t.Errorf("custom format instructions not used: %+v", messages)
	}
}

func TestBuild_PatternSelectionCancelled(t *testing.T) {
	repo := &fakeRepository{selectErr: pattern.ErrSelectionCancelled}

	b := NewBuilder(repo, nil)
	_, _, err := b.Build(context.Background(), BuildRequest{PatternID: SelectPattern})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}

func TestBuild_PatternNotFound(t *testing.T) {
	b := NewBuilder(&fakeRepository{}, nil)

	_, _, err := b.Build(context.Background(), BuildRequest{PatternID: "nope"})
	if !errors.Is(err, pattern.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBuild_NoFormatInstructionWithPattern(t *testing.T) {
	repo := &fakeRepository{patterns: map[string]*pattern.Pattern{
		"plain": {ID: "plain", Name: "Plain", Prompt: "prompt"},
	}}

	b := NewBuilder(repo, nil)
	messages, _, err := b.Build(context.Background(), BuildRequest{
		PatternID:      "plain",
		ResponseFormat: FormatJSON,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, msg := range messages {
		if strings.Contains(msg.Text(), "CRITICAL OUTPUT FORMAT") {
			t.Errorf("generic format instruction emitted despite pattern: %+v", messages)
		}
	}
}

// =============================================================================
// FORMAT INSTRUCTIONS
// =============================================================================

func TestFormatInstruction(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		model    string
		contains string
		empty    bool
	}{
		{name: "json", format: FormatJSON, model: "anthropic/claude-3.5-sonnet", contains: "CRITICAL OUTPUT FORMAT"},
		{name: "json haiku emphasis", format: FormatJSON, model: "anthropic/claude-3-haiku", contains: "EXTRA EMPHASIS"},
		{name: "markdown", format: FormatMarkdown, contains: "Markdown syntax"},
		{name: "rawtext", format: FormatRawText, empty: true},
		{name: "empty format", format: "", empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatInstruction(tt.format, tt.model)
			if tt.empty {
				if got != "" {
					t.Errorf("expected empty instruction, got %q", got)
				}
				return
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("instruction missing %q: %q", tt.contains, got)
			}
		})
	}
}

func TestFormatInstruction_NoHaikuEmphasisForOtherModels(t *testing.T) {
	got := FormatInstruction(FormatJSON, "openai/gpt-4o")
	if strings.Contains(got, "EXTRA EMPHASIS") {
		t.Error("haiku emphasis applied to non-haiku model")
	}
}

// =============================================================================
// INPUT FILES
// =============================================================================

func TestReadInputFile_SizeCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	// Sparse file over the cap without writing 100MB.
	if err := f.Truncate(MaxInputFileSize + 1); err != nil {
		f.Close()
		t.Skip("filesystem does not support sparse files")
	}
	f.Close()

	if _, err := ReadInputFile(path); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestEncodeFileBase64(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := EncodeFileBase64(path)
	if err != nil {
		t.Fatalf("EncodeFileBase64 failed: %v", err)
	}
	if got != "aGVsbG8=" {
		t.Errorf("got %q", got)
	}
}
