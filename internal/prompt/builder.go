// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/jeranaias/askai/internal/model"
	"github.com/jeranaias/askai/internal/pattern"
)

// SelectPattern is the pattern id that triggers interactive selection.
const SelectPattern = "new"

// ErrCancelled indicates the user aborted the build, for example by
// cancelling interactive pattern selection. Callers exit quietly on it.
var ErrCancelled = errors.New("cancelled")

// Default questions used when a multimodal input arrives without one.
const (
	defaultImageQuestion = "Please analyze and describe this image in detail."
	defaultPDFQuestion   = "Please analyze and summarize the content of this PDF."
	defaultFileQuestion  = "Please analyze and summarize the content of this file."
	defaultURLQuestion   = "Please analyze and summarize the content from the provided URL"
)

const (
	pdfFileDisclaimer = "Note: If you're unable to access the PDF content directly, " +
		"please inform the user that the PDF could not be processed, " +
		"and ask them to try extracting the text manually."
	pdfURLDisclaimer = "Note: If you're unable to access the PDF content directly, " +
		"please inform the user that the PDF could not be processed, " +
		"and ask them to try using a different PDF URL or downloading the PDF first."
)

// BuildRequest carries every input source a single completion can draw on.
// All fields are optional except ResponseFormat, which defaults to rawtext
// when empty.
type BuildRequest struct {
	Question       string
	PipedInput     string
	FileInput      string
	PatternID      string
	PatternInput   map[string]string
	ResponseFormat string
	URL            string
	Image          string
	PDF            string
	ImageURL       string
	PDFURL         string
	ModelName      string
}

// Builder assembles message lists from build requests.
type Builder struct {
	patterns PatternRepository
	fetcher  URLFetcher
}

// NewBuilder creates a builder with the given collaborators. fetcher may be
// nil when URL inputs are never used.
func NewBuilder(patterns PatternRepository, fetcher URLFetcher) *Builder {
	return &Builder{patterns: patterns, fetcher: fetcher}
}

// Build assembles the message list for one completion request. It returns
// the messages and the resolved pattern id ("" when no pattern was used).
// The steps run in a fixed order; earlier steps may consume or rewrite the
// pending question, and whatever remains is emitted as the final user
// message.
func (b *Builder) Build(ctx context.Context, req BuildRequest) ([]model.Message, string, error) {
	var messages []model.Message
	question := req.Question

	// Piped terminal output becomes leading context.
	if req.PipedInput != "" {
		messages = append(messages, model.NewSystemMessage(
			"Previous terminal output:\n"+req.PipedInput))
	}

	// Local file content. A read failure degrades to a warning so the
	// rest of the request still goes out.
	if req.FileInput != "" {
		if content, err := ReadInputFile(req.FileInput); err != nil {
			log.Printf("warning: skipping input file %s: %v", req.FileInput, err)
		} else {
			messages = append(messages, model.NewSystemMessage(fmt.Sprintf(
				"The file content of %s to work with:\n%s", req.FileInput, content)))
		}
	}

	// URL content. On fetch failure the question is rewritten to carry the
	// URL and the error so the model can still respond usefully.
	if req.URL != "" {
		question = b.addURLContent(ctx, req.URL, question, &messages)
	}

	if req.Image != "" {
		question = addImageFile(req.Image, question, &messages)
	}

	if req.ImageURL != "" {
		userQuestion := question
		if userQuestion == "" {
			userQuestion = defaultImageQuestion
		}
		messages = append(messages, model.NewImageMessage(userQuestion, req.ImageURL, "jpeg"))
		question = ""
	}

	if req.PDF != "" {
		question = addPDFFile(req.PDF, question, &messages)
	}

	if req.PDFURL != "" {
		filename := pdfURLFilename(req.PDFURL)
		userQuestion := question
		if userQuestion == "" {
			userQuestion = defaultPDFQuestion
		}
		messages = append(messages, model.NewPDFMessage(userQuestion, req.PDFURL, filename))
		messages = append(messages, model.NewSystemMessage(pdfURLDisclaimer))
		question = ""
	}

	resolvedID := ""
	if req.PatternID != "" {
		id, err := b.addPatternContext(req.PatternID, req.PatternInput, &messages)
		if err != nil {
			return nil, "", err
		}
		resolvedID = id
	} else {
		// Format instructions apply only without a pattern; patterns
		// carry their own output contract.
		if instruction := FormatInstruction(req.ResponseFormat, req.ModelName); instruction != "" {
			messages = append(messages, model.NewSystemMessage(instruction))
		}
	}

	if question != "" {
		messages = append(messages, model.NewUserMessage(question))
	}

	return messages, resolvedID, nil
}

// addURLContent fetches the URL into a system message and returns the
// updated pending question.
func (b *Builder) addURLContent(ctx context.Context, url, question string, messages *[]model.Message) string {
	if b.fetcher == nil {
		return question
	}

	content, err := b.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Printf("warning: failed to fetch %s: %v", url, err)
		if question == "" {
			return fmt.Sprintf(
				"Please analyze and summarize what you know about this URL: %s "+
					"(Note: Content could not be fetched due to: %v)", url, err)
		}
		return fmt.Sprintf(
			"Please analyze this URL: %s (Note: Content could not be fetched due to: %v)\n\nQuestion: %s",
			url, err, question)
	}

	*messages = append(*messages, model.NewSystemMessage(fmt.Sprintf(
		"The content from URL %s:\n%s", url, content)))
	if question == "" {
		return defaultURLQuestion
	}
	return question
}

// addImageFile encodes a local image into a multimodal message. On encode
// failure the question is left pending so the request still carries it.
func addImageFile(path, question string, messages *[]model.Message) string {
	encoded, err := EncodeFileBase64(path)
	if err != nil {
		log.Printf("warning: failed to encode image %s: %v", path, err)
		return question
	}

	userQuestion := question
	if userQuestion == "" {
		userQuestion = defaultImageQuestion
	}
	*messages = append(*messages, model.NewImageMessage(userQuestion, encoded, model.MimeTypeFor(path)))
	return ""
}

// addPDFFile encodes a local PDF into a multimodal message. Files without
// a .pdf extension are treated as plain text. On encode failure the
// (possibly defaulted) question stays pending so the final user message
// still carries it.
func addPDFFile(path, question string, messages *[]model.Message) string {
	filename := filepath.Base(path)

	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		log.Printf("warning: %s does not have a .pdf extension, treating as text file", path)
		content, err := ReadInputFile(path)
		if err != nil {
			log.Printf("warning: skipping file %s: %v", path, err)
			return question
		}
		*messages = append(*messages, model.NewSystemMessage(fmt.Sprintf(
			"The file content of %s to work with:\n%s", filename, content)))
		if question == "" {
			return defaultFileQuestion
		}
		return question
	}

	userQuestion := question
	if userQuestion == "" {
		userQuestion = defaultPDFQuestion
	}

	encoded, err := EncodeFileBase64(path)
	if err != nil {
		log.Printf("warning: failed to encode PDF %s: %v", path, err)
		return userQuestion
	}

	*messages = append(*messages, model.NewPDFMessage(userQuestion, encoded, filename))
	*messages = append(*messages, model.NewSystemMessage(pdfFileDisclaimer))
	return ""
}

// pdfURLFilename derives a display filename from the URL's last path
// segment, falling back to a generic name when the tail is not a PDF.
func pdfURLFilename(url string) string {
	parts := strings.Split(url, "/")
	tail := parts[len(parts)-1]
	if tail == "" || !strings.HasSuffix(strings.ToLower(tail), ".pdf") {
		return "document.pdf"
	}
	return tail
}

// addPatternContext resolves the pattern, emits its prompt and inputs, and
// returns the resolved pattern id.
func (b *Builder) addPatternContext(id string, values map[string]string, messages *[]model.Message) (string, error) {
	if id == SelectPattern {
		selected, err := b.patterns.Select()
		if err != nil {
			if errors.Is(err, pattern.ErrSelectionCancelled) {
				return "", fmt.Errorf("%w: pattern selection aborted", ErrCancelled)
			}
			return "", err
		}
		id = selected
	}

	p, err := b.patterns.Get(id)
	if err != nil {
		return "", err
	}

	inputs, err := b.patterns.ProcessInputs(id, values)
	if err != nil {
		return "", err
	}

	*messages = append(*messages, model.NewSystemMessage(p.Prompt))

	// Special input types become multimodal sub-messages and are removed
	// from the structured bag so they are not duplicated as plain JSON.
	structured := make(map[string]string, len(inputs))
	for k, v := range inputs {
		structured[k] = v
	}

	for _, in := range p.Inputs {
		value, ok := inputs[in.Name]
		if !ok || value == "" {
			continue
		}

		switch in.Type {
		case pattern.InputImageFile:
			delete(structured, in.Name)
			encoded, err := EncodeFileBase64(value)
			if err != nil {
				log.Printf("warning: failed to encode image %s: %v", value, err)
				continue
			}
			*messages = append(*messages, model.NewImageMessage(
				"Please analyze this image based on the provided inputs.",
				encoded, model.MimeTypeFor(value)))

		case pattern.InputPDFFile:
			delete(structured, in.Name)
			encoded, err := EncodeFileBase64(value)
			if err != nil {
				log.Printf("warning: failed to encode PDF %s: %v", value, err)
				continue
			}
			*messages = append(*messages, model.NewPDFMessage(
				"Please analyze this PDF document based on the provided inputs.",
				encoded, filepath.Base(value)))

		case pattern.InputPDFURL:
			delete(structured, in.Name)
			filename := value[strings.LastIndex(value, "/")+1:]
			if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
				filename += ".pdf"
			}
			*messages = append(*messages, model.NewPDFMessage(
				"Please analyze and summarize this PDF document based on the provided inputs.",
				value, filename))

		case pattern.InputImageURL:
			delete(structured, in.Name)
			*messages = append(*messages, model.NewImageMessage(
				"Please analyze and describe this image based on the provided inputs.",
				value, "jpeg"))
		}
	}

	if len(structured) > 0 {
		data, err := json.MarshalIndent(structured, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to serialize pattern inputs: %w", err)
		}
		*messages = append(*messages, model.NewSystemMessage("Available inputs:\n"+string(data)))
	}

	if len(p.Outputs) > 0 {
		format := p.FormatInstructions
		if format == "" {
			format = pattern.FormatTemplate(p.Outputs)
		}
		if format == "" {
			format = pattern.MinimalSpec(p.Outputs)
		}
		if format != "" {
			*messages = append(*messages, model.NewSystemMessage(format))
		}
	}

	return id, nil
}
