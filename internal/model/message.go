// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// =============================================================================
// MIME TYPES
// =============================================================================

// mimeTypes maps image file extensions to the MIME subtype used in data URIs.
var mimeTypes = map[string]string{
	"jpg":  "jpeg",
	"jpeg": "jpeg",
	"png":  "png",
	"gif":  "gif",
	"webp": "webp",
	"bmp":  "bmp",
}

// MimeTypeFor returns the image MIME subtype for a file path based on its
// extension. Unknown or missing extensions fall back to "jpeg".
func MimeTypeFor(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return "jpeg"
}

// =============================================================================
// CONTENT PARTS
// =============================================================================

// Part type identifiers for multimodal content.
const (
	PartText     = "text"
	PartImageURL = "image_url"
	PartFile     = "file"
)

// ImageRef references an image by URL or data URI.
type ImageRef struct {
	URL string `json:"url"`
}

// FileRef references an attached file (currently PDF) by URL or data URI.
type FileRef struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

// ContentPart is one typed block in a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
	File     *FileRef  `json:"file,omitempty"`
}

// TextPart creates a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImagePart creates an image_url content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartImageURL, ImageURL: &ImageRef{URL: url}}
}

// FilePart creates a file content part.
func FilePart(filename, fileData string) ContentPart {
	return ContentPart{Type: PartFile, File: &FileRef{Filename: filename, FileData: fileData}}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single role-tagged message in a chat-completion request.
//
// Wire contract: a message whose content is a single text part marshals with
// a plain string content; anything else marshals as a typed part list. Both
// the prompt builder (producer) and the cloud client (consumer) rely on this.
type Message struct {
	Role  Role
	Parts []ContentPart
}

// NewSystemMessage creates a plain-text system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Parts: []ContentPart{TextPart(content)}}
}

// NewUserMessage creates a plain-text user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Parts: []ContentPart{TextPart(content)}}
}

// NewAssistantMessage creates a plain-text assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Parts: []ContentPart{TextPart(content)}}
}

// NewImageMessage creates a multimodal user message pairing a question with
// an image reference. imageData is either an http(s) URL (passed through
// unchanged) or base64 payload, which is wrapped in a data URI with the
// given MIME subtype.
func NewImageMessage(question, imageData, mimeType string) Message {
	url := imageData
	if !strings.HasPrefix(imageData, "http://") && !strings.HasPrefix(imageData, "https://") {
		url = fmt.Sprintf("data:image/%s;base64,%s", mimeType, imageData)
	}
	return Message{
		Role:  RoleUser,
		Parts: []ContentPart{TextPart(question), ImagePart(url)},
	}
}

// NewPDFMessage creates a multimodal user message pairing a question with an
// attached PDF. pdfData is either an http(s) URL (passed through unchanged)
// or base64 payload wrapped in an application/pdf data URI.
func NewPDFMessage(question, pdfData, filename string) Message {
	fileData := pdfData
	if !strings.HasPrefix(pdfData, "http://") && !strings.HasPrefix(pdfData, "https://") {
		fileData = "data:application/pdf;base64," + pdfData
	}
	return Message{
		Role:  RoleUser,
		Parts: []ContentPart{TextPart(question), FilePart(filename, fileData)},
	}
}

// IsMultimodal reports whether the message carries non-text parts.
func (m Message) IsMultimodal() bool {
	for _, p := range m.Parts {
		if p.Type != PartText {
			return true
		}
	}
	return false
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// wireMessage is the JSON shape with raw content for both directions.
type wireMessage struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON implements the string-or-parts content contract.
func (m Message) MarshalJSON() ([]byte, error) {
	var content any
	if len(m.Parts) == 1 && m.Parts[0].Type == PartText {
		content = m.Parts[0].Text
	} else {
		content = m.Parts
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{Role: m.Role, Content: raw})
}

// UnmarshalJSON accepts both a plain string content and a part list.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.Role = wire.Role

	var text string
	if err := json.Unmarshal(wire.Content, &text); err == nil {
		m.Parts = []ContentPart{TextPart(text)}
		return nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(wire.Content, &parts); err != nil {
		return fmt.Errorf("message content is neither string nor part list: %w", err)
	}
	m.Parts = parts
	return nil
}
