// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"photo.jpg", "jpeg"},
		{"photo.JPEG", "jpeg"},
		{"diagram.png", "png"},
		{"anim.gif", "gif"},
		{"modern.webp", "webp"},
		{"old.bmp", "bmp"},
		{"unknown.tiff", "jpeg"},
		{"noextension", "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := MimeTypeFor(tt.path); got != tt.want {
				t.Errorf("MimeTypeFor(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMessage_MarshalPlainText(t *testing.T) {
	msg := NewUserMessage("hello")
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"role":"user","content":"hello"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestMessage_MarshalImage(t *testing.T) {
	msg := NewImageMessage("what is this?", "AAAA", "png")
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var wire struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL *struct {
				URL string `json:"url"`
			} `json:"image_url"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal wire shape: %v", err)
	}
	if wire.Role != "user" {
		t.Errorf("role = %q, want user", wire.Role)
	}
	if len(wire.Content) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(wire.Content))
	}
	if wire.Content[0].Type != "text" || wire.Content[0].Text != "what is this?" {
		t.Errorf("first part = %+v, want text question", wire.Content[0])
	}
	if wire.Content[1].Type != "image_url" {
		t.Errorf("second part type = %q, want image_url", wire.Content[1].Type)
	}
	if got := wire.Content[1].ImageURL.URL; got != "data:image/png;base64,AAAA" {
		t.Errorf("image url = %q", got)
	}
}

func TestMessage_ImageURLPassedThrough(t *testing.T) {
	msg := NewImageMessage("describe", "https://example.com/x.png", "png")
	if got := msg.Parts[1].ImageURL.URL; got != "https://example.com/x.png" {
		t.Errorf("remote url rewrapped: %q", got)
	}
}

func TestMessage_MarshalPDF(t *testing.T) {
	msg := NewPDFMessage("summarize", "QkFT", "report.pdf")
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"filename":"report.pdf"`) {
		t.Errorf("missing filename: %s", s)
	}
	if !strings.Contains(s, `"file_data":"data:application/pdf;base64,QkFT"`) {
		t.Errorf("missing data uri: %s", s)
	}
}

func TestMessage_UnmarshalBothShapes(t *testing.T) {
	var plain Message
	if err := json.Unmarshal([]byte(`{"role":"assistant","content":"hi"}`), &plain); err != nil {
		t.Fatalf("plain unmarshal: %v", err)
	}
	if plain.Role != RoleAssistant || plain.Text() != "hi" {
		t.Errorf("plain = %+v", plain)
	}

	var multi Message
	raw := `{"role":"user","content":[{"type":"text","text":"q"},{"type":"image_url","image_url":{"url":"u"}}]}`
	if err := json.Unmarshal([]byte(raw), &multi); err != nil {
		t.Fatalf("multi unmarshal: %v", err)
	}
	if !multi.IsMultimodal() {
		t.Error("expected multimodal")
	}
	if multi.Text() != "q" {
		t.Errorf("Text() = %q, want q", multi.Text())
	}
}

func TestMessage_RoundTrip(t *testing.T) {
	orig := NewImageMessage("q", "ZZZZ", "webp")
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Role != orig.Role || len(got.Parts) != len(orig.Parts) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, orig)
	}
}
