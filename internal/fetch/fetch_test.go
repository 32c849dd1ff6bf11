// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractText(t *testing.T) {
	src := `<html><head>
<title>Hello</title>
<style>body { color: red }</style>
<script>var x = 1;</script>
<meta charset="utf-8">
<link rel="stylesheet" href="main.css">
</head><body>
<h1>Heading</h1>

<p>First paragraph.</p>


<p>Second paragraph.</p>
<noscript>enable js</noscript>
</body></html>`

	got := ExtractText(src)

	// Void elements in head (meta, link) never emit end tags; text after
	// them must still be collected.
	if !strings.Contains(got, "Heading") || !strings.Contains(got, "First paragraph.") {
		t.Errorf("visible text missing: %q", got)
	}
	if !strings.Contains(got, "Second paragraph.") {
		t.Errorf("text after void head elements lost: %q", got)
	}
	if strings.Contains(got, "color: red") || strings.Contains(got, "var x") || strings.Contains(got, "enable js") {
		t.Errorf("skipped element content leaked: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank lines not collapsed: %q", got)
	}
}

func TestFetch_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("no user agent sent")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><p>page text</p><script>x()</script></body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher()
	got, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(got, "page text") {
		t.Errorf("got %q", got)
	}
	if strings.Contains(got, "x()") {
		t.Errorf("script content leaked: %q", got)
	}
}

func TestFetch_PlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("raw text body"))
	}))
	defer srv.Close()

	f := NewFetcher()
	got, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got != "raw text body" {
		t.Errorf("got %q", got)
	}
}

func TestFetch_UnsupportedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0x00, 0x01})
	}))
	defer srv.Close()

	f := NewFetcher()
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "unsupported content type") {
		t.Errorf("expected unsupported content type error, got %v", err)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher()
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected HTTP 404 error, got %v", err)
	}
}
