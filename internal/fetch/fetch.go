// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnsupportedContentType is returned for non-text responses.
	ErrUnsupportedContentType = errors.New("unsupported content type")
	// ErrEmptyContent is returned when a page reduces to no visible text.
	ErrEmptyContent = errors.New("no text content")
)

// =============================================================================
// FETCHER
// =============================================================================

const (
	defaultTimeout = 10 * time.Second

	// PERFORMANCE: Cap response bodies so a hostile or broken server cannot
	// exhaust memory.
	maxResponseSize = 10 * 1024 * 1024

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Fetcher retrieves URL content over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with the default timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// NewFetcherWithClient creates a fetcher with a custom HTTP client (tests).
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch retrieves the URL and returns its text content. HTML is reduced to
// visible text with script, style, and noscript content excluded and blank
// lines collapsed; other text/* types pass through unchanged. Non-text
// content types are an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	// Some servers block requests without a browser user agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to fetch URL: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "text/html"):
		text := ExtractText(string(body))
		if text == "" {
			return "", ErrEmptyContent
		}
		return text, nil
	case strings.HasPrefix(contentType, "text/"):
		return norm.NFC.String(string(body)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
}

// =============================================================================
// HTML TEXT EXTRACTION
// =============================================================================

// skipContainers are container elements whose text content is never
// visible. Void elements like meta and link carry no text nodes and never
// emit an end tag, so tracking depth for them would swallow the rest of
// the document.
var skipContainers = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// ExtractText reduces an HTML document to its visible text, one line per
// text node, with runs of blank lines collapsed to a single separator.
func ExtractText(htmlSrc string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlSrc))

	var parts []string
	skipDepth := 0
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input past this point; either way,
			// return what was collected.
			text := strings.Join(parts, "\n")
			text = blankLines.ReplaceAllString(text, "\n\n")
			return norm.NFC.String(strings.TrimSpace(text))

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skipContainers[string(name)] {
				skipDepth++
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skipContainers[string(name)] && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
				parts = append(parts, text)
			}
		}
	}
}
