// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"context"

	"github.com/jeranaias/askai/internal/pattern"
)

// PatternRepository resolves pattern definitions and their inputs.
type PatternRepository interface {
	// Get returns the pattern with the given id, or pattern.ErrNotFound.
	Get(id string) (*pattern.Pattern, error)
	// Select interactively picks a pattern id, or returns
	// pattern.ErrSelectionCancelled.
	Select() (string, error)
	// ProcessInputs validates user-supplied values against the pattern's
	// declared inputs.
	ProcessInputs(id string, values map[string]string) (map[string]string, error)
}

// URLFetcher retrieves text content from a URL.
type URLFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
