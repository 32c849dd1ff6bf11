// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package output dispatches declared pattern outputs from a model response.
//
// Content for each output is resolved with a two-tier lookup: structured
// JSON in the response wins, with ordered regex heuristics over the raw
// text as fallback. Resolved outputs are then acted on in declaration
// order: written to files, collected for display, or queued as commands
// that only run after the response has been shown.
package output
