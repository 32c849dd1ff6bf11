// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fetch retrieves URL content for prompt assembly. HTML responses
// are reduced to visible text; plain text passes through. Failures are
// returned to the caller, which degrades the prompt instead of aborting.
package fetch
