// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat history in a local SQLite database.
//
// Each conversation holds an ordered message log. The store caps how many
// recent messages are replayed as context so long conversations do not
// blow the model's context window.
package storage
