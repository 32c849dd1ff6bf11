// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt assembles the ordered message list for a chat-completion
// call from heterogeneous inputs: piped text, files, URLs, images, PDFs,
// and pattern templates.
//
// Assembly runs a fixed step sequence. Steps share a pending question:
// a step may consume it (multimodal steps carry it as their text part) or
// rewrite it (a failed URL fetch turns into a question that reports the
// failure). The final step emits whatever question is still pending.
package prompt
