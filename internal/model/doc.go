// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared between prompt assembly
// and the chat-completion client: role-tagged messages (plain text or
// multimodal part lists) and the layered model configuration.
package model
