// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud implements the chat-completion client for OpenRouter and
// other OpenAI-compatible providers.
//
// The client sends multimodal message lists built by the prompt package,
// applies the resolved model configuration including web-search options,
// and retries transient failures with exponential backoff. Responses and
// request bodies are size-limited; the API key never appears in logs.
package cloud
