// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pattern implements reusable prompt templates.
//
// A pattern is a YAML file declaring a prompt, the inputs the user must
// supply, and the outputs the model is expected to produce, each tagged with
// an action (write to file, display, execute). The Repository loads pattern
// files from a directory and keeps a cache that is invalidated by a
// filesystem watcher.
package pattern
