// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the askai command line: argument parsing, command
// dispatch, and the per-command handlers.
//
// Commands:
//   - ask: assemble a prompt from the question, files, URLs, images, PDFs,
//     and an optional pattern; send it; display or dispatch the response.
//   - pattern: list and inspect pattern definitions.
//   - chat: interactive REPL with persistent history.
//   - config: get, set, and list configuration values.
//   - setup: first-run wizard.
//
// Handlers return errors instead of exiting; main maps them to exit codes
// via GetExitCode. Styled output goes to stderr, response content to
// stdout, so piping the response stays clean.
package cli
