// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// askai - compose rich prompts and ask AI models from the command line.
//
// main wires logging, parses the command line, and dispatches to the
// command handlers in internal/cli. All real work happens there; exit
// codes come back through cli.Run.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jeranaias/askai/internal/cli"
	"github.com/jeranaias/askai/internal/config"
)

func main() {
	closeLog := setupLogging()
	defer closeLog()

	cmd, args := cli.Parse()
	os.Exit(cli.Run(cmd, args))
}

// setupLogging routes the standard logger to a file under the config
// directory so diagnostic warnings never mix with response output.
// Falls back to stderr when the file cannot be opened.
func setupLogging() func() {
	dir, err := config.ConfigDir()
	if err != nil {
		return func() {}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return func() {}
	}

	path := filepath.Join(dir, "askai.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open log file: %v\n", err)
		return func() {}
	}

	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	return func() { f.Close() }
}
