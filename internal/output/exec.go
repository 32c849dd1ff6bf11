// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// DefaultCommandTimeout bounds each queued command.
const DefaultCommandTimeout = 30 * time.Second

// Runner executes queued command outputs through the shell.
type Runner struct {
	Timeout time.Duration
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewRunner creates a runner with the default timeout writing to the
// process's stdout and stderr.
func NewRunner() *Runner {
	return &Runner{
		Timeout: DefaultCommandTimeout,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run executes one command, streaming its output. The command is killed
// when it exceeds the timeout.
//
// CANCELLATION: The caller's context is honored alongside the timeout, so
// Ctrl+C during a long command kills it rather than waiting out 30s.
func (r *Runner) Run(ctx context.Context, command string) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("command timed out after %s", timeout)
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// RunAll executes queued commands in order, echoing each before it runs.
// Failures are reported and do not stop later commands.
func (r *Runner) RunAll(ctx context.Context, commands []Command) {
	for _, c := range commands {
		fmt.Fprintf(r.Stdout, "Executing %s: %s\n", c.Name, c.Content)
		if err := r.Run(ctx, c.Content); err != nil {
			fmt.Fprintf(r.Stderr, "Error: %v\n", err)
		}
	}
}
