// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for all askai CLI commands.
//
// STANDARDIZED PATTERN:
//   - ALWAYS return errors (never just print and return nil)
//   - Let the caller decide how to display errors
//   - Use structured error types for better error handling
//   - Map domain sentinels to specific exit codes in one place
//
// ERROR HANDLING: Errors must not be silently ignored
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/askai/internal/cloud"
	"github.com/jeranaias/askai/internal/pattern"
	"github.com/jeranaias/askai/internal/prompt"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates authentication or authorization failure
	ExitAuthError = 4
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
	// ExitCancelled indicates the user aborted (conventional 128+SIGINT)
	ExitCancelled = 130
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "ask", "chat")
	Action  string // Action being performed (e.g., "complete", "dispatch")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{
		Command: command,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{
		Field:   argName,
		Reason:  "required argument missing",
		Example: usage,
	}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError displays an error in a consistent format on stderr.
// Cancellation is silent: the user already chose to stop.
func DisplayError(err error) {
	if err == nil || errors.Is(err, prompt.ErrCancelled) {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// GetExitCode determines the appropriate exit code for an error.
// Domain sentinels map first; message content is a last resort for errors
// that bubble up unwrapped from the standard library.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, prompt.ErrCancelled) {
		return ExitCancelled
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	if errors.Is(err, cloud.ErrNotConfigured) {
		return ExitConfigError
	}
	if errors.Is(err, cloud.ErrAuthFailed) || errors.Is(err, cloud.ErrInsufficientCredits) {
		return ExitAuthError
	}
	if errors.Is(err, cloud.ErrModelNotFound) || errors.Is(err, pattern.ErrNotFound) {
		return ExitNotFoundError
	}
	if errors.Is(err, pattern.ErrMissingInput) {
		return ExitUsageError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "config") || strings.Contains(errMsg, "settings") {
		return ExitConfigError
	}
	if strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "unreachable") ||
		strings.Contains(errMsg, "dial") {
		return ExitNetworkError
	}
	if strings.Contains(errMsg, "timed out") || strings.Contains(errMsg, "deadline exceeded") {
		return ExitTimeoutError
	}
	if strings.Contains(errMsg, "not found") {
		return ExitNotFoundError
	}

	return ExitGeneralError
}
