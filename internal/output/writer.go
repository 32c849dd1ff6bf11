// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/askai/internal/util"
)

// =============================================================================
// DIRECTORY MANAGER
// =============================================================================

// DirectoryResolver resolves the directory file outputs are written under.
type DirectoryResolver interface {
	OutputDirectory() (string, error)
}

// DirectoryManager resolves a configured output directory, creating it on
// first use. An empty configured directory means file outputs are disabled.
type DirectoryManager struct {
	dir string
}

// NewDirectoryManager creates a manager for the configured directory,
// which may be empty.
func NewDirectoryManager(dir string) *DirectoryManager {
	return &DirectoryManager{dir: dir}
}

// OutputDirectory returns the absolute output directory, creating it if
// needed. Errors when no directory is configured or it cannot be created.
func (m *DirectoryManager) OutputDirectory() (string, error) {
	if m.dir == "" {
		return "", fmt.Errorf("no output directory configured")
	}

	dir := m.dir
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return abs, nil
}

// =============================================================================
// FILE WRITER
// =============================================================================

// FileWriter writes output content to a destination path.
type FileWriter interface {
	WriteByExtension(content, path string) error
}

// ExtensionWriter writes content with per-extension handling. JSON files
// are validated and pretty-printed when the content parses; everything
// else is written verbatim. Writes are atomic so a failed write never
// leaves a truncated file.
type ExtensionWriter struct{}

// WriteByExtension writes content to path, creating parent directories.
func (ExtensionWriter) WriteByExtension(content, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		content = prettyJSON(content)
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	if err := util.AtomicWriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// prettyJSON reindents valid JSON and passes invalid JSON through
// unchanged. A model that produced broken JSON still gets its text saved.
func prettyJSON(content string) string {
	var value any
	if err := json.Unmarshal([]byte(content), &value); err != nil {
		return content
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return content
	}
	return string(data)
}
