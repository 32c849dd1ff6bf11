// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
)

// MaxInputFileSize caps how large a local input file may be.
//
// SECURITY: Without this cap a mistyped path (a disk image, a core dump)
// would be read whole into memory and shipped to the API.
const MaxInputFileSize = 100 * 1024 * 1024

// ErrFileTooLarge indicates an input file exceeds MaxInputFileSize.
var ErrFileTooLarge = errors.New("input file too large")

// ReadInputFile reads a local file for prompt inclusion, enforcing the
// size cap before reading.
func ReadInputFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("input path %s is a directory", path)
	}
	if info.Size() > MaxInputFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)",
			ErrFileTooLarge, path, info.Size(), MaxInputFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return data, nil
}

// EncodeFileBase64 reads a local file and returns its standard base64
// encoding, subject to the same size cap as ReadInputFile.
func EncodeFileBase64(path string) (string, error) {
	data, err := ReadInputFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
