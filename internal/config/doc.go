// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for askai.
//
// Configuration is TOML with sensible defaults, environment variable overrides,
// and validation.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ASKAI_*, OPENROUTER_API_KEY)
//   - ~/.askai/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.DefaultModel
//	key := cfg.Cloud.APIKey
package config
