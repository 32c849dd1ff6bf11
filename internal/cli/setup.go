// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - First-run configuration wizard for the askai CLI.
//
// Walks the user through the minimum viable configuration: provider API
// key, default model, and where pattern outputs land. Existing values are
// offered as defaults so re-running is safe.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/askai/internal/config"
)

// HandleSetupCommand handles the "setup" command.
func HandleSetupCommand(args Args) error {
	if !IsTTY() {
		return fmt.Errorf("setup requires an interactive terminal")
	}

	cfg := config.Global().Clone()

	fmt.Println(TitleStyle.Render("askai setup"))
	fmt.Println(DimStyle.Render("Press Enter to keep the value shown in brackets."))
	fmt.Println()

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	// API key. An environment key wins at runtime either way, so only
	// nag when neither source has one.
	keyHint := "not set"
	if cfg.Cloud.APIKey != "" {
		keyHint = "configured"
	} else if os.Getenv("OPENROUTER_API_KEY") != "" || os.Getenv("ASKAI_API_KEY") != "" {
		keyHint = "from environment"
	}
	key, err := promptValue(line, fmt.Sprintf("OpenRouter API key [%s]", keyHint))
	if err != nil {
		return nil // Ctrl+C leaves everything untouched
	}
	if key != "" {
		cfg.Cloud.APIKey = key
	}

	modelName, err := promptValue(line, fmt.Sprintf("Default model [%s]", cfg.DefaultModel))
	if err != nil {
		return nil
	}
	if modelName != "" {
		cfg.DefaultModel = modelName
	}

	format, err := promptValue(line, fmt.Sprintf("Response format (md/json/rawtext) [%s]", cfg.ResponseFormat))
	if err != nil {
		return nil
	}
	if format != "" {
		cfg.ResponseFormat = strings.ToLower(format)
	}

	outDir, err := promptValue(line, fmt.Sprintf("Pattern output directory [%s]", orNone(cfg.Output.Directory)))
	if err != nil {
		return nil
	}
	if outDir != "" {
		cfg.Output.Directory = outDir
	}

	webSearch, err := promptValue(line, fmt.Sprintf("Enable web search by default? (y/N) [%s]", yesNo(cfg.WebSearch.Enabled)))
	if err != nil {
		return nil
	}
	if webSearch != "" {
		cfg.WebSearch.Enabled = strings.EqualFold(webSearch, "y") || strings.EqualFold(webSearch, "yes")
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return WrapError(err, "rejected invalid configuration")
	}
	if err := config.Save(cfg); err != nil {
		return WrapError(err, "failed to save configuration")
	}
	config.SetGlobal(cfg)

	// Seed the patterns directory so 'pattern list' has somewhere to look.
	if dir, err := cfg.PatternsDir(); err == nil {
		if err := os.MkdirAll(dir, 0755); err == nil {
			fmt.Println()
			fmt.Printf("%s Patterns directory: %s\n", NoticeStyle.Render("[+]"), dir)
		}
	}

	path, _ := config.ConfigPath()
	fmt.Printf("%s Configuration saved to %s\n", SuccessStyle.Render("[OK]"), path)
	if cfg.Cloud.APIKey == "" && keyHint == "not set" {
		fmt.Println(WarningStyle.Render("[!] No API key configured; set OPENROUTER_API_KEY or re-run setup."))
	}
	return nil
}

// promptValue reads one trimmed line; empty keeps the current value.
func promptValue(line *liner.State, label string) (string, error) {
	input, err := line.Prompt(label + ": ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
