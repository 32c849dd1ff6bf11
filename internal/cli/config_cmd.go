// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration commands for the askai CLI.
//
// Commands:
//   askai config list               Show all keys and current values
//   askai config get <key>          Get one value (dot notation)
//   askai config set <key> <value>  Set and save one value
//   askai config path               Show the config file location
package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/askai/internal/config"
)

// HandleConfigCommand handles the "config" command.
func HandleConfigCommand(args Args) error {
	switch args.Subcommand {
	case "", "list", "show":
		return handleConfigList()
	case "get":
		if args.ConfigKey == "" {
			return ErrMissingArgument("key", "askai config get cloud.api_key")
		}
		return handleConfigGet(args.ConfigKey)
	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return ErrMissingArgument("key and value", "askai config set default_model anthropic/claude-3.5-sonnet")
		}
		return handleConfigSet(args, args.ConfigKey, args.ConfigVal)
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return NewValidationError("subcommand", args.Subcommand, "expected list, get, set, or path")
	}
}

// handleConfigList prints every key with its current value, secrets
// redacted.
// SECURITY: the API key never prints in the clear.
func handleConfigList() error {
	cfg := config.Global().Redacted()

	fmt.Println(TitleStyle.Render("askai configuration"))
	for _, key := range config.GetAllKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("%s%v\n", RenderLabel(key+":", 28), value)
	}
	return nil
}

func handleConfigGet(key string) error {
	cfg := config.Global()

	value, err := cfg.Get(key)
	if err != nil {
		return NewValidationError("key", key, err.Error())
	}

	// SECURITY: getting the key by name still redacts it.
	if strings.Contains(key, "api_key") {
		value, _ = cfg.Redacted().Get(key)
	}
	fmt.Println(value)
	return nil
}

func handleConfigSet(args Args, key, value string) error {
	cfg := config.Global().Clone()

	if err := cfg.Set(key, value); err != nil {
		return NewValidationError("key", key, err.Error())
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return WrapError(err, "rejected invalid configuration")
	}

	if err := config.Save(cfg); err != nil {
		return WrapError(err, "failed to save configuration")
	}
	config.SetGlobal(cfg)

	Notice(args, "Set %s", key)
	return nil
}
