// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// pattern_cmd.go - Pattern inspection commands for the askai CLI.
//
// Commands:
//   askai pattern list        List available patterns
//   askai pattern show <id>   Show one pattern definition
package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/askai/internal/config"
	"github.com/jeranaias/askai/internal/pattern"
)

// HandlePatternCommand handles the "pattern" command.
func HandlePatternCommand(args Args) error {
	cfg := config.Global()

	dir, err := cfg.PatternsDir()
	if err != nil {
		return WrapError(err, "failed to resolve patterns directory")
	}
	repo, err := pattern.NewRepository(dir)
	if err != nil {
		return WrapError(err, "failed to open pattern repository")
	}
	defer repo.Close()

	switch args.Subcommand {
	case "", "list", "ls":
		return handlePatternList(repo, dir)
	case "show":
		if args.Query == "" {
			return ErrMissingArgument("pattern id", "askai pattern show <id>")
		}
		return handlePatternShow(repo, args.Query)
	default:
		return NewValidationError("subcommand", args.Subcommand, "expected list or show")
	}
}

func handlePatternList(repo *pattern.Repository, dir string) error {
	patterns, err := repo.List()
	if err != nil {
		return WrapError(err, "failed to list patterns")
	}

	fmt.Println(TitleStyle.Render("Available patterns"))
	fmt.Println(DimStyle.Render("  " + dir))
	fmt.Println()

	if len(patterns) == 0 {
		fmt.Println(DimStyle.Render("  (none - drop YAML definitions into the directory above)"))
		return nil
	}

	for _, p := range patterns {
		fmt.Printf("  %s  %s\n",
			SuccessStyle.Render(fmt.Sprintf("%-20s", p.ID)),
			ValueStyle.Render(p.Description))
	}
	return nil
}

func handlePatternShow(repo *pattern.Repository, id string) error {
	p, err := repo.Get(id)
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(p.Name))
	if p.Description != "" {
		fmt.Println(ValueStyle.Render(p.Description))
	}
	if len(p.Features) > 0 {
		fmt.Printf("%s%s\n", RenderLabel("Features:"), strings.Join(p.Features, ", "))
	}
	if p.Model != nil && p.Model.Name != "" {
		fmt.Printf("%s%s\n", RenderLabel("Model:"), p.Model.Name)
	}

	if len(p.Inputs) > 0 {
		fmt.Println()
		fmt.Println(SectionStyle.Render("Inputs"))
		for _, in := range p.Inputs {
			required := ""
			if in.Required {
				required = WarningStyle.Render(" (required)")
			}
			defaultNote := ""
			if in.Default != "" {
				defaultNote = DimStyle.Render(" default: " + in.Default)
			}
			fmt.Printf("  %-18s %-12s %s%s%s\n", in.Name, string(in.Type), in.Description, required, defaultNote)
		}
	}

	if len(p.Outputs) > 0 {
		fmt.Println()
		fmt.Println(SectionStyle.Render("Outputs"))
		for _, out := range p.Outputs {
			target := ""
			if out.Action == pattern.ActionWrite {
				target = DimStyle.Render(" -> " + out.WriteToFile)
			}
			fmt.Printf("  %-18s %-10s %s%s\n", out.Name, string(out.Type), string(out.Action), target)
		}
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render("Prompt"))
	fmt.Println(DimStyle.Render(indent(p.Prompt, "  ")))
	return nil
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
