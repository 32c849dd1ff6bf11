// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for askai.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdAsk Command = iota
	CmdPattern
	CmdChat
	CmdConfig
	CmdSetup
	CmdModels
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string
	Format  string // response format: md, json, rawtext

	// Ask inputs
	Query         string
	File          string
	URL           string
	Image         string
	PDF           string
	ImageURL      string
	PDFURL        string
	PatternID     string
	PatternInputs map[string]string
	WebSearch     bool

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `askai - compose rich prompts and ask AI models from the command line

Askai assembles multimodal chat requests from text, files, URLs, images,
PDFs, and reusable pattern templates, sends them to OpenRouter (or any
OpenAI-compatible endpoint), and renders or dispatches the response.

Usage:
  askai "question"                  Ask a single question
  askai ask "question" [flags]     Ask with explicit input flags
  askai pattern list                List available patterns
  askai pattern show <id>           Show one pattern definition
  askai chat [id]                   Interactive chat (resume by id)
  askai chat list                   List saved conversations
  askai chat delete <id>            Delete a conversation
  askai config list                 Show configuration (key redacted)
  askai config get <key>            Get a configuration value
  askai config set <key> <value>    Set and save a configuration value
  askai models                      List models available on the provider
  askai setup                       First-run configuration wizard
  askai version                     Show version
  askai help                        Show this help

Ask Flags:
  -f, --file FILE        Include file content as context
  -u, --url URL          Fetch URL content as context
  -i, --image FILE       Attach a local image
      --image-url URL    Attach an image by URL
      --pdf FILE         Attach a local PDF
      --pdf-url URL      Attach a PDF by URL
  -p, --pattern ID       Use a pattern ("new" to pick interactively)
      --input KEY=VALUE  Supply a pattern input (repeatable)
      --web-search       Enable provider web search for this request
      --format FORMAT    Response format: md, json, rawtext

Global Flags:
  -m, --model NAME       Override the configured model
  -q, --quiet            Suppress progress notices and the spinner
      --verbose          Debug output

Examples:
  askai "What is a goroutine?"
  cat build.log | askai "Why did this fail?"
  askai ask "Summarize this" --file notes.md
  askai ask --url https://example.com/post
  askai ask --image diagram.png "What does this show?"
  askai ask --pdf-url https://example.com/paper.pdf
  askai ask -p summarize --input text="..." --format json
  askai ask -p new                  Pick a pattern interactively
  askai chat                        Start a new conversation
  askai config set cloud.api_key sk-or-...

Environment:
  OPENROUTER_API_KEY / ASKAI_API_KEY   API key override
  ASKAI_MODEL                          Default model override
  ASKAI_CONFIG_DIR                     Config directory (default ~/.askai)
  NO_COLOR                             Disable colored output

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("askai version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given argument list. Split out from Parse so tests
// can drive it without touching os.Args.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	// Bare invocation: ask reads a piped question from stdin, or fails
	// with usage when there is nothing to ask.
	if len(remaining) == 0 {
		return CmdAsk, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "pattern", "patterns":
		parsePatternArgs(&parsedArgs, remaining)
		return CmdPattern, parsedArgs

	case "chat":
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "setup":
		return CmdSetup, parsedArgs

	case "models":
		return CmdModels, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown first word is the start of a question: askai "what is X".
		parseAskArgs(&parsedArgs, append([]string{cmd}, remaining...))
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{
		PatternInputs: make(map[string]string),
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--verbose":
			parsedArgs.Verbose = true
		case "-m", "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments. Positional words
// join into the question.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "-u", "--url":
			if i+1 < len(remaining) {
				i++
				args.URL = remaining[i]
			}
		case "-i", "--image":
			if i+1 < len(remaining) {
				i++
				args.Image = remaining[i]
			}
		case "--image-url":
			if i+1 < len(remaining) {
				i++
				args.ImageURL = remaining[i]
			}
		case "--pdf":
			if i+1 < len(remaining) {
				i++
				args.PDF = remaining[i]
			}
		case "--pdf-url":
			if i+1 < len(remaining) {
				i++
				args.PDFURL = remaining[i]
			}
		case "-p", "--pattern":
			if i+1 < len(remaining) {
				i++
				args.PatternID = remaining[i]
			}
		case "--input":
			if i+1 < len(remaining) {
				i++
				addPatternInput(args, remaining[i])
			}
		case "--web-search":
			args.WebSearch = true
		case "--format":
			if i+1 < len(remaining) {
				i++
				args.Format = remaining[i]
			}
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--file="):
				args.File = strings.TrimPrefix(arg, "--file=")
			case strings.HasPrefix(arg, "--url="):
				args.URL = strings.TrimPrefix(arg, "--url=")
			case strings.HasPrefix(arg, "--image="):
				args.Image = strings.TrimPrefix(arg, "--image=")
			case strings.HasPrefix(arg, "--image-url="):
				args.ImageURL = strings.TrimPrefix(arg, "--image-url=")
			case strings.HasPrefix(arg, "--pdf="):
				args.PDF = strings.TrimPrefix(arg, "--pdf=")
			case strings.HasPrefix(arg, "--pdf-url="):
				args.PDFURL = strings.TrimPrefix(arg, "--pdf-url=")
			case strings.HasPrefix(arg, "--pattern="):
				args.PatternID = strings.TrimPrefix(arg, "--pattern=")
			case strings.HasPrefix(arg, "--input="):
				addPatternInput(args, strings.TrimPrefix(arg, "--input="))
			case strings.HasPrefix(arg, "--format="):
				args.Format = strings.TrimPrefix(arg, "--format=")
			case strings.HasPrefix(arg, "--model="):
				args.Model = strings.TrimPrefix(arg, "--model=")
			case !strings.HasPrefix(arg, "-"):
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// addPatternInput parses one KEY=VALUE pair into the pattern input bag.
// A pair without "=" is silently dropped; the repository reports missing
// required inputs with better context later.
func addPatternInput(args *Args, pair string) {
	key, value, ok := strings.Cut(pair, "=")
	if !ok || key == "" {
		return
	}
	args.PatternInputs[key] = value
}

// parsePatternArgs parses pattern command specific arguments.
func parsePatternArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.Query = remaining[1]
		}
	}
}

// parseChatArgs parses chat command specific arguments. The first
// positional is either a subcommand (list, delete) or a conversation id.
func parseChatArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				args.Model = strings.TrimPrefix(arg, "--model=")
			case args.Subcommand == "":
				args.Subcommand = arg
			case args.Query == "":
				args.Query = arg
			}
		}
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// ERROR HANDLING: Errors must not be silently ignored

// Run dispatches a parsed command and returns the process exit code.
func Run(cmd Command, args Args) int {
	var err error

	switch cmd {
	case CmdAsk:
		err = HandleAskCommand(args)
	case CmdPattern:
		err = HandlePatternCommand(args)
	case CmdChat:
		err = HandleChatCommand(args)
	case CmdConfig:
		err = HandleConfigCommand(args)
	case CmdSetup:
		err = HandleSetupCommand(args)
	case CmdModels:
		err = HandleModelsCommand(args)
	case CmdVersion:
		PrintVersion()
	case CmdHelp:
		PrintUsage()
	}

	if err != nil {
		DisplayError(err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
