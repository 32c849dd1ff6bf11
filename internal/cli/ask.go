// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the askai CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering and history for better CLI experience
//
// Handles the "askai ask" command: assembles the message list from every
// input source, sends one completion request, and either renders the
// response or dispatches declared pattern outputs.
//
// Command: ask [question]
//
// Examples:
//   askai ask "What is the capital of France?"
//   cat error.log | askai "Why did this fail?"
//   askai ask "Review this:" --file main.go
//   askai ask --url https://example.com/article
//   askai ask --image chart.png "Summarize this chart"
//   askai ask -p summarize --input text="..." --format json
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/askai/internal/cloud"
	"github.com/jeranaias/askai/internal/config"
	"github.com/jeranaias/askai/internal/fetch"
	"github.com/jeranaias/askai/internal/model"
	"github.com/jeranaias/askai/internal/output"
	"github.com/jeranaias/askai/internal/pattern"
	"github.com/jeranaias/askai/internal/prompt"
)

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAskCommand handles the "ask" command.
func HandleAskCommand(args Args) error {
	cfg := config.Global()
	ctx := context.Background()

	format := args.Format
	if format == "" {
		format = cfg.ResponseFormat
	}
	if format != "md" && format != "json" && format != "rawtext" {
		return NewValidationError("format", format, "must be one of: md, json, rawtext")
	}

	// Piped stdin becomes leading context; with no question and no other
	// input source it is the question itself (cat err.log | askai).
	piped := ReadPipedInput()
	question := args.Query
	if question == "" && piped != "" && !hasInputSource(args) {
		question, piped = piped, ""
	}

	if question == "" && piped == "" && !hasInputSource(args) {
		return ErrMissingArgument("question", `askai ask "your question"`)
	}

	patternsDir, err := cfg.PatternsDir()
	if err != nil {
		return WrapError(err, "failed to resolve patterns directory")
	}
	repo, err := pattern.NewRepository(patternsDir)
	if err != nil {
		return WrapError(err, "failed to open pattern repository")
	}
	defer repo.Close()

	modelName := args.Model
	if modelName == "" {
		modelName = cfg.DefaultModel
	}

	builder := prompt.NewBuilder(repo, fetch.NewFetcher())
	messages, patternID, err := builder.Build(ctx, prompt.BuildRequest{
		Question:       question,
		PipedInput:     piped,
		FileInput:      args.File,
		PatternID:      args.PatternID,
		PatternInput:   args.PatternInputs,
		ResponseFormat: format,
		URL:            args.URL,
		Image:          args.Image,
		PDF:            args.PDF,
		ImageURL:       args.ImageURL,
		PDFURL:         args.PDFURL,
		ModelName:      modelName,
	})
	if err != nil {
		if errors.Is(err, prompt.ErrCancelled) {
			return err
		}
		return WrapError(err, "failed to assemble request")
	}
	if len(messages) == 0 {
		return NewValidationError("input", "", "nothing to send after assembling the request")
	}

	// A pattern can pin its own model and generation parameters; the CLI
	// flag still outranks the pin.
	var activePattern *pattern.Pattern
	if patternID != "" {
		activePattern, err = repo.Get(patternID)
		if err != nil {
			return WrapError(err, "failed to reload pattern")
		}
		if args.Model == "" && activePattern.Model != nil && activePattern.Model.Name != "" {
			modelName = activePattern.Model.Name
		}
		Notice(args, "Using pattern: %s", patternID)
	}

	// URL inputs opt in to provider web search alongside the explicit flag.
	webSearch := args.WebSearch || (cfg.WebSearch.Enabled && args.URL != "")
	modelCfg := resolveModelConfig(cfg, modelName, activePattern, webSearch)

	client := newCloudClient(cfg)
	if !client.IsConfigured() {
		return fmt.Errorf("no API key configured: run 'askai setup' or set OPENROUTER_API_KEY")
	}

	Debug(args, "model=%s provider=%s key=%s messages=%d",
		modelCfg.EffectiveModel(), modelCfg.Provider, client.APIKeyMasked(), len(messages))

	spinner := NewSpinner("Waiting for "+modelCfg.EffectiveModel(), args)
	spinner.Start()
	start := time.Now()
	resp, err := client.Complete(ctx, messages, modelCfg)
	spinner.Stop()
	if err != nil {
		return WrapError(err, "completion failed")
	}

	content := resp.Content()
	if content == "" {
		return NewCommandError("ask", "complete", "provider returned an empty response", nil)
	}

	Debug(args, "completed in %s, %d tokens", time.Since(start).Round(time.Millisecond), resp.Usage.TotalTokens)

	if activePattern != nil && len(activePattern.Outputs) > 0 {
		return dispatchPatternOutputs(ctx, cfg, args, content, activePattern.Outputs)
	}

	displayResponse(content, format, cfg.Output.RenderMarkdown)
	return nil
}

// hasInputSource reports whether any non-question input was supplied.
func hasInputSource(args Args) bool {
	return args.File != "" || args.URL != "" || args.Image != "" ||
		args.PDF != "" || args.ImageURL != "" || args.PDFURL != "" ||
		args.PatternID != ""
}

// dispatchPatternOutputs resolves declared outputs against the response:
// writes land in the output directory, displays render to the terminal,
// and executes run last, after everything has been shown.
func dispatchPatternOutputs(ctx context.Context, cfg *config.Config, args Args, content string, outputs []pattern.Output) error {
	dispatcher := output.NewDispatcher(
		output.NewDirectoryManager(cfg.Output.Directory),
		&output.ExtensionWriter{},
	)
	result := dispatcher.HandleOutputs(content, outputs)

	for _, file := range result.CreatedFiles {
		Notice(args, "Wrote %s", file)
	}
	displayOutputs(result.Displays, cfg.Output.HighlightTheme)
	announceCommands(result.Commands)

	if len(result.Commands) > 0 {
		output.NewRunner().RunAll(ctx, result.Commands)
	}
	return nil
}

// =============================================================================
// MODEL CONFIGURATION
// =============================================================================

// resolveModelConfig folds the config file, pattern, and CLI layers over
// the system defaults.
func resolveModelConfig(cfg *config.Config, modelName string, p *pattern.Pattern, webSearch bool) model.ModelConfiguration {
	configLayer := &model.Overrides{}
	if cfg.Generation.Temperature != 0 {
		t := cfg.Generation.Temperature
		configLayer.Temperature = &t
	}
	if cfg.Generation.MaxTokens != 0 {
		m := cfg.Generation.MaxTokens
		configLayer.MaxTokens = &m
	}
	if len(cfg.Generation.StopSequences) > 0 {
		configLayer.StopSequences = cfg.Generation.StopSequences
	}

	var patternLayer *model.Overrides
	if p != nil {
		patternLayer = p.Model.Overrides()
	}

	var cliLayer *model.Overrides
	if webSearch {
		cliLayer = &model.Overrides{WebSearch: webSearchOptions(cfg)}
	}

	provider := model.ParseProvider(cfg.Provider)
	return model.ResolveModelConfiguration(provider, modelName, configLayer, patternLayer, cliLayer)
}

// webSearchOptions maps the [web_search] config table onto request options.
func webSearchOptions(cfg *config.Config) *model.WebSearchOptions {
	return &model.WebSearchOptions{
		Enabled:      true,
		ContextSize:  cfg.WebSearch.ContextSize,
		UsePlugin:    cfg.WebSearch.Method == "plugin",
		MaxResults:   cfg.WebSearch.MaxResults,
		SearchPrompt: cfg.WebSearch.SearchPrompt,
	}
}

// newCloudClient builds the completion client from config. The base URL
// defaults by provider when not explicitly set.
func newCloudClient(cfg *config.Config) *cloud.Client {
	baseURL := cfg.Cloud.BaseURL
	if baseURL == "" {
		baseURL = cloud.BaseURLFor(model.ParseProvider(cfg.Provider))
	}
	return cloud.NewClient(cfg.Cloud.APIKey).
		WithBaseURL(baseURL).
		WithTimeout(time.Duration(cfg.Cloud.TimeoutSecs) * time.Second).
		WithMaxRetries(cfg.Cloud.MaxRetries).
		WithSiteURL(cfg.Cloud.SiteURL).
		WithAppName(cfg.Cloud.AppName).
		WithRateLimit(cfg.Cloud.RequestsPerMinute)
}

// =============================================================================
// MODELS COMMAND
// =============================================================================

// HandleModelsCommand lists the models available on the provider.
func HandleModelsCommand(args Args) error {
	cfg := config.Global()
	client := newCloudClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	spinner := NewSpinner("Fetching models", args)
	spinner.Start()
	models, err := client.ListModels(ctx)
	spinner.Stop()
	if err != nil {
		return WrapError(err, "failed to list models")
	}

	fmt.Println(TitleStyle.Render("Available models"))
	for _, m := range models {
		line := m.ID
		if m.ContextSize > 0 {
			line += DimStyle.Render(fmt.Sprintf("  (%dk context)", m.ContextSize/1024))
		}
		fmt.Println("  " + line)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "%s %d models\n", DimStyle.Render("Total:"), len(models))
	return nil
}
