// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
)

// =============================================================================
// PROVIDER TYPE
// =============================================================================

// Provider identifies which chat-completion backend a request targets.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderCustom     Provider = "custom"
)

// ParseProvider normalizes a provider name. Unknown or empty names default
// to OpenRouter, the primary backend.
func ParseProvider(s string) Provider {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai":
		return ProviderOpenAI
	case "anthropic":
		return ProviderAnthropic
	case "custom":
		return ProviderCustom
	default:
		return ProviderOpenRouter
	}
}

// =============================================================================
// WEB SEARCH OPTIONS
// =============================================================================

// Web search context sizes accepted by the OpenRouter web plugin.
const (
	WebContextLow    = "low"
	WebContextMedium = "medium"
	WebContextHigh   = "high"
)

// WebSearchOptions controls provider-side web search augmentation.
type WebSearchOptions struct {
	// Enabled turns on the :online model variant or web plugin.
	Enabled bool
	// ContextSize is low, medium, or high. Empty means provider default.
	ContextSize string
	// UsePlugin selects the explicit web plugin instead of :online.
	UsePlugin bool
	// MaxResults caps plugin search results. Zero means provider default.
	MaxResults int
	// SearchPrompt overrides the plugin's search prompt. Empty means default.
	SearchPrompt string
}

// =============================================================================
// MODEL CONFIGURATION
// =============================================================================

// ModelConfiguration is the fully resolved set of request parameters for a
// single chat-completion call. It is produced by folding override layers
// over the system defaults; see ResolveModelConfiguration.
type ModelConfiguration struct {
	Provider      Provider
	Model         string
	Temperature   float64
	MaxTokens     int
	StopSequences []string
	WebSearch     WebSearchOptions

	// CustomParameters carries provider-specific request fields that have
	// no first-class representation here. Keys are raw API field names.
	CustomParameters map[string]any
}

// System defaults applied before any override layer.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096
)

// Overrides is one layer of partial configuration. Nil fields mean "no
// opinion"; set fields replace the value accumulated so far. Layers come
// from the app config file, a pattern definition, and CLI flags.
type Overrides struct {
	Temperature   *float64
	MaxTokens     *int
	StopSequences []string
	WebSearch     *WebSearchOptions

	// CustomParameters merge key-by-key rather than replacing wholesale.
	CustomParameters map[string]any
}

// ResolveModelConfiguration folds override layers left to right over the
// system defaults. Later layers win; typical order is config file, then
// pattern, then CLI flags.
func ResolveModelConfiguration(provider Provider, modelName string, layers ...*Overrides) ModelConfiguration {
	cfg := ModelConfiguration{
		Provider:         provider,
		Model:            modelName,
		Temperature:      DefaultTemperature,
		MaxTokens:        DefaultMaxTokens,
		CustomParameters: map[string]any{},
	}

	for _, layer := range layers {
		if layer == nil {
			continue
		}
		if layer.Temperature != nil {
			cfg.Temperature = *layer.Temperature
		}
		if layer.MaxTokens != nil {
			cfg.MaxTokens = *layer.MaxTokens
		}
		if layer.StopSequences != nil {
			cfg.StopSequences = append([]string(nil), layer.StopSequences...)
		}
		if layer.WebSearch != nil {
			cfg.WebSearch = *layer.WebSearch
		}
		for k, v := range layer.CustomParameters {
			cfg.CustomParameters[k] = v
		}
	}

	return cfg
}

// EffectiveModel returns the model identifier to send on the wire. When web
// search is enabled without the explicit plugin, OpenRouter expects the
// ":online" suffix on the model name.
func (c ModelConfiguration) EffectiveModel() string {
	if c.Provider == ProviderOpenRouter && c.WebSearch.Enabled && !c.WebSearch.UsePlugin &&
		!strings.HasSuffix(c.Model, ":online") {
		return c.Model + ":online"
	}
	return c.Model
}
