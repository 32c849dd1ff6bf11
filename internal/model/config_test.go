// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input string
		want  Provider
	}{
		{"openrouter", ProviderOpenRouter},
		{"OpenAI", ProviderOpenAI},
		{" anthropic ", ProviderAnthropic},
		{"custom", ProviderCustom},
		{"", ProviderOpenRouter},
		{"garbage", ProviderOpenRouter},
	}
	for _, tt := range tests {
		if got := ParseProvider(tt.input); got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResolveModelConfiguration_Defaults(t *testing.T) {
	cfg := ResolveModelConfiguration(ProviderOpenRouter, "meta-llama/llama-3-8b")
	if cfg.Temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want %v", cfg.Temperature, DefaultTemperature)
	}
	if cfg.MaxTokens != DefaultMaxTokens {
		t.Errorf("max tokens = %d, want %d", cfg.MaxTokens, DefaultMaxTokens)
	}
	if cfg.Model != "meta-llama/llama-3-8b" {
		t.Errorf("model = %q", cfg.Model)
	}
}

func TestResolveModelConfiguration_LaterLayersWin(t *testing.T) {
	fileLayer := &Overrides{
		Temperature: floatPtr(0.2),
		MaxTokens:   intPtr(1024),
	}
	patternLayer := &Overrides{
		Temperature: floatPtr(0.9),
	}
	cliLayer := &Overrides{
		MaxTokens: intPtr(8192),
	}

	cfg := ResolveModelConfiguration(ProviderOpenRouter, "m", fileLayer, patternLayer, cliLayer)
	if cfg.Temperature != 0.9 {
		t.Errorf("temperature = %v, want pattern value 0.9", cfg.Temperature)
	}
	if cfg.MaxTokens != 8192 {
		t.Errorf("max tokens = %d, want CLI value 8192", cfg.MaxTokens)
	}
}

func TestResolveModelConfiguration_NilLayersSkipped(t *testing.T) {
	cfg := ResolveModelConfiguration(ProviderOpenRouter, "m", nil, &Overrides{Temperature: floatPtr(0.1)}, nil)
	if cfg.Temperature != 0.1 {
		t.Errorf("temperature = %v, want 0.1", cfg.Temperature)
	}
}

func TestResolveModelConfiguration_CustomParamsMerge(t *testing.T) {
	a := &Overrides{CustomParameters: map[string]any{"top_p": 0.95, "seed": 1}}
	b := &Overrides{CustomParameters: map[string]any{"seed": 42}}

	cfg := ResolveModelConfiguration(ProviderOpenRouter, "m", a, b)
	if cfg.CustomParameters["top_p"] != 0.95 {
		t.Errorf("top_p lost in merge: %v", cfg.CustomParameters)
	}
	if cfg.CustomParameters["seed"] != 42 {
		t.Errorf("seed = %v, want later layer 42", cfg.CustomParameters["seed"])
	}
}

func TestEffectiveModel_OnlineSuffix(t *testing.T) {
	cfg := ResolveModelConfiguration(ProviderOpenRouter, "openai/gpt-4o", &Overrides{
		WebSearch: &WebSearchOptions{Enabled: true},
	})
	if got := cfg.EffectiveModel(); got != "openai/gpt-4o:online" {
		t.Errorf("EffectiveModel = %q, want :online suffix", got)
	}

	// Explicit plugin keeps the bare model name.
	cfg.WebSearch.UsePlugin = true
	if got := cfg.EffectiveModel(); got != "openai/gpt-4o" {
		t.Errorf("EffectiveModel with plugin = %q, want bare name", got)
	}

	// Suffix never doubled.
	cfg.WebSearch.UsePlugin = false
	cfg.Model = "openai/gpt-4o:online"
	if got := cfg.EffectiveModel(); got != "openai/gpt-4o:online" {
		t.Errorf("EffectiveModel = %q, suffix doubled", got)
	}
}
