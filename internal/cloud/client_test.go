// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/askai/internal/model"
)

func testConfig() model.ModelConfiguration {
	return model.ResolveModelConfiguration(model.ProviderOpenRouter, "anthropic/claude-3.5-sonnet")
}

func TestComplete_NotConfigured(t *testing.T) {
	c := NewClient("")
	_, err := c.Complete(context.Background(), []model.Message{model.NewUserMessage("hi")}, testConfig())
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestComplete_Success(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-or-test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "https://example.com" {
			t.Errorf("HTTP-Referer = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "askai" {
			t.Errorf("X-Title = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "gen-1",
			"model": "anthropic/claude-3.5-sonnet",
			"choices": [{"message": {"role": "assistant", "content": "hello back"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
		}`))
	}))
	defer srv.Close()

	c := NewClient("sk-or-test").
		WithBaseURL(srv.URL).
		WithSiteURL("https://example.com").
		WithAppName("askai")

	resp, err := c.Complete(context.Background(), []model.Message{model.NewUserMessage("hi")}, testConfig())
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content() != "hello back" {
		t.Errorf("content = %q", resp.Content())
	}
	if gotBody["model"] != "anthropic/claude-3.5-sonnet" {
		t.Errorf("model = %v", gotBody["model"])
	}
	// A single text part goes over the wire as a plain string.
	msgs := gotBody["messages"].([]any)
	first := msgs[0].(map[string]any)
	if _, ok := first["content"].(string); !ok {
		t.Errorf("content not a plain string: %T", first["content"])
	}
}

func TestComplete_RetriesOn500(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": {"message": "upstream exploded"}}`))
			return
		}
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "recovered"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-or-test").WithBaseURL(srv.URL).WithMaxRetries(3)
	resp, err := c.Complete(context.Background(), []model.Message{model.NewUserMessage("hi")}, testConfig())
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content() != "recovered" || calls != 2 {
		t.Errorf("content = %q, calls = %d", resp.Content(), calls)
	}
}

func TestComplete_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuthFailed},
		{http.StatusPaymentRequired, ErrInsufficientCredits},
		{http.StatusNotFound, ErrModelNotFound},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"error": {"message": "nope"}}`))
		}))

		c := NewClient("sk-or-test").WithBaseURL(srv.URL)
		_, err := c.Complete(context.Background(), []model.Message{model.NewUserMessage("hi")}, testConfig())
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
		srv.Close()
	}
}

func TestBuildBody_WebSearchNative(t *testing.T) {
	cfg := model.ResolveModelConfiguration(model.ProviderOpenRouter, "openai/gpt-4o", &model.Overrides{
		WebSearch: &model.WebSearchOptions{Enabled: true, ContextSize: "high"},
	})

	body := buildBody(nil, cfg)
	if body["model"] != "openai/gpt-4o:online" {
		t.Errorf("model = %v, want :online suffix", body["model"])
	}
	opts, ok := body["web_search_options"].(map[string]any)
	if !ok || opts["search_context_size"] != "high" {
		t.Errorf("web_search_options = %v", body["web_search_options"])
	}
	if _, ok := body["plugins"]; ok {
		t.Error("plugins set alongside native web search")
	}
}

func TestBuildBody_WebSearchPlugin(t *testing.T) {
	cfg := model.ResolveModelConfiguration(model.ProviderOpenRouter, "openai/gpt-4o", &model.Overrides{
		WebSearch: &model.WebSearchOptions{Enabled: true, UsePlugin: true, MaxResults: 3, SearchPrompt: "find docs"},
	})

	body := buildBody(nil, cfg)
	if body["model"] != "openai/gpt-4o" {
		t.Errorf("model = %v, want no :online suffix with plugin", body["model"])
	}
	plugins, ok := body["plugins"].([]map[string]any)
	if !ok || len(plugins) != 1 {
		t.Fatalf("plugins = %v", body["plugins"])
	}
	if plugins[0]["id"] != "web" || plugins[0]["max_results"] != 3 || plugins[0]["search_prompt"] != "find docs" {
		t.Errorf("plugin = %v", plugins[0])
	}
}

func TestBuildBody_CustomParametersMergeLast(t *testing.T) {
	cfg := model.ResolveModelConfiguration(model.ProviderOpenRouter, "m", &model.Overrides{
		CustomParameters: map[string]any{"top_p": 0.9, "temperature": 0.1},
	})

	body := buildBody(nil, cfg)
	if body["top_p"] != 0.9 {
		t.Errorf("top_p = %v", body["top_p"])
	}
	if body["temperature"] != 0.1 {
		t.Errorf("custom temperature did not win: %v", body["temperature"])
	}
}

func TestCalculateBackoff(t *testing.T) {
	if got := calculateBackoff(1); got != 1*time.Second {
		t.Errorf("attempt 1 = %v", got)
	}
	if got := calculateBackoff(10); got != retryMaxDelay {
		t.Errorf("backoff not capped: %v", got)
	}
}

func TestAPIKeyMasked(t *testing.T) {
	c := NewClient("sk-or-supersecret")
	masked := c.APIKeyMasked()
	if strings.Contains(masked, "supersecret") || strings.Contains(masked, "sk-or") {
		t.Errorf("key material leaked: %q", masked)
	}
	if NewClient("").APIKeyMasked() != "[not set]" {
		t.Error("empty key not reported as unset")
	}
}
