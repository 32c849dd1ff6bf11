// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete askai configuration.
type Config struct {
	// General settings
	Version      string `toml:"version"`
	DefaultModel string `toml:"default_model"`
	// Provider selects the chat-completion backend: "openrouter" (default),
	// "openai", "anthropic", or "custom".
	Provider string `toml:"provider"`
	// ResponseFormat is the default response format: "md", "json", "rawtext"
	ResponseFormat string `toml:"response_format"`

	// Generation parameters applied as the config-file override layer
	Generation GenerationConfig `toml:"generation"`

	// Cloud provider configuration
	Cloud CloudConfig `toml:"cloud"`

	// Web search configuration
	WebSearch WebSearchConfig `toml:"web_search"`

	// Pattern output configuration
	Output OutputConfig `toml:"output"`

	// Chat history configuration
	Chat ChatConfig `toml:"chat"`
}

// GenerationConfig contains default generation parameters. Zero values mean
// "no opinion" and leave the system defaults in place.
type GenerationConfig struct {
	// Temperature is the sampling temperature (0 = use system default)
	Temperature float64 `toml:"temperature"`
	// MaxTokens caps the completion length (0 = use system default)
	MaxTokens int `toml:"max_tokens"`
	// StopSequences stop generation when emitted by the model
	StopSequences []string `toml:"stop_sequences"`
}

// CloudConfig contains chat-completion provider configuration.
type CloudConfig struct {
	// APIKey is the provider API key
	APIKey string `toml:"api_key"`
	// BaseURL overrides the provider endpoint (empty = provider default)
	BaseURL string `toml:"base_url"`
	// SiteURL is sent as the HTTP-Referer header for OpenRouter rankings
	SiteURL string `toml:"site_url"`
	// AppName is sent as the X-Title header
	AppName string `toml:"app_name"`
	// TimeoutSecs is the request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
	// MaxRetries is the number of retries for transient failures
	MaxRetries int `toml:"max_retries"`
	// RequestsPerMinute is the client-side rate limit (0 = unlimited)
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// WebSearchConfig controls provider-side web search augmentation.
type WebSearchConfig struct {
	// Enabled turns on web search for requests that opt in
	Enabled bool `toml:"enabled"`
	// Method is "native" (:online model suffix) or "plugin"
	Method string `toml:"method"`
	// ContextSize is "low", "medium", or "high"
	ContextSize string `toml:"context_size"`
	// MaxResults caps plugin search results (0 = provider default)
	MaxResults int `toml:"max_results"`
	// SearchPrompt overrides the plugin search prompt
	SearchPrompt string `toml:"search_prompt"`
}

// OutputConfig controls where pattern WRITE outputs land and how responses
// are displayed.
type OutputConfig struct {
	// Directory is where pattern outputs are written (empty = none configured)
	Directory string `toml:"directory"`
	// PatternsDir holds pattern YAML definitions (empty = ~/.askai/patterns)
	PatternsDir string `toml:"patterns_dir"`
	// RenderMarkdown enables glamour rendering of responses on a TTY
	RenderMarkdown bool `toml:"render_markdown"`
	// HighlightTheme is the chroma style for highlighted code outputs
	HighlightTheme string `toml:"highlight_theme"`
}

// ChatConfig contains persistent chat settings.
type ChatConfig struct {
	// DatabasePath overrides the history database location (empty = ~/.askai/askai.db)
	DatabasePath string `toml:"database_path"`
	// MaxContextMessages caps how many stored messages are replayed as context
	MaxContextMessages int `toml:"max_context_messages"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:        "1.0.0",
		DefaultModel:   "anthropic/claude-3.5-sonnet",
		Provider:       "openrouter",
		ResponseFormat: "md",

		Generation: GenerationConfig{
			Temperature: 0, // defer to system default
			MaxTokens:   0, // defer to system default
		},

		Cloud: CloudConfig{
			APIKey:            "",
			BaseURL:           "",
			SiteURL:           "https://github.com/jeranaias/askai",
			AppName:           "askai",
			TimeoutSecs:       120,
			MaxRetries:        3,
			RequestsPerMinute: 0,
		},

		WebSearch: WebSearchConfig{
			Enabled:     false,
			Method:      "native",
			ContextSize: "medium",
			MaxResults:  0,
		},

		Output: OutputConfig{
			Directory:      "",
			PatternsDir:    "",
			RenderMarkdown: true,
			HighlightTheme: "monokai",
		},

		Chat: ChatConfig{
			DatabasePath:       "",
			MaxContextMessages: 40,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the askai configuration directory path.
// ASKAI_CONFIG_DIR overrides the default ~/.askai (used by tests).
func ConfigDir() (string, error) {
	if dir := os.Getenv("ASKAI_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".askai"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// PatternsDir returns the directory holding pattern YAML definitions.
func (c *Config) PatternsDir() (string, error) {
	if c.Output.PatternsDir != "" {
		return c.Output.PatternsDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "patterns"), nil
}

// DatabasePath returns the chat history database path.
func (c *Config) DatabasePath() (string, error) {
	if c.Chat.DatabasePath != "" {
		return c.Chat.DatabasePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "askai.db"), nil
}

// ensureSecurePermissions checks and fixes permissions on the config file.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := loadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func loadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if the file already existed.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# askai configuration file")
	fmt.Fprintln(file, "# Generated by askai - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	validProviders := map[string]bool{"openrouter": true, "openai": true, "anthropic": true, "custom": true}
	if !validProviders[strings.ToLower(c.Provider)] {
		errs = append(errs, ValidationError{
			Field:   "provider",
			Message: fmt.Sprintf("invalid provider '%s', must be one of: openrouter, openai, anthropic, custom", c.Provider),
		})
	}

	validFormats := map[string]bool{"md": true, "json": true, "rawtext": true}
	if !validFormats[strings.ToLower(c.ResponseFormat)] {
		errs = append(errs, ValidationError{
			Field:   "response_format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: md, json, rawtext", c.ResponseFormat),
		})
	}

	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "generation.temperature",
			Message: fmt.Sprintf("must be between 0.0 and 2.0, got %v", c.Generation.Temperature),
		})
	}
	if c.Generation.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "generation.max_tokens",
			Message: "cannot be negative",
		})
	}

	if c.Cloud.BaseURL != "" {
		if _, err := url.Parse(c.Cloud.BaseURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "cloud.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}
	if c.Cloud.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "cloud.timeout_secs",
			Message: "cannot be negative",
		})
	}
	if c.Cloud.MaxRetries < 0 || c.Cloud.MaxRetries > 10 {
		errs = append(errs, ValidationError{
			Field:   "cloud.max_retries",
			Message: fmt.Sprintf("must be 0-10, got %d", c.Cloud.MaxRetries),
		})
	}

	validMethods := map[string]bool{"native": true, "plugin": true}
	if c.WebSearch.Method != "" && !validMethods[strings.ToLower(c.WebSearch.Method)] {
		errs = append(errs, ValidationError{
			Field:   "web_search.method",
			Message: fmt.Sprintf("invalid method '%s', must be native or plugin", c.WebSearch.Method),
		})
	}
	validSizes := map[string]bool{"low": true, "medium": true, "high": true}
	if c.WebSearch.ContextSize != "" && !validSizes[strings.ToLower(c.WebSearch.ContextSize)] {
		errs = append(errs, ValidationError{
			Field:   "web_search.context_size",
			Message: fmt.Sprintf("invalid size '%s', must be low, medium, or high", c.WebSearch.ContextSize),
		})
	}
	if c.WebSearch.MaxResults < 0 {
		errs = append(errs, ValidationError{
			Field:   "web_search.max_results",
			Message: "cannot be negative",
		})
	}

	if c.Chat.MaxContextMessages < 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.max_context_messages",
			Message: "cannot be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	if c.ResponseFormat == "" {
		c.ResponseFormat = defaults.ResponseFormat
	}

	if c.Cloud.SiteURL == "" {
		c.Cloud.SiteURL = defaults.Cloud.SiteURL
	}
	if c.Cloud.AppName == "" {
		c.Cloud.AppName = defaults.Cloud.AppName
	}
	if c.Cloud.TimeoutSecs == 0 {
		c.Cloud.TimeoutSecs = defaults.Cloud.TimeoutSecs
	}
	if c.Cloud.MaxRetries == 0 {
		c.Cloud.MaxRetries = defaults.Cloud.MaxRetries
	}

	if c.WebSearch.Method == "" {
		c.WebSearch.Method = defaults.WebSearch.Method
	}
	if c.WebSearch.ContextSize == "" {
		c.WebSearch.ContextSize = defaults.WebSearch.ContextSize
	}

	if c.Output.HighlightTheme == "" {
		c.Output.HighlightTheme = defaults.Output.HighlightTheme
	}

	if c.Chat.MaxContextMessages == 0 {
		c.Chat.MaxContextMessages = defaults.Chat.MaxContextMessages
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - ASKAI_MODEL: overrides default_model
//   - ASKAI_PROVIDER: overrides provider
//   - ASKAI_API_KEY / OPENROUTER_API_KEY: overrides cloud.api_key
//   - ASKAI_BASE_URL: overrides cloud.base_url
//   - ASKAI_OUTPUT_DIR: overrides output.directory
//   - ASKAI_PATTERNS_DIR: overrides output.patterns_dir
//   - ASKAI_WEB_SEARCH: set to "1" or "true" to enable web search
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("ASKAI_MODEL"); model != "" {
		c.DefaultModel = model
	}

	if provider := os.Getenv("ASKAI_PROVIDER"); provider != "" {
		c.Provider = provider
	}

	// ASKAI_API_KEY takes precedence over the provider-specific variable.
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		c.Cloud.APIKey = key
	}
	if key := os.Getenv("ASKAI_API_KEY"); key != "" {
		c.Cloud.APIKey = key
	}

	if base := os.Getenv("ASKAI_BASE_URL"); base != "" {
		c.Cloud.BaseURL = base
	}

	if dir := os.Getenv("ASKAI_OUTPUT_DIR"); dir != "" {
		c.Output.Directory = dir
	}

	if dir := os.Getenv("ASKAI_PATTERNS_DIR"); dir != "" {
		c.Output.PatternsDir = dir
	}

	if ws := os.Getenv("ASKAI_WEB_SEARCH"); ws != "" {
		c.WebSearch.Enabled = ws == "1" || strings.ToLower(ws) == "true"
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "cloud.api_key").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "cloud.api_key").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	// Handle string input with type conversion (CLI values arrive as strings).
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"default_model",
		"provider",
		"response_format",
		"generation.temperature",
		"generation.max_tokens",
		"generation.stop_sequences",
		"cloud.api_key",
		"cloud.base_url",
		"cloud.site_url",
		"cloud.app_name",
		"cloud.timeout_secs",
		"cloud.max_retries",
		"cloud.requests_per_minute",
		"web_search.enabled",
		"web_search.method",
		"web_search.context_size",
		"web_search.max_results",
		"web_search.search_prompt",
		"output.directory",
		"output.patterns_dir",
		"output.render_markdown",
		"output.highlight_theme",
		"chat.database_path",
		"chat.max_context_messages",
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Generation.StopSequences != nil {
		clone.Generation.StopSequences = append([]string(nil), c.Generation.StopSequences...)
	}
	return &clone
}

// Redacted returns a copy safe for display, with the API key masked.
// SECURITY: Secrets must not appear in plaintext in any output that could be
// logged or displayed.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Cloud.APIKey != "" {
		safe.Cloud.APIKey = "[REDACTED]"
	}
	return safe
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.ApplyEnvOverrides()
			cfg.SetDefaults()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
