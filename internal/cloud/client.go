// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/askai/internal/model"
)

// Configuration constants for the chat-completion API.
const (
	// DefaultOpenRouterURL is the base URL for the OpenRouter API.
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

	// DefaultOpenAIURL is the base URL for the OpenAI API.
	DefaultOpenAIURL = "https://api.openai.com/v1"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for
	// transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024
)

// PERFORMANCE: Shared HTTP client with connection pooling for all requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// BaseURLFor returns the default base URL for a provider. Custom providers
// have no default and must configure one explicitly.
func BaseURLFor(p model.Provider) string {
	switch p {
	case model.ProviderOpenAI:
		return DefaultOpenAIURL
	default:
		return DefaultOpenRouterURL
	}
}

// Error variables for common API failures.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrAuthFailed indicates authentication failed.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrInsufficientCredits indicates the account has insufficient credits.
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// APIError represents an error payload from the completion API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Choice is one completion choice in a response.
type Choice struct {
	Message      model.Message `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a chat-completion response.
type Response struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Content returns the text of the first choice, or "" if none.
func (r *Response) Content() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Text()
	}
	return ""
}

// apiErrorResponse is the error envelope returned by the API.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client communicates with an OpenAI-compatible chat-completions endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	maxRetries int
	timeout    time.Duration
	siteURL    string
	appName    string
	limiter    *rate.Limiter
}

// NewClient creates a client with the given API key. An empty key still
// creates a usable client; Complete then fails with ErrNotConfigured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultOpenRouterURL,
		maxRetries: DefaultMaxRetries,
		timeout:    DefaultTimeout,
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.timeout = timeout
	}
	return c
}

// WithMaxRetries sets the maximum number of retry attempts.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	if maxRetries > 0 {
		c.maxRetries = maxRetries
	}
	return c
}

// WithSiteURL sets the referer URL sent for request attribution.
func (c *Client) WithSiteURL(url string) *Client {
	c.siteURL = url
	return c
}

// WithAppName sets the application title sent for request attribution.
func (c *Client) WithAppName(name string) *Client {
	c.appName = name
	return c
}

// WithRateLimit caps outgoing requests per minute. Zero disables the cap.
func (c *Client) WithRateLimit(perMinute int) *Client {
	if perMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)
	}
	return c
}

// IsConfigured reports whether the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// APIKeyMasked returns a display form of the API key.
// SECURITY: Never exposes key material beyond its length.
func (c *Client) APIKeyMasked() string {
	if c.apiKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d]", len(c.apiKey))
}

// =============================================================================
// REQUEST CONSTRUCTION
// =============================================================================

// buildBody assembles the JSON request body from the resolved model
// configuration. Web search maps to either the :online model suffix with
// web_search_options, or the explicit web plugin. Custom parameters merge
// last so a pattern can set provider-specific fields directly.
func buildBody(messages []model.Message, cfg model.ModelConfiguration) map[string]any {
	body := map[string]any{
		"model":    cfg.EffectiveModel(),
		"messages": messages,
		"stream":   false,
	}
	if cfg.Temperature != 0 {
		body["temperature"] = cfg.Temperature
	}
	if cfg.MaxTokens != 0 {
		body["max_tokens"] = cfg.MaxTokens
	}
	if len(cfg.StopSequences) > 0 {
		body["stop"] = cfg.StopSequences
	}

	if cfg.WebSearch.Enabled {
		if cfg.WebSearch.UsePlugin {
			plugin := map[string]any{"id": "web"}
			maxResults := cfg.WebSearch.MaxResults
			if maxResults <= 0 {
				maxResults = 5
			}
			plugin["max_results"] = maxResults
			if cfg.WebSearch.SearchPrompt != "" {
				plugin["search_prompt"] = cfg.WebSearch.SearchPrompt
			}
			body["plugins"] = []map[string]any{plugin}
		} else {
			contextSize := cfg.WebSearch.ContextSize
			if contextSize == "" {
				contextSize = "medium"
			}
			body["web_search_options"] = map[string]any{
				"search_context_size": contextSize,
			}
		}
	}

	for k, v := range cfg.CustomParameters {
		body[k] = v
	}
	return body
}

// setHeaders sets the required headers for API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "askai/1.0")

	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.appName != "" {
		req.Header.Set("X-Title", c.appName)
	}
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete performs a chat completion with retries and exponential backoff
// for transient failures. The caller's context bounds the whole exchange
// including backoff waits.
func (c *Client) Complete(ctx context.Context, messages []model.Message, cfg model.ModelConfiguration) (*Response, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	url := c.baseURL + "/chat/completions"
	body := buildBody(messages, cfg)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(attempt)
			log.Printf("retrying request in %s (attempt %d/%d)", delay, attempt+1, c.maxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		response, err := c.doRequest(ctx, url, body)
		if err != nil {
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return response, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return nil, errors.New("max retries exceeded")
}

// doRequest performs a single HTTP exchange against the completions
// endpoint.
func (c *Client) doRequest(ctx context.Context, requestURL string, reqBody map[string]any) (*Response, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, requestURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	log.Printf("API request: POST %s model=%s", req.URL.Path, reqBody["model"])
	start := time.Now()
	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	log.Printf("API response: %d (%v)", resp.StatusCode, time.Since(start).Round(time.Millisecond))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp Response
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

// readResponse reads the response body with a size limit.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to the error taxonomy.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		wrapped := &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}
		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, wrapped.Message)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %s", ErrInsufficientCredits, wrapped.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, wrapped.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, wrapped.Message)
		default:
			return wrapped
		}
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusPaymentRequired:
		return ErrInsufficientCredits
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{Message: string(body), Status: statusCode}
	}
}

// isRetryable determines whether an error should trigger a retry.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return false
}

// calculateBackoff returns the delay before the next retry attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// =============================================================================
// MODEL LISTING
// =============================================================================

// Pricing is the per-token cost information for a model.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// ModelInfo describes one available model.
type ModelInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ContextSize int     `json:"context_length"`
	Pricing     Pricing `json:"pricing"`
}

// modelsResponse is the wire shape of the model listing endpoint.
type modelsResponse struct {
	Data []struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		ContextLength int      `json:"context_length"`
		Pricing       *Pricing `json:"pricing"`
	} `json:"data"`
}

// ListModels retrieves the available models from the provider.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "askai/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Message: fmt.Sprintf("failed to list models: %s", string(body)),
			Status:  resp.StatusCode,
		}
	}

	var modelsResp modelsResponse
	if err := json.Unmarshal(body, &modelsResp); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}

	models := make([]ModelInfo, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		info := ModelInfo{
			ID:          m.ID,
			Name:        m.Name,
			ContextSize: m.ContextLength,
		}
		if m.Pricing != nil {
			info.Pricing = *m.Pricing
		}
		models = append(models, info)
	}
	return models, nil
}
