// Package openrouter implements enrich.TextModel against an OpenAI-compatible
// chat completions endpoint (OpenRouter by default).
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shpitdev/customer-news-enricher/internal/config"
	"github.com/shpitdev/customer-news-enricher/internal/enrich"
	"github.com/shpitdev/customer-news-enricher/internal/redact"
)

const providerName = "openrouter"

// ErrNoChoices is returned when a 2xx response carries no completion.
var ErrNoChoices = errors.New("no completion returned")

// Config holds the connection settings for New.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Referer and Title are sent as HTTP-Referer / X-Title attribution headers.
	Referer string
	Title   string

	// Timeout bounds one HTTP round-trip. Zero means no client-side timeout.
	Timeout time.Duration
}

// Client is a minimal chat completions client.
type Client struct {
	apiKey   string
	endpoint string
	model    string
	referer  string
	title    string
	http     *http.Client
}

// New constructs a client for cfg. An empty APIKey fails with *config.ConfigError;
// empty BaseURL and Model fall back to the OpenRouter defaults.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, &config.ConfigError{Field: "OPENROUTER_API_KEY", Err: config.ErrMissingCredential}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultOpenRouterURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = config.DefaultOpenRouterModel
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		apiKey:   apiKey,
		endpoint: baseURL + "/chat/completions",
		model:    model,
		referer:  strings.TrimSpace(cfg.Referer),
		title:    strings.TrimSpace(cfg.Title),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string, params enrich.Params) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return "", c.fail(0, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", c.fail(0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.fail(0, fmt.Errorf("request failed: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", c.fail(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode/100 != 2 {
		return "", c.fail(resp.StatusCode, errors.New(errorSummary(b)))
	}

	var out chatResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", c.fail(resp.StatusCode, fmt.Errorf("parse response: %w", err))
	}
	// OpenRouter reports some upstream failures inside a 200 body.
	if out.Error != nil {
		return "", c.fail(resp.StatusCode, fmt.Errorf("api error: %s", redact.Secrets(out.Error.Message)))
	}
	if len(out.Choices) == 0 {
		return "", c.fail(resp.StatusCode, ErrNoChoices)
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) fail(status int, err error) error {
	return &enrich.GenerationError{Provider: providerName, StatusCode: status, Err: err}
}

// errorSummary extracts the error message from a non-2xx body, falling back to a
// small redacted snippet. Raw bodies are never returned whole.
func errorSummary(body []byte) string {
	var env chatResponse
	if json.Unmarshal(body, &env) == nil && env.Error != nil && strings.TrimSpace(env.Error.Message) != "" {
		return "api error: " + redact.Secrets(env.Error.Message)
	}
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := redact.Secrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return "empty error body"
	}
	if len(body) > max {
		s += "..."
	}
	return "body=" + s
}
