// Package gemini implements enrich.TextModel with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/shpitdev/customer-news-enricher/internal/config"
	"github.com/shpitdev/customer-news-enricher/internal/enrich"
)

const providerName = "gemini"

// Config holds the connection settings for New.
type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// Timeout bounds one HTTP round-trip. Zero means no client-side timeout.
	Timeout time.Duration
}

// Client generates text with a Gemini model.
type Client struct {
	client *genai.Client
	model  string
}

// New constructs a Gemini API client. An empty APIKey fails with *config.ConfigError.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &config.ConfigError{Field: "GEMINI_API_KEY", Err: config.ErrMissingCredential}
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = config.DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:     strings.TrimSpace(cfg.APIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &config.ConfigError{Field: "gemini client", Err: err}
	}
	return &Client{
		client: client,
		model:  model,
	}, nil
}

// Complete generates a single candidate for prompt.
func (c *Client) Complete(ctx context.Context, prompt string, params enrich.Params) (string, error) {
	gc := &genai.GenerateContentConfig{
		CandidateCount: 1,
		Temperature:    genai.Ptr(float32(params.Temperature)),
	}
	if params.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(params.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), gc)
	if err != nil {
		return "", classifyErr(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		reason := "no candidates returned"
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return "", &enrich.GenerationError{Provider: providerName, Err: errors.New(reason)}
	}
	return resp.Text(), nil
}

// classifyErr attaches the upstream status code when the SDK reports one.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &enrich.GenerationError{Provider: providerName, StatusCode: apiErr.Code, Err: err}
	}
	return &enrich.GenerationError{Provider: providerName, Err: err}
}
