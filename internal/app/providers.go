package app

import (
	"context"
	"fmt"

	"github.com/shpitdev/customer-news-enricher/internal/config"
	"github.com/shpitdev/customer-news-enricher/internal/enrich"
	"github.com/shpitdev/customer-news-enricher/internal/enrich/gemini"
	"github.com/shpitdev/customer-news-enricher/internal/enrich/openrouter"
)

// NewTextModel builds the provider selected by cfg.LLM.Provider.
//
// A missing API key fails here with *config.ConfigError, before any input is read.
func NewTextModel(ctx context.Context, cfg config.Config) (enrich.TextModel, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenRouter:
		c, err := openrouter.New(openrouter.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Referer: cfg.LLM.Referer,
			Title:   cfg.LLM.Title,
			Timeout: cfg.LLM.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderGemini:
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.LLM.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, &config.ConfigError{Field: "llm.provider", Err: fmt.Errorf("unknown provider %q", cfg.LLM.Provider)}
	}
}
