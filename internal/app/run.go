package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shpitdev/customer-news-enricher/internal/config"
	"github.com/shpitdev/customer-news-enricher/internal/enrich"
	"github.com/shpitdev/customer-news-enricher/internal/pipeline"
	"github.com/shpitdev/customer-news-enricher/internal/redact"
	"github.com/shpitdev/customer-news-enricher/internal/source"
)

// Run loads cfg.InputPath, enriches every record with model and writes the enriched
// records to cfg.OutputPath.
//
// Only load failures are returned. Per-record generation failures and output write
// failures are logged and do not fail the run.
func Run(ctx context.Context, cfg config.Config, model enrich.TextModel, logger *zap.Logger) error {
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	runStart := time.Now()
	logger.Info("pipeline run start",
		zap.String("input", cfg.InputPath),
		zap.String("output", cfg.OutputPath),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Int("max_tokens", cfg.LLM.MaxTokens),
		zap.Float64("temperature", cfg.LLM.Temperature),
	)

	gen, err := enrich.NewGenerator(model, enrich.Options{
		Params: enrich.Params{
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		},
		IconURL: cfg.LLM.IconURL,
	}, logger)
	if err != nil {
		return err
	}

	ds, err := source.Load(cfg.InputPath, logger)
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}

	enriched := pipeline.Enrich(ctx, ds, gen, logger)
	Save(enriched, cfg.OutputPath, logger)

	logger.Info("pipeline run complete", zap.Duration("duration", time.Since(runStart).Round(time.Millisecond)))
	return nil
}

// Save writes the enriched rows to path. Failures are logged, never returned.
func Save(ds pipeline.EnrichedDataset, path string, logger *zap.Logger) {
	if err := writeFile(ds, path); err != nil {
		logger.Error("failed to save output",
			zap.String("path", path),
			zap.String("error", redact.Secrets(err.Error())),
		)
		return
	}
	logger.Info("output saved", zap.String("path", path), zap.Int("records", len(ds.Present())))
}

func writeFile(ds pipeline.EnrichedDataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if err := pipeline.WriteJSON(f, ds); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return f.Close()
}
