package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shpitdev/customer-news-enricher/internal/app"
	"github.com/shpitdev/customer-news-enricher/internal/config"
	"github.com/shpitdev/customer-news-enricher/internal/logging"
	"github.com/shpitdev/customer-news-enricher/internal/redact"
	"github.com/shpitdev/customer-news-enricher/internal/version"
)

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var fe *fatalError
	if !errors.As(err, &fe) {
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", redact.Secrets(err.Error()))
	}
	os.Exit(exitCode(err))
}

// fatalError marks a run failure that has already been logged.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() error { return e.err }

// exitCode is 1 for a failed run and 2 for usage or configuration errors.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var fe *fatalError
	if errors.As(err, &fe) {
		return 1
	}
	return 2
}

// runFlags holds the run command's flags. Only flags set on the command line override
// the file and environment layers.
type runFlags struct {
	configPath string
	input      string
	output     string
	provider   string
	model      string
	baseURL    string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "enricher",
		Short:         "Enrich customer records with a short LLM-generated investment message",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Current)
			return err
		},
	}
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read the input CSV, generate one message per customer and write the JSON output",
		Long: `Reads customer records (columns "id" and "name" required) from the input CSV,
asks the configured LLM provider for a message about investing for each customer, and
writes the records that received a message to the output JSON file.

A failed generation drops that record from the output and the run continues.
Missing credentials or an unreadable input stop the run with exit code 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(f, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			if err := execute(cmd.Context(), cfg, logger); err != nil {
				logger.Error("pipeline run failed", zap.String("error", redact.Secrets(err.Error())))
				return &fatalError{err: err}
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", os.Getenv("ENRICHER_CONFIG"), "YAML config file (env: ENRICHER_CONFIG)")
	fl.StringVar(&f.input, "input", "", "Input CSV path (env: ENRICHER_INPUT, default "+config.DefaultInputPath+")")
	fl.StringVar(&f.output, "output", "", "Output JSON path (env: ENRICHER_OUTPUT, default "+config.DefaultOutputPath+")")
	fl.StringVar(&f.provider, "provider", "", "LLM provider: openrouter or gemini (env: ENRICHER_PROVIDER)")
	fl.StringVar(&f.model, "model", "", "Model name (env: ENRICHER_MODEL)")
	fl.StringVar(&f.baseURL, "base-url", "", "Provider API base URL (env: OPENROUTER_BASE_URL / GEMINI_BASE_URL)")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (env: LOG_LEVEL)")
	fl.StringVar(&f.logFormat, "log-format", "", "Log format: console or json (env: LOG_FORMAT)")
	return cmd
}

// resolveConfig applies flags over config.Load and validates the result.
func resolveConfig(f runFlags, changed func(name string) bool) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}

	override := func(dst *string, flag, val string) {
		if changed(flag) {
			*dst = val
		}
	}
	override(&cfg.InputPath, "input", f.input)
	override(&cfg.OutputPath, "output", f.output)
	override(&cfg.LLM.Provider, "provider", f.provider)
	override(&cfg.LLM.Model, "model", f.model)
	override(&cfg.LLM.BaseURL, "base-url", f.baseURL)
	override(&cfg.Logging.Level, "log-level", f.logLevel)
	override(&cfg.Logging.Format, "log-format", f.logFormat)

	cfg.Normalize()
	return cfg, nil
}

// execute returns only fatal errors: bad credentials, an unknown provider or an
// unloadable input.
func execute(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	model, err := app.NewTextModel(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := model.(interface{ Close() }); ok {
		defer c.Close()
	}
	return app.Run(ctx, cfg, model, logger)
}
