// Package config builds the single run configuration threaded through the pipeline.
//
// Sources are layered, later ones winning: built-in defaults, an optional YAML file,
// a .env file in the working directory, then process environment variables. CLI flags
// are applied on top by cmd/enricher.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"

	DefaultInputPath       = "SDW2023.csv"
	DefaultOutputPath      = "SDW2023_processed.json"
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel = "openai/gpt-4o-mini"
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultMaxTokens       = 80
	DefaultTemperature     = 0.7
	DefaultRequestTimeout  = 60 * time.Second
	DefaultIconURL         = "https://digitalinnovationone.github.io/santander-dev-week-2023-api/icons/credit.svg"
	DefaultReferer         = "https://example.com"
	DefaultTitle           = "Santander ETL Project"
)

// Config is the whole run configuration.
type Config struct {
	InputPath  string `yaml:"input"`
	OutputPath string `yaml:"output"`

	LLM     LLM     `yaml:"llm"`
	Logging Logging `yaml:"logging"`

	// env holds per-provider credentials/endpoints read from the environment; the
	// provider may still change after Load (CLI flag), so they are resolved in Normalize.
	env providerEnv
}

type providerEnv struct {
	openRouterKey string
	openRouterURL string
	geminiKey     string
	geminiURL     string
}

// LLM configures the text-generation provider and the generation parameters.
type LLM struct {
	// Provider selects the backend: "openrouter" (default) or "gemini".
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	// BaseURL overrides the provider endpoint. Useful for proxies/testing.
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`

	MaxTokens      int           `yaml:"max_tokens"`
	Temperature    float64       `yaml:"temperature"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	IconURL string `yaml:"icon_url"`

	// Attribution headers sent to OpenRouter.
	Referer string `yaml:"referer"`
	Title   string `yaml:"title"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration the pipeline runs with when nothing is overridden.
func Default() Config {
	return Config{
		InputPath:  DefaultInputPath,
		OutputPath: DefaultOutputPath,
		LLM: LLM{
			Provider:       ProviderOpenRouter,
			MaxTokens:      DefaultMaxTokens,
			Temperature:    DefaultTemperature,
			RequestTimeout: DefaultRequestTimeout,
			IconURL:        DefaultIconURL,
			Referer:        DefaultReferer,
			Title:          DefaultTitle,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load layers defaults, the YAML file at path (if non-empty), .env and the environment.
//
// The returned config is not validated; call Validate once flags have been applied.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		if err := loadFile(strings.TrimSpace(path), &cfg); err != nil {
			return Config{}, err
		}
	}

	// Missing .env is the normal case; existing process env always wins.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, &ConfigError{Field: ".env", Err: err}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Field: "config file", Err: fmt.Errorf("read %s: %w", path, err)}
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return &ConfigError{Field: "config file", Err: fmt.Errorf("parse %s YAML: %w", path, err)}
	}
	return nil
}

// Normalize fills provider-dependent defaults left empty by the file and environment.
func (c *Config) Normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderOpenRouter
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		c.LLM.APIKey = c.env.key(c.LLM.Provider)
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		c.LLM.BaseURL = c.env.url(c.LLM.Provider)
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)

	switch c.LLM.Provider {
	case ProviderOpenRouter:
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = DefaultOpenRouterURL
		}
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultOpenRouterModel
		}
	case ProviderGemini:
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultGeminiModel
		}
	}
	if strings.TrimSpace(c.LLM.IconURL) == "" {
		c.LLM.IconURL = DefaultIconURL
	}
	if strings.TrimSpace(c.InputPath) == "" {
		c.InputPath = DefaultInputPath
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		c.OutputPath = DefaultOutputPath
	}
}

// Validate reports the first configuration problem that makes every model call fail.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderGemini:
	default:
		return &ConfigError{Field: "llm.provider", Err: fmt.Errorf("unknown provider %q", c.LLM.Provider)}
	}
	if c.LLM.APIKey == "" {
		return &ConfigError{Field: apiKeyEnv(c.LLM.Provider), Err: ErrMissingCredential}
	}
	if c.LLM.MaxTokens <= 0 {
		return &ConfigError{Field: "llm.max_tokens", Err: fmt.Errorf("must be positive, got %d", c.LLM.MaxTokens)}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return &ConfigError{Field: "llm.temperature", Err: fmt.Errorf("must be within [0, 2], got %g", c.LLM.Temperature)}
	}
	if c.LLM.RequestTimeout < 0 {
		return &ConfigError{Field: "llm.request_timeout", Err: fmt.Errorf("must not be negative, got %s", c.LLM.RequestTimeout)}
	}
	return nil
}

func apiKeyEnv(provider string) string {
	if provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENROUTER_API_KEY"
}

func (e providerEnv) key(provider string) string {
	if provider == ProviderGemini {
		return e.geminiKey
	}
	return e.openRouterKey
}

func (e providerEnv) url(provider string) string {
	if provider == ProviderGemini {
		return e.geminiURL
	}
	return e.openRouterURL
}
