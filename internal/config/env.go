package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func applyEnv(cfg *Config) error {
	cfg.env = providerEnv{
		openRouterKey: envString("OPENROUTER_API_KEY"),
		openRouterURL: envString("OPENROUTER_BASE_URL"),
		geminiKey:     envString("GEMINI_API_KEY"),
		geminiURL:     envString("GEMINI_BASE_URL"),
	}

	setString(&cfg.InputPath, "ENRICHER_INPUT")
	setString(&cfg.OutputPath, "ENRICHER_OUTPUT")
	setString(&cfg.LLM.Provider, "ENRICHER_PROVIDER")
	setString(&cfg.LLM.Model, "ENRICHER_MODEL")
	setString(&cfg.LLM.IconURL, "ENRICHER_ICON_URL")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")

	var err error
	if cfg.LLM.MaxTokens, err = envInt("ENRICHER_MAX_TOKENS", cfg.LLM.MaxTokens); err != nil {
		return err
	}
	if cfg.LLM.Temperature, err = envFloat("ENRICHER_TEMPERATURE", cfg.LLM.Temperature); err != nil {
		return err
	}
	if cfg.LLM.RequestTimeout, err = envDuration("ENRICHER_REQUEST_TIMEOUT", cfg.LLM.RequestTimeout); err != nil {
		return err
	}
	return nil
}

func envString(varName string) string {
	return strings.TrimSpace(os.Getenv(varName))
}

func setString(dst *string, varName string) {
	if v := envString(varName); v != "" {
		*dst = v
	}
}

func envInt(varName string, fallback int) (int, error) {
	v := envString(varName)
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ConfigError{Field: varName, Err: fmt.Errorf("invalid %q: %w", v, err)}
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := envString(varName)
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &ConfigError{Field: varName, Err: fmt.Errorf("invalid %q: %w", v, err)}
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := envString(varName)
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ConfigError{Field: varName, Err: fmt.Errorf("invalid %q: %w", v, err)}
	}
	return out, nil
}
