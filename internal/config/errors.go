package config

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is wrapped by ConfigError when no API key is configured.
var ErrMissingCredential = errors.New("API key is required")

// ConfigError is a fatal configuration problem detected before any record is processed.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e == nil || e.Err == nil {
		return "config error"
	}
	if e.Field == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
