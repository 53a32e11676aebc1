// Package logging builds the process logger from config.Logging.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shpitdev/customer-news-enricher/internal/config"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a logger writing to stderr.
func New(cfg config.Logging) (*zap.Logger, error) {
	return NewWriter(cfg, os.Stderr)
}

// NewWriter returns a logger writing to w with the level and encoding from cfg.
//
// Console output reads "<time>\t<LEVEL>\t<message>\t<fields>". Stack traces are not
// attached; errors are logged as redacted strings.
func NewWriter(cfg config.Logging, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, &config.ConfigError{Field: "logging.level", Err: err}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatConsole:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, &config.ConfigError{Field: "logging.format", Err: fmt.Errorf("unknown format %q", cfg.Format)}
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(w)))), nil
}
