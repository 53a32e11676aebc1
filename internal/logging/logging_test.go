package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shpitdev/customer-news-enricher/internal/config"
	"github.com/shpitdev/customer-news-enricher/internal/logging"
)

func TestNewWriter_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := logging.NewWriter(config.Logging{Level: "info", Format: "console"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("records loaded", zap.Int("records", 3))
	logger.Error("message generation failed", zap.String("customer", "Bruno"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "\tINFO\trecords loaded\t")
	assert.Contains(t, lines[0], `"records": 3`)
	assert.Contains(t, lines[1], "\tERROR\tmessage generation failed\t")
}

func TestNewWriter_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := logging.NewWriter(config.Logging{Level: "DEBUG", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("generating message", zap.String("customer", "Ana"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "generating message", entry["msg"])
	assert.Equal(t, "Ana", entry["customer"])
	assert.NotEmpty(t, entry["ts"])
}

func TestNewWriter_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cfg   config.Logging
		field string
	}{
		{name: "level", cfg: config.Logging{Level: "loud", Format: "console"}, field: "logging.level"},
		{name: "format", cfg: config.Logging{Level: "info", Format: "xml"}, field: "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := logging.NewWriter(tt.cfg, &bytes.Buffer{})
			var ce *config.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}
