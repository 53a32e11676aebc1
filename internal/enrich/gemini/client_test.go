package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/shpitdev/customer-news-enricher/internal/config"
	"github.com/shpitdev/customer-news-enricher/internal/enrich"
)

type tempNetErr struct{}

func (tempNetErr) Error() string   { return "temp net err" }
func (tempNetErr) Timeout() bool   { return true }
func (tempNetErr) Temporary() bool { return true }

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name       string
		in         error
		wantStatus int
	}{
		{name: "api_429", in: genai.APIError{Code: 429}, wantStatus: 429},
		{name: "api_401", in: genai.APIError{Code: 401}, wantStatus: 401},
		{name: "net_timeout", in: tempNetErr{}, wantStatus: 0},
		{name: "flattened_api_error", in: errors.New(genai.APIError{Code: 500}.Error()), wantStatus: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.in)
			var ge *enrich.GenerationError
			require.ErrorAs(t, got, &ge)
			assert.Equal(t, "gemini", ge.Provider)
			assert.Equal(t, tt.wantStatus, ge.StatusCode)
			assert.Contains(t, got.Error(), tt.in.Error())
		})
	}
	assert.NoError(t, classifyErr(nil))
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{Model: "gemini-test"})
	var ce *config.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "GEMINI_API_KEY", ce.Field)
}

func TestComplete_SendsGenerationParams(t *testing.T) {
	var mu sync.Mutex
	var body map[string]any
	var path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path = r.URL.Path
		_ = json.Unmarshal(b, &body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  Invista no seu futuro!  "}]},"finishReason":"STOP"}]}`))
	}))
	defer ts.Close()

	c, err := New(context.Background(), Config{APIKey: "gem-key", Model: "gemini-test", BaseURL: ts.URL})
	require.NoError(t, err)

	got, err := c.Complete(context.Background(), "olá", enrich.Params{MaxTokens: 80, Temperature: 0.7})
	require.NoError(t, err)
	assert.Equal(t, "  Invista no seu futuro!  ", got)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, strings.HasSuffix(path, "models/gemini-test:generateContent"), "path=%s", path)
	gen, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "body=%v", body)
	assert.EqualValues(t, 80, gen["maxOutputTokens"])
	assert.InDelta(t, 0.7, gen["temperature"], 1e-6)
}

func TestComplete_APIErrorCarriesStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer ts.Close()

	c, err := New(context.Background(), Config{APIKey: "gem-key", Model: "gemini-test", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "olá", enrich.Params{MaxTokens: 80})
	var ge *enrich.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, 429, ge.StatusCode)
}
