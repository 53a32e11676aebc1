package enrich

import (
	"context"
	"fmt"
)

// Enrichment is the news payload attached to a customer record.
type Enrichment struct {
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// Params are the generation parameters sent with every completion request.
//
// MaxTokens only approximates the character cap; Generator truncates afterwards.
type Params struct {
	MaxTokens   int
	Temperature float64
}

// TextModel performs one synchronous text-generation call.
type TextModel interface {
	Complete(ctx context.Context, prompt string, params Params) (string, error)
}

// GenerationError describes a failed completion call.
type GenerationError struct {
	Provider string
	// StatusCode is the upstream HTTP status, 0 when the request never got a response.
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	if e == nil || e.Err == nil {
		return "generation error"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
