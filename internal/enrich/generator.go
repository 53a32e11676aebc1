// Package enrich turns a customer name into a short marketing message.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/shpitdev/customer-news-enricher/internal/redact"
)

const (
	// MaxDescriptionLen is the hard cap on Enrichment.Description, in characters.
	MaxDescriptionLen = 100

	ellipsis     = "..."
	truncatedLen = MaxDescriptionLen - len(ellipsis)
)

var errEmptyCompletion = errors.New("empty completion")

// Options configure a Generator.
type Options struct {
	Params  Params
	IconURL string
}

// Generator produces one Enrichment per customer, containing every model failure.
type Generator struct {
	model  TextModel
	params Params
	icon   string
	logger *zap.Logger
}

// NewGenerator returns a Generator calling model with opts. A nil logger discards logs.
func NewGenerator(model TextModel, opts Options, logger *zap.Logger) (*Generator, error) {
	if model == nil {
		return nil, errors.New("enrich: text model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		model:  model,
		params: opts.Params,
		icon:   strings.TrimSpace(opts.IconURL),
		logger: logger,
	}, nil
}

// BuildPrompt returns the instruction sent to the model for one customer.
func BuildPrompt(customerName string) string {
	return fmt.Sprintf(
		"Crie uma mensagem curta (máx. %d caracteres) sobre a importância dos investimentos para o cliente %s.",
		MaxDescriptionLen,
		customerName,
	)
}

// Generate asks the model for a message about investing for customerName.
//
// ok is false when the call failed for any reason; the failure has been logged and
// the caller should treat the record as having no enrichment.
func (g *Generator) Generate(ctx context.Context, customerName string) (out Enrichment, ok bool) {
	log := g.logger.With(zap.String("customer", customerName))
	log.Info("generating message")

	start := time.Now()
	text, err := g.complete(ctx, BuildPrompt(customerName))
	elapsed := time.Since(start).Round(time.Millisecond)

	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = errEmptyCompletion
		}
	}
	if err != nil {
		fields := []zap.Field{
			zap.Duration("duration", elapsed),
			zap.String("error", redact.Secrets(err.Error())),
		}
		var ge *GenerationError
		if errors.As(err, &ge) && ge.StatusCode != 0 {
			fields = append(fields, zap.Int("status", ge.StatusCode))
		}
		log.Error("message generation failed", fields...)
		return Enrichment{}, false
	}

	msg := Truncate(text)
	log.Debug("message generated",
		zap.Duration("duration", elapsed),
		zap.Int("chars", utf8.RuneCountInString(msg)),
		zap.Bool("truncated", msg != text),
	)
	return Enrichment{Icon: g.icon, Description: msg}, true
}

// complete turns a panicking model into an ordinary error.
func (g *Generator) complete(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text model panicked: %v", r)
		}
	}()
	return g.model.Complete(ctx, prompt, g.params)
}

// Truncate caps s at MaxDescriptionLen characters. Longer input keeps its first
// characters and ends with "...".
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxDescriptionLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:truncatedLen]) + ellipsis
}
