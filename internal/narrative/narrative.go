// Package narrative produces the prose attached to a movie type: a
// personality description, film and director recommendations and a quote.
package narrative

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"movietype-quiz/internal/models"
)

// Generator is the capability every narrative backend provides. Callers must
// treat any error as recoverable.
type Generator interface {
	DescribePersonality(ctx context.Context, code string) (string, error)
	Recommend(ctx context.Context, code string, averages map[string]float64) (models.Recommendations, error)
	QuoteFor(ctx context.Context, code string, summary string) (models.Quote, error)
}

// ErrMalformed marks a provider reply that could not be used.
var ErrMalformed = errors.New("malformed narrative response")

const (
	ProviderOffline = "offline"
	ProviderGenAI   = "genai"
)

// Options selects and configures a backend.
type Options struct {
	Provider string
	APIKey   string
	Model    string
}

// New builds the configured generator. A genai provider without an API key
// degrades to the offline generator.
func New(ctx context.Context, opts Options, log *zap.Logger) (Generator, error) {
	switch opts.Provider {
	case ProviderOffline, "":
		return NewOffline(), nil
	case ProviderGenAI:
		if opts.APIKey == "" {
			log.Warn("narrative provider genai has no API key, using offline content")
			return NewOffline(), nil
		}
		return NewGenAI(ctx, opts.APIKey, opts.Model, log)
	default:
		return nil, fmt.Errorf("unknown narrative provider %q", opts.Provider)
	}
}
