package store

import (
	"context"
	"errors"
	"fmt"

	"movietype-quiz/internal/models"
)

// ErrNotFound is returned when a dimension or question id does not exist.
var ErrNotFound = errors.New("not found")

// Store is the durable home of the curated catalog and the respondents'
// answers.
type Store interface {
	EnsureSchema(ctx context.Context) error
	// SeedCatalog inserts the catalog when the store is empty, or replaces
	// everything (responses included) when replace is set. It reports whether
	// anything was written.
	SeedCatalog(ctx context.Context, catalog []models.DimensionSeed, replace bool) (bool, error)

	// Dimensions and Questions are returned in curated (ascending id) order.
	Dimensions(ctx context.Context) ([]models.Dimension, error)
	Questions(ctx context.Context) ([]models.Question, error)
	Question(ctx context.Context, id int64) (models.Question, error)
	DeleteDimension(ctx context.Context, id int64) error

	// RecordResponse stores an identity's answer to a question, replacing any
	// earlier answer to the same question.
	RecordResponse(ctx context.Context, r models.Response) (models.Response, error)
	// ResponsesFor returns an identity's responses with DimensionID set.
	ResponsesFor(ctx context.Context, identity string) ([]models.Response, error)
	ClearResponses(ctx context.Context, identity string) (int64, error)
	AllResponses(ctx context.Context) ([]models.Response, error)
	ResetResponses(ctx context.Context) error

	Ping(ctx context.Context) error
	Close()
}

// Open picks a backend by driver name.
func Open(ctx context.Context, driver, url string) (Store, error) {
	switch driver {
	case "postgres", "pgx":
		return NewPostgres(ctx, url)
	case "sqlite", "":
		return NewSQLite(ctx, url)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
