package narrative

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"movietype-quiz/internal/models"
	"movietype-quiz/internal/scoring"
)

const (
	catalogTTL         = 24 * time.Hour
	catalogConcurrency = 4
)

// TypeCatalog lists every possible code for the curated dimensions with its
// archetype and description. Results are cached; concurrent builds for the
// same dimension set share one generation pass.
type TypeCatalog struct {
	gen     Generator
	log     *zap.Logger
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	key     string
	entries []models.TypeSummary
	expires time.Time
}

func NewTypeCatalog(gen Generator, timeout time.Duration, log *zap.Logger) *TypeCatalog {
	return &TypeCatalog{
		gen:     gen,
		log:     log,
		ttl:     catalogTTL,
		timeout: timeout,
		now:     time.Now,
	}
}

// List returns the catalog, regenerating it when expired, when the dimension
// set changed or when refresh is set.
func (c *TypeCatalog) List(ctx context.Context, dims []models.Dimension, refresh bool) ([]models.TypeSummary, error) {
	codes := scoring.AllCodes(dims)
	key := strings.Join(codes, ",")

	c.mu.Lock()
	if !refresh && c.key == key && c.now().Before(c.expires) {
		entries := c.entries
		c.mu.Unlock()
		return entries, nil
	}
	c.mu.Unlock()

	// Shared by every waiting caller; describe bounds each call.
	buildCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		entries, err := c.build(buildCtx, dims, codes)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.key = key
		c.entries = entries
		c.expires = c.now().Add(c.ttl)
		c.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.TypeSummary), nil
}

func (c *TypeCatalog) build(ctx context.Context, dims []models.Dimension, codes []string) ([]models.TypeSummary, error) {
	entries := make([]models.TypeSummary, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogConcurrency)
	for i, code := range codes {
		g.Go(func() error {
			archetype := ArchetypeFor(code)
			entries[i] = models.TypeSummary{
				Code:        code,
				Poles:       scoring.Poles(dims, code),
				Title:       archetype.Title,
				Description: c.describe(gctx, code, archetype),
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *TypeCatalog) describe(ctx context.Context, code string, archetype models.Archetype) string {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	text, err := c.gen.DescribePersonality(ctx, code)
	if err != nil || text == "" {
		if err != nil {
			c.log.Warn("type description unavailable, using archetype", zap.String("code", code), zap.Error(err))
		}
		return archetype.Description
	}
	return text
}
