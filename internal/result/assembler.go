// Package result turns an identity's responses into the presentation-ready
// quiz result.
package result

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"movietype-quiz/internal/models"
	"movietype-quiz/internal/narrative"
	"movietype-quiz/internal/scoring"
)

// Assembler combines scoring with narrative content. Narrative failures never
// fail assembly; the offline generator fills the gap.
type Assembler struct {
	gen      narrative.Generator
	fallback *narrative.Offline
	timeout  time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewAssembler(gen narrative.Generator, timeout time.Duration, log *zap.Logger) *Assembler {
	return &Assembler{
		gen:      gen,
		fallback: narrative.NewOffline(),
		timeout:  timeout,
		log:      log,
		now:      time.Now,
	}
}

// Assemble builds the result for identity from its responses.
func (a *Assembler) Assemble(ctx context.Context, identity string, dims []models.Dimension, responses []models.Response) models.Result {
	code := scoring.TypeCode(dims, responses)
	breakdown := scoring.Breakdown(dims, responses)
	averages := averagesByAxis(breakdown)
	summary := PreferenceSummary(breakdown)

	res := models.Result{
		Identity:    identity,
		TypeCode:    code,
		Archetype:   narrative.ArchetypeFor(code),
		Breakdown:   breakdown,
		GeneratedAt: a.now().UTC(),
	}

	var g errgroup.Group
	g.Go(func() error {
		text, ok := fetch(ctx, a, "description", code, func(ctx context.Context) (string, error) {
			text, err := a.gen.DescribePersonality(ctx, code)
			if err == nil && strings.TrimSpace(text) == "" {
				err = narrative.ErrMalformed
			}
			return text, err
		})
		if !ok {
			text, _ = a.fallback.DescribePersonality(ctx, code)
			res.Fallback.Description = true
		}
		res.Description = text
		return nil
	})
	g.Go(func() error {
		recs, ok := fetch(ctx, a, "recommendations", code, func(ctx context.Context) (models.Recommendations, error) {
			return a.gen.Recommend(ctx, code, averages)
		})
		if !ok {
			recs, _ = a.fallback.Recommend(ctx, code, averages)
			res.Fallback.Recommendations = true
		}
		res.Recommendations = recs
		return nil
	})
	g.Go(func() error {
		quote, ok := fetch(ctx, a, "quote", code, func(ctx context.Context) (models.Quote, error) {
			return a.gen.QuoteFor(ctx, code, summary)
		})
		if !ok {
			quote, _ = a.fallback.QuoteFor(ctx, code, summary)
			res.Fallback.Quote = true
		}
		res.Quote = quote
		return nil
	})
	_ = g.Wait()

	if res.Fallback.Any() {
		a.log.Info("result assembled with fallback content",
			zap.String("code", code),
			zap.Bool("description", res.Fallback.Description),
			zap.Bool("recommendations", res.Fallback.Recommendations),
			zap.Bool("quote", res.Fallback.Quote))
	}
	return res
}

type outcome[T any] struct {
	value T
	err   error
}

// fetch runs fn under the narrative timeout and reports whether its value is
// usable. A call that overruns the deadline is abandoned; its late result
// lands in a buffered channel nobody reads.
func fetch[T any](ctx context.Context, a *Assembler, part, code string, fn func(context.Context) (T, error)) (T, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		var o outcome[T]
		o.err = safely(func() error {
			var err error
			o.value, err = fn(ctx)
			return err
		})
		done <- o
	}()

	var o outcome[T]
	select {
	case o = <-done:
	case <-ctx.Done():
		o.err = ctx.Err()
	}
	if o.err != nil {
		a.log.Warn("narrative generator failed, using fallback",
			zap.String("part", part), zap.String("code", code), zap.Error(o.err))
		var zero T
		return zero, false
	}
	return o.value, true
}

func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("narrative generator panic: %v", r)
		}
	}()
	return fn()
}

// PreferenceSummary renders the breakdown as "strong preference for Plot,
// slight preference for Gravitas".
func PreferenceSummary(breakdown []models.DimensionBreakdown) string {
	parts := make([]string, 0, len(breakdown))
	for _, b := range breakdown {
		if b.Responses == 0 {
			continue
		}
		pole := b.LowLabel
		if b.LeansHigh {
			pole = b.HighLabel
		}
		switch strength := math.Abs(b.Average); {
		case strength >= 0.5:
			parts = append(parts, "strong preference for "+pole)
		case strength > 0:
			parts = append(parts, "slight preference for "+pole)
		default:
			parts = append(parts, fmt.Sprintf("balanced between %s and %s", b.HighLabel, b.LowLabel))
		}
	}
	return strings.Join(parts, ", ")
}

func averagesByAxis(breakdown []models.DimensionBreakdown) map[string]float64 {
	out := make(map[string]float64, len(breakdown))
	for _, b := range breakdown {
		out[b.HighLabel+" vs "+b.LowLabel] = b.Average
	}
	return out
}
