package result

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"movietype-quiz/internal/models"
	"movietype-quiz/internal/narrative"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var dims = []models.Dimension{
	{ID: 1, Name: "Narrative Preference", HighLabel: "Plot", LowLabel: "Atmosphere"},
	{ID: 2, Name: "Tonal Inclination", HighLabel: "Whimsy", LowLabel: "Gravitas"},
}

var responses = []models.Response{
	{Identity: "a@b.com", QuestionID: 1, DimensionID: 1, Value: 1},
	{Identity: "a@b.com", QuestionID: 2, DimensionID: 2, Value: 5},
}

type stubGenerator struct {
	description string
	recs        models.Recommendations
	quote       models.Quote
	err         error
	block       bool
	panics      bool

	gotAverages map[string]float64
	gotSummary  string
}

func (s *stubGenerator) wait(ctx context.Context) error {
	if s.panics {
		panic("generator exploded")
	}
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func (s *stubGenerator) DescribePersonality(ctx context.Context, code string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return s.description, nil
}

func (s *stubGenerator) Recommend(ctx context.Context, code string, averages map[string]float64) (models.Recommendations, error) {
	s.gotAverages = averages
	if err := s.wait(ctx); err != nil {
		return models.Recommendations{}, err
	}
	return s.recs, nil
}

func (s *stubGenerator) QuoteFor(ctx context.Context, code string, summary string) (models.Quote, error) {
	s.gotSummary = summary
	if err := s.wait(ctx); err != nil {
		return models.Quote{}, err
	}
	return s.quote, nil
}

func TestAssembleWithGeneratedContent(t *testing.T) {
	gen := &stubGenerator{
		description: "A lover of plots.",
		recs:        models.Recommendations{Films: []string{"Heat"}, Directors: []string{"Michael Mann"}},
		quote:       models.Quote{Text: "Here's looking at you, kid.", Attribution: "Casablanca (1942)"},
	}
	a := NewAssembler(gen, time.Second, zap.NewNop())

	res := a.Assemble(context.Background(), "a@b.com", dims, responses)
	assert.Equal(t, "PG", res.TypeCode)
	assert.Equal(t, "a@b.com", res.Identity)
	assert.Equal(t, "A lover of plots.", res.Description)
	assert.Equal(t, []string{"Heat"}, res.Recommendations.Films)
	assert.Equal(t, "Casablanca (1942)", res.Quote.Attribution)
	assert.False(t, res.Fallback.Any())
	assert.False(t, res.GeneratedAt.IsZero())

	require.Len(t, res.Breakdown, 2)
	assert.True(t, res.Breakdown[0].LeansHigh)
	assert.Equal(t, "P", res.Breakdown[0].Letter)
	assert.False(t, res.Breakdown[1].LeansHigh)
	assert.Equal(t, "G", res.Breakdown[1].Letter)

	assert.Equal(t, map[string]float64{"Plot vs Atmosphere": -1, "Whimsy vs Gravitas": 1}, gen.gotAverages)
	assert.Equal(t, "strong preference for Plot, strong preference for Gravitas", gen.gotSummary)
}

func TestAssembleFallsBackOnErrors(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider down")}
	a := NewAssembler(gen, time.Second, zap.NewNop())

	res := a.Assemble(context.Background(), "a@b.com", dims, responses)
	assertFallback(t, res)
}

func TestAssembleFallsBackOnTimeout(t *testing.T) {
	gen := &stubGenerator{block: true}
	a := NewAssembler(gen, 20*time.Millisecond, zap.NewNop())

	start := time.Now()
	res := a.Assemble(context.Background(), "a@b.com", dims, responses)
	assert.Less(t, time.Since(start), time.Second)
	assertFallback(t, res)
}

func TestAssembleFallsBackOnPanic(t *testing.T) {
	a := NewAssembler(&stubGenerator{panics: true}, time.Second, zap.NewNop())
	assertFallback(t, a.Assemble(context.Background(), "a@b.com", dims, responses))
}

func TestAssembleFallsBackOnEmptyDescription(t *testing.T) {
	gen := &stubGenerator{
		recs:  models.Recommendations{Films: []string{"Heat"}, Directors: []string{"Michael Mann"}},
		quote: models.Quote{Text: "q", Attribution: "a"},
	}
	res := NewAssembler(gen, time.Second, zap.NewNop()).Assemble(context.Background(), "a@b.com", dims, responses)
	assert.True(t, res.Fallback.Description)
	assert.False(t, res.Fallback.Recommendations)
	assert.Equal(t, narrative.DefaultArchetype.Description, res.Description)
}

func assertFallback(t *testing.T, res models.Result) {
	t.Helper()
	assert.Equal(t, "PG", res.TypeCode)
	assert.Equal(t, models.FallbackFlags{Description: true, Recommendations: true, Quote: true}, res.Fallback)
	assert.Equal(t, narrative.ArchetypeFor("PG").Description, res.Description)
	assert.Equal(t, narrative.FallbackRecommendations, res.Recommendations)
	assert.Equal(t, narrative.FallbackQuote, res.Quote)
	assert.Len(t, res.Breakdown, 2)
}

func TestPreferenceSummary(t *testing.T) {
	rows := []models.DimensionBreakdown{
		{HighLabel: "Plot", LowLabel: "Atmosphere", Average: -0.25, Responses: 2, LeansHigh: true},
		{HighLabel: "Whimsy", LowLabel: "Gravitas", Average: 0, Responses: 1},
		{HighLabel: "External", LowLabel: "Internal", Average: 0.5, Responses: 1},
		{HighLabel: "Explicit", LowLabel: "Ambiguous"},
	}
	assert.Equal(t,
		"slight preference for Plot, balanced between Whimsy and Gravitas, strong preference for Internal",
		PreferenceSummary(rows))
}
