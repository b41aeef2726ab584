package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"movietype-quiz/internal/models"
)

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	res := models.Result{
		TypeCode:  "PG",
		Archetype: models.Archetype{Title: "The Cinematic Explorer"},
		Breakdown: []models.DimensionBreakdown{{Name: "Narrative", Letter: "P"}, {Name: "Tone", Letter: "G"}},
	}
	require.NoError(t, n.ResultsReady(context.Background(), "a@b.com", res))

	entries := logs.FilterMessage("results ready").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "a@b.com", fields["to"])
	assert.Equal(t, "Your Movie Type Results: PG", fields["subject"])
	assert.Equal(t, "Narrative=P Tone=G", fields["breakdown"])
}
