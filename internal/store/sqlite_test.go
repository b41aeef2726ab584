package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movietype-quiz/internal/models"
	"movietype-quiz/internal/seed"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	st, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "quiz.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)
	require.NoError(t, st.EnsureSchema(ctx))
	seeded, err := st.SeedCatalog(ctx, seed.Catalog(), false)
	require.NoError(t, err)
	require.True(t, seeded)
	return st
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	seeded, err := st.SeedCatalog(ctx, seed.Catalog(), false)
	require.NoError(t, err)
	assert.False(t, seeded)

	dims, err := st.Dimensions(ctx)
	require.NoError(t, err)
	require.Len(t, dims, 4)
	assert.Equal(t, "Plot", dims[0].HighLabel)
	assert.Equal(t, "Ambiguous", dims[3].LowLabel)

	qs, err := st.Questions(ctx)
	require.NoError(t, err)
	require.Len(t, qs, 12)
	for i := 1; i < len(qs); i++ {
		assert.Less(t, qs[i-1].ID, qs[i].ID)
	}
	assert.Equal(t, dims[0].ID, qs[0].DimensionID)
}

func TestSeedCatalogReplace(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	qs, err := st.Questions(ctx)
	require.NoError(t, err)
	_, err = st.RecordResponse(ctx, models.Response{Identity: "a@b.com", QuestionID: qs[0].ID, Value: 2})
	require.NoError(t, err)

	small := seed.Catalog()[:2]
	seeded, err := st.SeedCatalog(ctx, small, true)
	require.NoError(t, err)
	assert.True(t, seeded)

	dims, err := st.Dimensions(ctx)
	require.NoError(t, err)
	assert.Len(t, dims, 2)
	all, err := st.AllResponses(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRecordResponseReplacesEarlierAnswer(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	qs, err := st.Questions(ctx)
	require.NoError(t, err)

	first, err := st.RecordResponse(ctx, models.Response{Identity: "a@b.com", QuestionID: qs[0].ID, Value: 1})
	require.NoError(t, err)
	second, err := st.RecordResponse(ctx, models.Response{Identity: "a@b.com", QuestionID: qs[0].ID, Value: 5})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = st.RecordResponse(ctx, models.Response{Identity: "other@b.com", QuestionID: qs[0].ID, Value: 2})
	require.NoError(t, err)

	rs, err := st.ResponsesFor(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, 5, rs[0].Value)

	all, err := st.AllResponses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestResponsesLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	qs, err := st.Questions(ctx)
	require.NoError(t, err)

	saved, err := st.RecordResponse(ctx, models.Response{Identity: "a@b.com", QuestionID: qs[0].ID, Value: 1})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	_, err = st.RecordResponse(ctx, models.Response{Identity: "a@b.com", QuestionID: qs[4].ID, Value: 5})
	require.NoError(t, err)
	_, err = st.RecordResponse(ctx, models.Response{Identity: "other@b.com", QuestionID: qs[0].ID, Value: 3})
	require.NoError(t, err)

	rs, err := st.ResponsesFor(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, qs[0].DimensionID, rs[0].DimensionID)
	assert.Equal(t, qs[4].DimensionID, rs[1].DimensionID)
	assert.Equal(t, 5, rs[1].Value)

	n, err := st.ClearResponses(ctx, "a@b.com")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rs, err = st.ResponsesFor(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Empty(t, rs)

	all, err := st.AllResponses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, st.ResetResponses(ctx))
	all, err = st.AllResponses(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRecordResponseRejectsOutOfRangeValue(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	qs, err := st.Questions(ctx)
	require.NoError(t, err)

	_, err = st.RecordResponse(ctx, models.Response{Identity: "a@b.com", QuestionID: qs[0].ID, Value: 7})
	assert.Error(t, err)
}

func TestQuestionNotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Question(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteDimensionCascades(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	dims, err := st.Dimensions(ctx)
	require.NoError(t, err)
	qs, err := st.Questions(ctx)
	require.NoError(t, err)

	_, err = st.RecordResponse(ctx, models.Response{Identity: "a@b.com", QuestionID: qs[0].ID, Value: 4})
	require.NoError(t, err)
	_, err = st.RecordResponse(ctx, models.Response{Identity: "a@b.com", QuestionID: qs[3].ID, Value: 4})
	require.NoError(t, err)

	require.NoError(t, st.DeleteDimension(ctx, dims[0].ID))

	qs, err = st.Questions(ctx)
	require.NoError(t, err)
	assert.Len(t, qs, 9)
	for _, q := range qs {
		assert.NotEqual(t, dims[0].ID, q.DimensionID)
	}
	rs, err := st.ResponsesFor(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, dims[1].ID, rs[0].DimensionID)

	assert.ErrorIs(t, st.DeleteDimension(ctx, dims[0].ID), ErrNotFound)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "")
	assert.Error(t, err)
}
