package scoring

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movietype-quiz/internal/models"
)

var (
	narrative = models.Dimension{ID: 1, Name: "Narrative Preference", HighLabel: "Plot", LowLabel: "Atmosphere"}
	tone      = models.Dimension{ID: 2, Name: "Tonal Inclination", HighLabel: "Whimsy", LowLabel: "Gravitas"}
)

func resp(dim int64, value int) models.Response {
	return models.Response{Identity: "a@b.com", DimensionID: dim, Value: value}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   int
		want float64
	}{
		{1, -1.0},
		{2, -0.5},
		{3, 0.0},
		{4, 0.5},
		{5, 1.0},
		{0, 0},
		{6, 0},
		{-3, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%d)", tt.in)
	}
}

func TestNormalizeMonotonic(t *testing.T) {
	prev := Normalize(MinValue)
	for r := MinValue + 1; r <= MaxValue; r++ {
		got := Normalize(r)
		assert.GreaterOrEqual(t, got, prev, "Normalize(%d)", r)
		assert.Equal(t, float64(r-3)/2.0, got)
		prev = got
	}
}

func TestLetterForDimension(t *testing.T) {
	tests := []struct {
		name      string
		responses []models.Response
		want      string
	}{
		{"no responses", nil, Unknown},
		{"strong high", []models.Response{resp(1, 1)}, "P"},
		{"strong low", []models.Response{resp(1, 5)}, "A"},
		{"neutral resolves low", []models.Response{resp(1, 3)}, "A"},
		{"cancelling answers resolve low", []models.Response{resp(1, 1), resp(1, 5)}, "A"},
		{"slight high", []models.Response{resp(1, 2), resp(1, 3), resp(1, 3)}, "P"},
		{"slight low", []models.Response{resp(1, 4), resp(1, 3)}, "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LetterForDimension(narrative, tt.responses))
		})
	}
}

func TestPoleLetter(t *testing.T) {
	assert.Equal(t, "P", PoleLetter("plot"))
	assert.Equal(t, "É", PoleLetter("été"))
	assert.Equal(t, "G", PoleLetter("  gravitas"))
	assert.Equal(t, Unknown, PoleLetter(""))
}

func TestTypeCode(t *testing.T) {
	dims := []models.Dimension{narrative, tone}

	t.Run("concrete scenario", func(t *testing.T) {
		code := TypeCode(dims, []models.Response{resp(1, 1), resp(2, 5)})
		assert.Equal(t, "PG", code)
	})

	t.Run("missing dimension degrades to sentinel", func(t *testing.T) {
		code := TypeCode(dims, []models.Response{resp(2, 2)})
		assert.Equal(t, "?W", code)
	})

	t.Run("length matches dimension count", func(t *testing.T) {
		four := []models.Dimension{narrative, tone, {ID: 3, HighLabel: "External", LowLabel: "Internal"}, {ID: 4, HighLabel: "Explicit", LowLabel: "Ambiguous"}}
		for _, rs := range [][]models.Response{
			{resp(1, 4)},
			{resp(1, 1), resp(3, 5), resp(4, 3)},
			{resp(9, 5)},
		} {
			assert.Len(t, TypeCode(four, rs), len(four))
		}
	})

	t.Run("order follows dimensions", func(t *testing.T) {
		code := TypeCode([]models.Dimension{tone, narrative}, []models.Response{resp(1, 1), resp(2, 5)})
		assert.Equal(t, "GP", code)
	})
}

func TestBreakdown(t *testing.T) {
	rows := Breakdown([]models.Dimension{narrative, tone}, []models.Response{resp(1, 1), resp(1, 2)})
	want := []models.DimensionBreakdown{
		{Name: "Narrative Preference", Letter: "P", HighLabel: "Plot", LowLabel: "Atmosphere", Average: -0.75, RawScore: 1.5, Responses: 2, LeansHigh: true},
		{Name: "Tonal Inclination", Letter: Unknown, HighLabel: "Whimsy", LowLabel: "Gravitas", Average: 0, RawScore: 3, Responses: 0},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("Breakdown() mismatch (-want +got):\n%s", diff)
	}
}

func TestAllCodes(t *testing.T) {
	four := []models.Dimension{
		narrative, tone,
		{ID: 3, HighLabel: "External", LowLabel: "Internal"},
		{ID: 4, HighLabel: "Explicit", LowLabel: "Ambiguous"},
	}
	codes := AllCodes(four)
	require.Len(t, codes, 16)
	assert.Equal(t, "PWEE", codes[0])
	assert.Equal(t, "AGIA", codes[15])

	seen := map[string]bool{}
	for _, c := range codes {
		assert.False(t, seen[c], "duplicate code %s", c)
		seen[c] = true
	}
	assert.Nil(t, AllCodes(nil))
}

func TestPoles(t *testing.T) {
	dims := []models.Dimension{narrative, tone}
	assert.Equal(t, []string{"Plot", "Gravitas"}, Poles(dims, "PG"))
	assert.Equal(t, []string{"Mixed", "Whimsy"}, Poles(dims, "?W"))
	assert.Equal(t, []string{"Atmosphere", "Mixed"}, Poles(dims, "A"))
}
