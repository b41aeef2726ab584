// Package scoring reduces Likert responses into per-dimension letters and a
// combined type code. Everything here is pure.
package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"movietype-quiz/internal/models"
)

// Unknown is the letter used for a dimension with no responses.
const Unknown = "?"

const (
	MinValue = 1
	MaxValue = 5
)

// ValidValue reports whether r is on the accepted Likert scale.
func ValidValue(r int) bool {
	return r >= MinValue && r <= MaxValue
}

// Normalize maps a raw 1..5 answer to -1.0..1.0. A value of 1 means the
// respondent strongly prefers the high-pole text. Out-of-range values score 0.
func Normalize(r int) float64 {
	if !ValidValue(r) {
		return 0
	}
	return float64(r-3) / 2.0
}

// PoleLetter is the uppercased first rune of a pole label.
func PoleLetter(label string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(label))
	if r == utf8.RuneError {
		return Unknown
	}
	return string(unicode.ToUpper(r))
}

// LetterForScore maps a normalized mean onto a pole. Negative leans to the
// high pole; zero and above resolve to the low pole.
func LetterForScore(d models.Dimension, avg float64) string {
	if avg < 0 {
		return PoleLetter(d.HighLabel)
	}
	return PoleLetter(d.LowLabel)
}

// LetterForDimension averages the normalized responses, which must all belong
// to questions of d.
func LetterForDimension(d models.Dimension, responses []models.Response) string {
	if len(responses) == 0 {
		return Unknown
	}
	return LetterForScore(d, mean(responses))
}

// TypeCode concatenates one letter per dimension, in the given order.
func TypeCode(dimensions []models.Dimension, responses []models.Response) string {
	byDim := Partition(responses)
	var sb strings.Builder
	for _, d := range dimensions {
		sb.WriteString(LetterForDimension(d, byDim[d.ID]))
	}
	return sb.String()
}

// Partition groups responses by their dimension id.
func Partition(responses []models.Response) map[int64][]models.Response {
	out := make(map[int64][]models.Response)
	for _, r := range responses {
		out[r.DimensionID] = append(out[r.DimensionID], r)
	}
	return out
}

// Average is the aggregate of one dimension's responses.
type Average struct {
	Dimension  models.Dimension
	Normalized float64
	Raw        float64
	Count      int
}

// Averages returns one entry per dimension in order. Dimensions with no
// responses get a neutral 0 / 3.
func Averages(dimensions []models.Dimension, responses []models.Response) []Average {
	byDim := Partition(responses)
	out := make([]Average, 0, len(dimensions))
	for _, d := range dimensions {
		rs := byDim[d.ID]
		a := Average{Dimension: d, Raw: 3, Count: len(rs)}
		if len(rs) > 0 {
			a.Normalized = mean(rs)
			sum := 0
			for _, r := range rs {
				sum += r.Value
			}
			a.Raw = float64(sum) / float64(len(rs))
		}
		out = append(out, a)
	}
	return out
}

// Breakdown builds the per-dimension presentation rows.
func Breakdown(dimensions []models.Dimension, responses []models.Response) []models.DimensionBreakdown {
	avgs := Averages(dimensions, responses)
	out := make([]models.DimensionBreakdown, 0, len(avgs))
	for _, a := range avgs {
		letter := Unknown
		if a.Count > 0 {
			letter = LetterForScore(a.Dimension, a.Normalized)
		}
		out = append(out, models.DimensionBreakdown{
			Name:      a.Dimension.Name,
			Letter:    letter,
			HighLabel: a.Dimension.HighLabel,
			LowLabel:  a.Dimension.LowLabel,
			Average:   a.Normalized,
			RawScore:  a.Raw,
			Responses: a.Count,
			LeansHigh: a.Count > 0 && a.Normalized < 0,
		})
	}
	return out
}

// AllCodes enumerates every letter combination for the dimensions, high pole
// first, so four dimensions produce 16 codes.
func AllCodes(dimensions []models.Dimension) []string {
	codes := []string{""}
	for _, d := range dimensions {
		poles := []string{PoleLetter(d.HighLabel), PoleLetter(d.LowLabel)}
		next := make([]string, 0, len(codes)*2)
		for _, prefix := range codes {
			for _, p := range poles {
				next = append(next, prefix+p)
			}
		}
		codes = next
	}
	if len(dimensions) == 0 {
		return nil
	}
	return codes
}

// Poles expands a code back into the matching pole labels. Letters that match
// neither pole, including Unknown, map to "Mixed".
func Poles(dimensions []models.Dimension, code string) []string {
	letters := []rune(code)
	out := make([]string, 0, len(dimensions))
	for i, d := range dimensions {
		if i >= len(letters) {
			out = append(out, "Mixed")
			continue
		}
		l := string(letters[i])
		switch l {
		case PoleLetter(d.HighLabel):
			out = append(out, d.HighLabel)
		case PoleLetter(d.LowLabel):
			out = append(out, d.LowLabel)
		default:
			out = append(out, "Mixed")
		}
	}
	return out
}

func mean(responses []models.Response) float64 {
	sum := 0.0
	for _, r := range responses {
		sum += Normalize(r.Value)
	}
	return sum / float64(len(responses))
}
