package quiz

import (
	"sort"

	"movietype-quiz/internal/models"
)

// State of a respondent's walk through the quiz.
type State int

const (
	NotStarted State = iota
	AwaitingIdentity
	InProgress
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case AwaitingIdentity:
		return "awaiting_identity"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Plan is the curated question sequence: dimensions in order, questions by
// ascending id within each dimension.
type Plan struct {
	dims     []models.Dimension
	byDim    map[int64][]models.Question
	sequence []models.Question
	position map[int64]int
}

func NewPlan(dims []models.Dimension, questions []models.Question) *Plan {
	p := &Plan{
		dims:     dims,
		byDim:    make(map[int64][]models.Question),
		position: make(map[int64]int),
	}
	for _, q := range questions {
		p.byDim[q.DimensionID] = append(p.byDim[q.DimensionID], q)
	}
	for _, d := range dims {
		qs := p.byDim[d.ID]
		sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
		for _, q := range qs {
			p.sequence = append(p.sequence, q)
			p.position[q.ID] = len(p.sequence)
		}
	}
	return p
}

func (p *Plan) Dimensions() []models.Dimension {
	return p.dims
}

// Total is the number of questions in the sequence.
func (p *Plan) Total() int {
	return len(p.sequence)
}

// First is the opening question of the sequence.
func (p *Plan) First() (models.Question, bool) {
	if len(p.sequence) == 0 {
		return models.Question{}, false
	}
	return p.sequence[0], true
}

// Position is the 1-based index of a question, 0 if unknown.
func (p *Plan) Position(id int64) int {
	return p.position[id]
}

func (p *Plan) Dimension(id int64) (models.Dimension, bool) {
	for _, d := range p.dims {
		if d.ID == id {
			return d, true
		}
	}
	return models.Dimension{}, false
}

// Next picks the question after current given the answered set: the next
// unanswered one in the same dimension, else the first unanswered one of the
// earliest dimension that still has any. ok is false once everything is
// answered.
func (p *Plan) Next(current models.Question, answered map[int64]bool) (models.Question, bool) {
	if q, ok := firstUnanswered(p.byDim[current.DimensionID], answered); ok {
		return q, true
	}
	for _, d := range p.dims {
		if q, ok := firstUnanswered(p.byDim[d.ID], answered); ok {
			return q, true
		}
	}
	return models.Question{}, false
}

// Complete reports whether a result may be computed. By default every
// dimension that has questions needs one answer; strict needs all questions.
func (p *Plan) Complete(answered map[int64]bool, strict bool) bool {
	if len(p.sequence) == 0 {
		return false
	}
	for _, d := range p.dims {
		qs := p.byDim[d.ID]
		if len(qs) == 0 {
			continue
		}
		n := 0
		for _, q := range qs {
			if answered[q.ID] {
				n++
			}
		}
		if n == 0 || (strict && n < len(qs)) {
			return false
		}
	}
	return true
}

// Answered counts answered questions that are part of the sequence.
func (p *Plan) Answered(answered map[int64]bool) int {
	n := 0
	for id := range answered {
		if p.position[id] > 0 {
			n++
		}
	}
	return n
}

// State derives the progression state for a session.
func (p *Plan) State(sess *models.Session, answered map[int64]bool) State {
	if !sess.Bound() {
		return NotStarted
	}
	if _, more := p.Next(models.Question{}, answered); !more && len(p.sequence) > 0 {
		return Completed
	}
	return InProgress
}

func firstUnanswered(qs []models.Question, answered map[int64]bool) (models.Question, bool) {
	for _, q := range qs {
		if !answered[q.ID] {
			return q, true
		}
	}
	return models.Question{}, false
}

func answeredSet(responses []models.Response) map[int64]bool {
	out := make(map[int64]bool, len(responses))
	for _, r := range responses {
		out[r.QuestionID] = true
	}
	return out
}
