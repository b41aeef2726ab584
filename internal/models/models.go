package models

import (
	"time"
)

// Dimension is a bipolar trait axis, e.g. Plot versus Atmosphere.
type Dimension struct {
	ID          int64  `json:"id" yaml:"-"`
	Name        string `json:"name" yaml:"name"`
	HighLabel   string `json:"highLabel" yaml:"high_label"`
	LowLabel    string `json:"lowLabel" yaml:"low_label"`
	Description string `json:"description" yaml:"description"`
}

// Question describes a forced-choice prompt bound to one dimension.
type Question struct {
	ID          int64  `json:"id" yaml:"-"`
	DimensionID int64  `json:"dimensionId" yaml:"-"`
	Prompt      string `json:"prompt" yaml:"prompt"`
	HighText    string `json:"highText" yaml:"high_text"`
	LowText     string `json:"lowText" yaml:"low_text"`
}

// DimensionSeed groups a dimension with its questions for catalog loading.
type DimensionSeed struct {
	Dimension `yaml:",inline"`
	Questions []Question `yaml:"questions"`
}

// Response is one stored answer. DimensionID is filled in when responses are
// loaded for scoring.
type Response struct {
	ID          int64     `json:"id"`
	Identity    string    `json:"identity"`
	QuestionID  int64     `json:"questionId"`
	DimensionID int64     `json:"dimensionId,omitempty"`
	Value       int       `json:"value"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AnswerMirror is the session-side copy of a stored response.
type AnswerMirror struct {
	QuestionID int64 `json:"q"`
	Value      int   `json:"v"`
}

// Session is the ephemeral per-visitor state threaded through quiz operations.
type Session struct {
	Identity string         `json:"identity,omitempty"`
	Answers  []AnswerMirror `json:"answers,omitempty"`
}

// Bound reports whether an identity has been attached.
func (s *Session) Bound() bool {
	return s != nil && s.Identity != ""
}

// Record mirrors an answer, replacing an earlier one for the same question.
func (s *Session) Record(questionID int64, value int) {
	for i := range s.Answers {
		if s.Answers[i].QuestionID == questionID {
			s.Answers[i].Value = value
			return
		}
	}
	s.Answers = append(s.Answers, AnswerMirror{QuestionID: questionID, Value: value})
}

// Reset drops identity and mirrored answers.
func (s *Session) Reset() {
	s.Identity = ""
	s.Answers = nil
}

// Recommendations holds suggested films and directors.
type Recommendations struct {
	Films     []string `json:"films"`
	Directors []string `json:"directors"`
}

// Quote is a short attributed line matching a personality type.
type Quote struct {
	Text        string `json:"quote"`
	Attribution string `json:"attribution"`
}

// Archetype is the named persona attached to a type code.
type Archetype struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DimensionBreakdown is the per-dimension view used to render a meter.
type DimensionBreakdown struct {
	Name      string  `json:"name"`
	Letter    string  `json:"letter"`
	HighLabel string  `json:"highLabel"`
	LowLabel  string  `json:"lowLabel"`
	Average   float64 `json:"average"`  // normalized, -1.0 .. 1.0
	RawScore  float64 `json:"rawScore"` // 1 .. 5, 3 when unanswered
	Responses int     `json:"responses"`
	LeansHigh bool    `json:"leansHigh"`
}

// FallbackFlags records which narrative parts came from offline content.
type FallbackFlags struct {
	Description     bool `json:"description"`
	Recommendations bool `json:"recommendations"`
	Quote           bool `json:"quote"`
}

// Any reports whether at least one part fell back.
func (f FallbackFlags) Any() bool {
	return f.Description || f.Recommendations || f.Quote
}

// Result is the assembled, presentation-ready outcome of a completed quiz.
type Result struct {
	Identity        string               `json:"identity"`
	TypeCode        string               `json:"typeCode"`
	Archetype       Archetype            `json:"archetype"`
	Description     string               `json:"description"`
	Recommendations Recommendations      `json:"recommendations"`
	Quote           Quote                `json:"quote"`
	Breakdown       []DimensionBreakdown `json:"breakdown"`
	Fallback        FallbackFlags        `json:"fallback"`
	GeneratedAt     time.Time            `json:"generatedAt"`
}

// TypeSummary is one entry of the personality type catalog.
type TypeSummary struct {
	Code        string   `json:"code"`
	Poles       []string `json:"poles"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}
