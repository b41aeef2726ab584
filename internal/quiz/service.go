// Package quiz drives a respondent from start to result: binding the
// identity, recording answers, choosing the next question and deciding when a
// result may be computed.
package quiz

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"movietype-quiz/internal/models"
	"movietype-quiz/internal/notify"
	"movietype-quiz/internal/result"
	"movietype-quiz/internal/scoring"
	"movietype-quiz/internal/store"
)

var emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// Continuations issues and verifies the signed tokens carried on question
// URLs.
type Continuations interface {
	IssueContinuation(identity string) (string, error)
	ParseContinuation(token string) (string, error)
}

type Options struct {
	StrictCompletion bool
}

type Service struct {
	store     store.Store
	assembler *result.Assembler
	notifier  notify.Notifier
	tokens    Continuations
	log       *zap.Logger
	strict    bool
	locks     *identityLocks
}

func NewService(st store.Store, asm *result.Assembler, notifier notify.Notifier, tokens Continuations, log *zap.Logger, opts Options) *Service {
	return &Service{
		store:     st,
		assembler: asm,
		notifier:  notifier,
		tokens:    tokens,
		log:       log,
		strict:    opts.StrictCompletion,
		locks:     newIdentityLocks(),
	}
}

// Entry is returned by Start.
type Entry struct {
	State    State            `json:"state"`
	Identity string           `json:"identity,omitempty"`
	First    *models.Question `json:"first,omitempty"`
	Total    int              `json:"total"`
	Cleared  int64            `json:"cleared"`
	Token    string           `json:"token,omitempty"`
}

// QuestionView is everything needed to render one question.
type QuestionView struct {
	State     State            `json:"state"`
	Question  models.Question  `json:"question"`
	Dimension models.Dimension `json:"dimension"`
	Position  int              `json:"position"`
	Total     int              `json:"total"`
	Answered  int              `json:"answered"`
	Progress  float64          `json:"progress"`
	Token     string           `json:"token"`
}

// Step is the outcome of SubmitAnswer.
type Step struct {
	State    State            `json:"state"`
	Next     *models.Question `json:"next,omitempty"`
	Answered int              `json:"answered"`
	Total    int              `json:"total"`
	Token    string           `json:"token,omitempty"`
}

// NormalizeIdentity trims and lowercases an email and checks its shape.
func NormalizeIdentity(identity string) (string, error) {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" || !emailPattern.MatchString(identity) {
		return "", &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	return identity, nil
}

// Start resets the session and, when identity is given, binds it. With
// clearPrior the identity's earlier responses are deleted so an old attempt
// cannot leak into the new averages.
func (s *Service) Start(ctx context.Context, sess *models.Session, identity string, clearPrior bool) (Entry, error) {
	sess.Reset()
	plan, err := s.plan(ctx)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{State: NotStarted, Total: plan.Total()}
	if first, ok := plan.First(); ok {
		entry.First = &first
	}
	if strings.TrimSpace(identity) == "" {
		return entry, nil
	}

	identity, err = NormalizeIdentity(identity)
	if err != nil {
		return Entry{}, err
	}
	unlock := s.locks.lock(identity)
	defer unlock()

	if clearPrior {
		entry.Cleared, err = s.store.ClearResponses(ctx, identity)
		if err != nil {
			return Entry{}, persistence("clear responses", err)
		}
	}
	answered, err := s.answered(ctx, identity)
	if err != nil {
		return Entry{}, err
	}
	sess.Identity = identity
	entry.Identity = identity
	entry.State = plan.State(sess, answered)
	if entry.Token, err = s.tokens.IssueContinuation(identity); err != nil {
		return Entry{}, err
	}
	s.log.Info("quiz started", zap.String("identity", identity), zap.Int64("cleared", entry.Cleared))
	return entry, nil
}

// RequestQuestion serves question id. An identity parameter (re)binds the
// session and clears prior responses; otherwise the session identity or a
// valid continuation token must prove the visitor already started.
func (s *Service) RequestQuestion(ctx context.Context, sess *models.Session, id int64, identity, continuation string) (QuestionView, error) {
	plan, err := s.plan(ctx)
	if err != nil {
		return QuestionView{}, err
	}
	q, err := s.question(ctx, id)
	if err != nil {
		return QuestionView{}, err
	}

	switch {
	case strings.TrimSpace(identity) != "":
		if _, err := s.Start(ctx, sess, identity, true); err != nil {
			return QuestionView{}, err
		}
	case sess.Bound():
	case continuation != "":
		bound, err := s.tokens.ParseContinuation(continuation)
		if err != nil {
			s.log.Debug("rejected continuation token", zap.Error(err))
			return QuestionView{}, s.unbound(plan, q)
		}
		sess.Identity = bound
	default:
		return QuestionView{}, s.unbound(plan, q)
	}

	answered, err := s.answered(ctx, sess.Identity)
	if err != nil {
		return QuestionView{}, err
	}
	dim, _ := plan.Dimension(q.DimensionID)
	view := QuestionView{
		State:     plan.State(sess, answered),
		Question:  q,
		Dimension: dim,
		Position:  plan.Position(q.ID),
		Total:     plan.Total(),
		Answered:  plan.Answered(answered),
	}
	if view.Total > 0 {
		view.Progress = float64(view.Answered) / float64(view.Total)
	}
	if view.Token, err = s.tokens.IssueContinuation(sess.Identity); err != nil {
		return QuestionView{}, err
	}
	return view, nil
}

func (s *Service) unbound(plan *Plan, q models.Question) error {
	if first, ok := plan.First(); ok && first.ID == q.ID {
		return &SessionStateError{Reason: ReasonNeedsIdentity, State: NotStarted}
	}
	return &SessionStateError{Reason: ReasonNeedsRestart, State: AwaitingIdentity}
}

// SubmitAnswer records raw for questionID and decides what comes next. Any
// existing question may be answered in any order; answering a question again
// replaces the earlier answer. Progression follows the set of answered ids.
func (s *Service) SubmitAnswer(ctx context.Context, sess *models.Session, questionID int64, raw int) (Step, error) {
	if !sess.Bound() {
		return Step{}, &SessionStateError{Reason: ReasonNotStarted, State: NotStarted}
	}
	if !scoring.ValidValue(raw) {
		return Step{}, &ValidationError{Field: "value", Message: "must be an integer from 1 to 5"}
	}
	identity := sess.Identity

	unlock := s.locks.lock(identity)
	defer unlock()

	plan, err := s.plan(ctx)
	if err != nil {
		return Step{}, err
	}
	q, err := s.question(ctx, questionID)
	if err != nil {
		return Step{}, err
	}
	saved, err := s.store.RecordResponse(ctx, models.Response{Identity: identity, QuestionID: q.ID, Value: raw})
	if err != nil {
		return Step{}, persistence("record response", err)
	}
	sess.Record(saved.QuestionID, saved.Value)

	answered, err := s.answered(ctx, identity)
	if err != nil {
		return Step{}, err
	}
	step := Step{State: InProgress, Answered: plan.Answered(answered), Total: plan.Total()}
	if next, ok := plan.Next(q, answered); ok {
		step.Next = &next
		if step.Token, err = s.tokens.IssueContinuation(identity); err != nil {
			return Step{}, err
		}
	} else {
		step.State = Completed
	}
	s.log.Debug("answer recorded",
		zap.String("identity", identity),
		zap.Int64("question", q.ID),
		zap.Int("value", raw),
		zap.Stringer("state", step.State))
	return step, nil
}

// ComputeResult scores a completed session, hands the result to the notifier
// and clears the session. Partial data never produces a result.
func (s *Service) ComputeResult(ctx context.Context, sess *models.Session) (models.Result, error) {
	if !sess.Bound() {
		return models.Result{}, &SessionStateError{Reason: ReasonNotStarted, State: NotStarted}
	}
	identity := sess.Identity
	plan, err := s.plan(ctx)
	if err != nil {
		return models.Result{}, err
	}
	responses, err := s.store.ResponsesFor(ctx, identity)
	if err != nil {
		return models.Result{}, persistence("load responses", err)
	}
	if !plan.Complete(answeredSet(responses), s.strict) {
		return models.Result{}, &SessionStateError{Reason: ReasonIncomplete, State: InProgress}
	}

	res := s.assembler.Assemble(ctx, identity, plan.Dimensions(), responses)
	if err := s.notifier.ResultsReady(ctx, identity, res); err != nil {
		s.log.Warn("results notification failed", zap.String("identity", identity), zap.Error(err))
	}
	sess.Reset()
	s.log.Info("result computed", zap.String("identity", identity), zap.String("code", res.TypeCode))
	return res, nil
}

// Dimensions lists the curated dimensions in order.
func (s *Service) Dimensions(ctx context.Context) ([]models.Dimension, error) {
	dims, err := s.store.Dimensions(ctx)
	if err != nil {
		return nil, persistence("load dimensions", err)
	}
	return dims, nil
}

func (s *Service) plan(ctx context.Context) (*Plan, error) {
	dims, err := s.store.Dimensions(ctx)
	if err != nil {
		return nil, persistence("load dimensions", err)
	}
	questions, err := s.store.Questions(ctx)
	if err != nil {
		return nil, persistence("load questions", err)
	}
	return NewPlan(dims, questions), nil
}

func (s *Service) question(ctx context.Context, id int64) (models.Question, error) {
	q, err := s.store.Question(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return q, &ValidationError{Field: "question", Message: "unknown question"}
	}
	if err != nil {
		return q, persistence("load question", err)
	}
	return q, nil
}

func (s *Service) answered(ctx context.Context, identity string) (map[int64]bool, error) {
	responses, err := s.store.ResponsesFor(ctx, identity)
	if err != nil {
		return nil, persistence("load responses", err)
	}
	return answeredSet(responses), nil
}
