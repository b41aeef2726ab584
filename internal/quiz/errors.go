package quiz

import (
	"fmt"
)

// ValidationError rejects a malformed request. Nothing has been applied.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Reason says why the session cannot proceed.
type Reason string

const (
	ReasonNotStarted    Reason = "not_started"
	ReasonNeedsIdentity Reason = "needs_identity"
	ReasonNeedsRestart  Reason = "needs_restart"
	ReasonIncomplete    Reason = "incomplete"
)

// SessionStateError sends the visitor back to start.
type SessionStateError struct {
	Reason Reason
	State  State
}

func (e *SessionStateError) Error() string {
	return fmt.Sprintf("quiz session %s (state %s)", e.Reason, e.State)
}

// Message is the visitor-facing explanation.
func (e *SessionStateError) Message() string {
	switch e.Reason {
	case ReasonNeedsRestart:
		return "Please start the quiz again"
	case ReasonIncomplete:
		return "Please answer every section before viewing your results"
	default:
		return "Please enter your email to start the quiz"
	}
}

// PersistenceError wraps a store failure; the request cannot be completed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
