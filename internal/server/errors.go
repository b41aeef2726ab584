package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"movietype-quiz/internal/quiz"
)

const restartPath = "/api/start"

type errorBody struct {
	Error    string `json:"error"`
	Field    string `json:"field,omitempty"`
	Reason   string `json:"reason,omitempty"`
	State    string `json:"state,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// writeError maps quiz failures onto HTTP. Anything unrecognised is logged and
// hidden behind a generic message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		invalid *quiz.ValidationError
		state   *quiz.SessionStateError
	)
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: invalid.Message, Field: invalid.Field})
	case errors.As(err, &state):
		writeJSON(w, http.StatusConflict, errorBody{
			Error:    state.Message(),
			Reason:   string(state.Reason),
			State:    state.State.String(),
			Redirect: restartPath,
		})
	default:
		s.log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "something went wrong, please try again"})
	}
}
