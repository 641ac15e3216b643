package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// StatusFor maps engine errors onto HTTP status codes.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, bracket.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, bracket.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, bracket.ErrInvalidWinner):
		return http.StatusUnprocessableEntity, "invalid_winner"
	case errors.Is(err, bracket.ErrMissingAttribute):
		return http.StatusUnprocessableEntity, "missing_attribute"
	case errors.Is(err, bracket.ErrNotEnoughParticipants), errors.Is(err, bracket.ErrDuplicateParticipant):
		return http.StatusBadRequest, "invalid_roster"
	}
	return http.StatusInternalServerError, ""
}

// Error writes err with the status StatusFor picks. Unknown errors are logged and hidden.
func Error(w http.ResponseWriter, msg string, err error) {
	status, kind := StatusFor(err)
	if status == http.StatusInternalServerError {
		InternalServerError(w, msg, err)
		return
	}
	slog.Warn("request rejected", "message", msg, "status", status, "error", err)
	WriteJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	WriteJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
