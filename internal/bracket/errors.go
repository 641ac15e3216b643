package bracket

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrMissingAttribute      = errors.New("missing attribute")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrInvalidWinner         = errors.New("invalid winner")
	ErrNotEnoughParticipants = errors.New("not enough participants")
	ErrNotFound              = errors.New("not found")
	ErrDuplicateParticipant  = errors.New("participant listed more than once")
)

// TransitionError describes a rejected state change on a match, bracket or event.
type TransitionError struct {
	Entity string
	ID     uuid.UUID
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s %s: cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

type WinnerError struct {
	MatchID   uuid.UUID
	BracketID uuid.UUID
	WinnerID  uuid.UUID
}

func (e *WinnerError) Error() string {
	return fmt.Sprintf("participant %s is not part of match %s in bracket %s", e.WinnerID, e.MatchID, e.BracketID)
}

func (e *WinnerError) Unwrap() error { return ErrInvalidWinner }

type AttributeError struct {
	ParticipantID uuid.UUID
	Attribute     string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("participant %s: %s cannot be determined", e.ParticipantID, e.Attribute)
}

func (e *AttributeError) Unwrap() error { return ErrMissingAttribute }
