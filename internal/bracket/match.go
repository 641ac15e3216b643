package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchLive      MatchStatus = "LIVE"
	MatchCompleted MatchStatus = "COMPLETED"
)

// TransitionTo reports whether a match may move from s to next.
// LIVE can be skipped when a score is reported directly. COMPLETED is terminal.
func (s MatchStatus) TransitionTo(next MatchStatus) bool {
	switch s {
	case MatchScheduled:
		return next == MatchLive || next == MatchCompleted
	case MatchLive:
		return next == MatchCompleted
	case MatchCompleted:
		return false
	default:
		return false
	}
}

type Match struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BracketID uuid.UUID `db:"bracket_id" json:"bracket_id"`

	// Position in the bracket for reconstructing the tree
	RoundNumber int `db:"round_number" json:"round_number"`
	MatchOrder  int `db:"match_order" json:"match_order"`

	Fighter1ID *uuid.UUID `db:"fighter_1_id" json:"fighter_1_id"`
	Fighter2ID *uuid.UUID `db:"fighter_2_id" json:"fighter_2_id"`

	Score1   *int        `db:"score_1" json:"score_1,omitempty"`
	Score2   *int        `db:"score_2" json:"score_2,omitempty"`
	WinnerID *uuid.UUID  `db:"winner_id" json:"winner_id"`
	Status   MatchStatus `db:"status" json:"status"`

	NextMatchID *uuid.UUID `db:"next_match_id" json:"next_match_id"`
	NextSlot    *int       `db:"next_slot" json:"next_slot,omitempty"`

	IsBye bool `db:"is_bye" json:"is_bye"`

	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

func (m *Match) HasBothFighters() bool {
	return m.Fighter1ID != nil && m.Fighter2ID != nil
}

// Slot returns 1 or 2 for the slot holding the participant, 0 when absent.
func (m *Match) Slot(participantID uuid.UUID) int {
	switch {
	case m.Fighter1ID != nil && *m.Fighter1ID == participantID:
		return 1
	case m.Fighter2ID != nil && *m.Fighter2ID == participantID:
		return 2
	}
	return 0
}

func (m *Match) Involves(participantID uuid.UUID) bool {
	return m.Slot(participantID) != 0
}

// Loser is the participant in the other slot of a decided match. Byes have no loser.
func (m *Match) Loser() *uuid.UUID {
	if m.WinnerID == nil || m.IsBye {
		return nil
	}
	switch m.Slot(*m.WinnerID) {
	case 1:
		return m.Fighter2ID
	case 2:
		return m.Fighter1ID
	}
	return nil
}

func (m *Match) IsWinner(slot int) bool {
	return m.Status == MatchCompleted && m.WinnerID != nil && m.Slot(*m.WinnerID) == slot
}

func (m *Match) IsLoser(slot int) bool {
	return m.Status == MatchCompleted && m.WinnerID != nil && !m.IsBye && m.Slot(*m.WinnerID) != slot
}
