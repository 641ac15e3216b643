package bracket

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type BracketStatus string

const (
	BracketPending    BracketStatus = "PENDING"
	BracketInProgress BracketStatus = "IN_PROGRESS"
	BracketCompleted  BracketStatus = "COMPLETED"
)

// TransitionTo reports whether a bracket may move from s to next.
// A pending bracket can complete directly when its only match is reported without starting it.
func (s BracketStatus) TransitionTo(next BracketStatus) bool {
	switch s {
	case BracketPending:
		return next == BracketInProgress || next == BracketCompleted
	case BracketInProgress:
		return next == BracketCompleted
	case BracketCompleted:
		return false
	default:
		return false
	}
}

type Bracket struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	EventID     uuid.UUID     `db:"event_id" json:"event_id"`
	CategoryID  uuid.UUID     `db:"category_id" json:"category_id"`
	Status      BracketStatus `db:"status" json:"status"`
	Size        int           `db:"size" json:"size"`
	TotalRounds int           `db:"total_rounds" json:"total_rounds"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	CompletedAt *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
}

// RoundLabel names a round by how many matches it holds, counted back from the final.
func RoundLabel(round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semi Finals"
	case 2:
		return "Quarter Finals"
	}
	return "Round of " + strconv.Itoa(1<<(totalRounds-round+1))
}
