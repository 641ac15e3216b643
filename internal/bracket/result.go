package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Medal string

const (
	MedalGold   Medal = "GOLD"
	MedalSilver Medal = "SILVER"
	MedalBronze Medal = "BRONZE"
)

// Result is the final standing of one participant in a completed bracket.
type Result struct {
	ID            uuid.UUID `db:"id" json:"id"`
	BracketID     uuid.UUID `db:"bracket_id" json:"bracket_id"`
	ParticipantID uuid.UUID `db:"participant_id" json:"participant_id"`

	FinalRank int    `db:"final_rank" json:"final_rank"`
	Placement string `db:"placement" json:"placement"`
	Medal     *Medal `db:"medal" json:"medal"`

	TotalMatches int `db:"total_matches" json:"total_matches"`
	MatchesWon   int `db:"matches_won" json:"matches_won"`
	MatchesLost  int `db:"matches_lost" json:"matches_lost"`

	EliminatedInRound *string    `db:"eliminated_in_round" json:"eliminated_in_round"`
	EliminatedByID    *uuid.UUID `db:"eliminated_by_id" json:"eliminated_by_id"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
