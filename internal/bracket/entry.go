package bracket

import "github.com/google/uuid"

// Entry places a participant into a bracket at a fixed seed. Seed 1 is the first registrant.
type Entry struct {
	ID            uuid.UUID `db:"id" json:"id"`
	BracketID     uuid.UUID `db:"bracket_id" json:"bracket_id"`
	ParticipantID uuid.UUID `db:"participant_id" json:"participant_id"`
	Name          string    `db:"name" json:"name"`
	Seed          int       `db:"seed" json:"seed"`
}
