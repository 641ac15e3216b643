package registration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Registrant is one participant's registration for an event, as supplied by the
// registration side of the platform. Attributes may be missing.
type Registrant struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	EventID       uuid.UUID  `db:"event_id" json:"event_id"`
	ParticipantID uuid.UUID  `db:"participant_id" json:"participant_id"`
	Name          string     `db:"name" json:"name"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth"`
	WeightKg      *float64   `db:"weight_kg" json:"weight_kg"`
	Belt          *string    `db:"belt" json:"belt"`
	Status        Status     `db:"status" json:"status"`
	RegisteredAt  time.Time  `db:"registered_at" json:"registered_at"`
}

// RosterProvider supplies approved registrants in registration order.
type RosterProvider interface {
	ApprovedRoster(ctx context.Context, eventID uuid.UUID) ([]Registrant, error)
}
