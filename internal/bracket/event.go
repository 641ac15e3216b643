package bracket

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventRegistrationOpen   EventStatus = "REGISTRATION_OPEN"
	EventRegistrationClosed EventStatus = "REGISTRATION_CLOSED"
	EventCompleted          EventStatus = "COMPLETED"
)

type Event struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	EventDate time.Time   `db:"event_date" json:"event_date"`
	Status    EventStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

type Category struct {
	ID         uuid.UUID `db:"id" json:"id"`
	EventID    uuid.UUID `db:"event_id" json:"event_id"`
	AgeBand    string    `db:"age_band" json:"age_band"`
	WeightBand string    `db:"weight_band" json:"weight_band"`
	BeltBand   string    `db:"belt_band" json:"belt_band"`
}

func (c Category) Label() string {
	return c.AgeBand + " / " + c.WeightBand + " / " + c.BeltBand
}
