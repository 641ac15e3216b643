// Package seed fills an event with fake approved registrations for demos and load tests.
package seed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/registration"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/store"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/utils"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var belts = []string{"white", "orange", "blue", "yellow", "green", "brown", "black", "1st dan"}

// Ages cluster around a few bands so most generated categories get a bracket.
var ages = []int{10, 14, 17, 22, 27, 31, 40, 45}

type Generator struct {
	faker *gofakeit.Faker
	// MissingRate is the share of registrants left without a belt.
	MissingRate float64
}

func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed), MissingRate: 0.05}
}

// Registrants returns n approved registrants for an event held on eventDate.
func (g *Generator) Registrants(eventID uuid.UUID, eventDate time.Time, n int) []registration.Registrant {
	registrants := make([]registration.Registrant, 0, n)
	registeredAt := eventDate.AddDate(0, -1, 0)

	for i := 0; i < n; i++ {
		age := ages[g.faker.Number(0, len(ages)-1)]
		dob := eventDate.AddDate(-age, -g.faker.Number(0, 11), -g.faker.Number(0, 27))

		var weight float64
		switch {
		case age < 12:
			weight = g.faker.Float64Range(26, 42)
		case age < 16:
			weight = g.faker.Float64Range(38, 58)
		default:
			weight = g.faker.Float64Range(58, 95)
		}

		var belt *string
		if g.faker.Float64Range(0, 1) >= g.MissingRate {
			belt = utils.Ptr(g.faker.RandomString(belts))
		}

		registrants = append(registrants, registration.Registrant{
			ID:            uuid.New(),
			EventID:       eventID,
			ParticipantID: uuid.New(),
			Name:          g.faker.Name(),
			DateOfBirth:   &dob,
			WeightKg:      utils.Ptr(math.Round(weight*10) / 10),
			Belt:          belt,
			Status:        registration.StatusApproved,
			RegisteredAt:  registeredAt.Add(time.Duration(i) * time.Minute),
		})
	}
	return registrants
}

// Event creates an open event with n generated registrants in one transaction.
func (g *Generator) Event(ctx context.Context, db *sqlx.DB, name string, eventDate time.Time, n int) (*bracket.Event, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	event := &bracket.Event{
		ID:        uuid.New(),
		Name:      name,
		EventDate: eventDate,
		Status:    bracket.EventRegistrationOpen,
	}
	if event.Name == "" {
		event.Name = g.faker.City() + " Open"
	}

	if err := store.NewTournamentStore(db).CreateEvent(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	if err := store.NewRegistrationStore(db).CreateRegistrations(ctx, tx, g.Registrants(event.ID, eventDate, n)); err != nil {
		return nil, fmt.Errorf("failed to create registrations: %w", err)
	}

	return event, tx.Commit()
}
