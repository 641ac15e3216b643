package store

import (
	"context"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/registration"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RegistrationStore reads and writes the registration roster owned by the registration side.
type RegistrationStore struct {
	db *sqlx.DB
}

const (
	approvedRosterQuery = `
        SELECT * FROM registrations
        WHERE event_id = ?
        AND status = 'APPROVED'
        ORDER BY registered_at ASC, id ASC
    `
	registrationsQuery = "SELECT * FROM registrations WHERE event_id = ? ORDER BY registered_at ASC, id ASC"
	createRegistrationQuery = `
		INSERT INTO registrations (id, event_id, participant_id, name, date_of_birth, weight_kg, belt, status, registered_at) VALUES
		(:id, :event_id, :participant_id, :name, :date_of_birth, :weight_kg, :belt, :status, :registered_at)
	`
	updateRegistrationStatusQuery = "UPDATE registrations SET status = ? WHERE id = ?"
)

func NewRegistrationStore(db *sqlx.DB) *RegistrationStore {
	return &RegistrationStore{db: db}
}

func (s *RegistrationStore) ApprovedRoster(ctx context.Context, eventID uuid.UUID) ([]registration.Registrant, error) {
	var roster []registration.Registrant
	err := s.db.SelectContext(ctx, &roster, approvedRosterQuery, eventID)
	return roster, err
}

func (s *RegistrationStore) GetRegistrations(ctx context.Context, eventID uuid.UUID) ([]registration.Registrant, error) {
	var registrants []registration.Registrant
	err := s.db.SelectContext(ctx, &registrants, registrationsQuery, eventID)
	return registrants, err
}

func (s *RegistrationStore) CreateRegistrations(ctx context.Context, tx *sqlx.Tx, registrants []registration.Registrant) error {
	if len(registrants) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createRegistrationQuery, registrants)
	return err
}

func (s *RegistrationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status registration.Status) error {
	_, err := s.db.ExecContext(ctx, updateRegistrationStatusQuery, status, id)
	return err
}
