package seed

import (
	"context"
	"testing"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/category"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/db"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/registration"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/store"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventDate = time.Date(2026, 11, 7, 0, 0, 0, 0, time.UTC)

func TestRegistrantsAreDeterministic(t *testing.T) {
	eventID := uuid.New()
	first := New(7).Registrants(eventID, eventDate, 20)
	second := New(7).Registrants(eventID, eventDate, 20)

	require.Len(t, first, 20)
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, *first[i].WeightKg, *second[i].WeightKg)
		assert.Equal(t, registration.StatusApproved, first[i].Status)
	}
}

func TestRegistrantsClassify(t *testing.T) {
	g := New(42)
	g.MissingRate = 0

	for _, r := range g.Registrants(uuid.New(), eventDate, 50) {
		_, err := category.Classify(category.Attributes{
			ParticipantID: r.ParticipantID,
			DateOfBirth:   r.DateOfBirth,
			WeightKg:      r.WeightKg,
			Belt:          utils.Deref(r.Belt, ""),
		}, eventDate)
		assert.NoError(t, err, r.Name)
	}
}

func TestEvent(t *testing.T) {
	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	defer database.Close()
	require.NoError(t, db.RunMigrations(database.DB, "file://../../migrations"))

	ctx := context.Background()
	event, err := New(1).Event(ctx, database, "", eventDate, 12)
	require.NoError(t, err)
	assert.NotEmpty(t, event.Name)

	roster, err := store.NewRegistrationStore(database).ApprovedRoster(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 12)
}
