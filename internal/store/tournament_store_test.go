package store

import (
	"context"
	"testing"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/registration"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/utils"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

// seedBracket writes an event, a category and an empty bracket.
func seedBracket(t *testing.T, db *sqlx.DB, store *TournamentStore) (*bracket.Event, *bracket.Bracket) {
	t.Helper()
	ctx := context.Background()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	event := &bracket.Event{
		ID:        uuid.New(),
		Name:      "Test Open",
		EventDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:    bracket.EventRegistrationOpen,
	}
	require.NoError(t, store.CreateEvent(ctx, tx, event))

	cat := &bracket.Category{ID: uuid.New(), EventID: event.ID, AgeBand: "12-15", WeightBand: "-45kg", BeltBand: "Intermediate"}
	require.NoError(t, store.CreateCategory(ctx, tx, cat))

	b := &bracket.Bracket{
		ID:          uuid.New(),
		EventID:     event.ID,
		CategoryID:  cat.ID,
		Status:      bracket.BracketPending,
		Size:        2,
		TotalRounds: 1,
	}
	require.NoError(t, store.CreateBracket(ctx, tx, b))
	require.NoError(t, tx.Commit())
	return event, b
}

func TestCreateEvent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	ctx := context.Background()
	event, b := seedBracket(t, db, store)

	fetched, err := store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Name, fetched.Name)
	assert.True(t, event.EventDate.Equal(fetched.EventDate))
	assert.Equal(t, bracket.EventRegistrationOpen, fetched.Status)
	assert.False(t, fetched.CreatedAt.IsZero())

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpdateEventStatusTx(ctx, tx, event.ID, bracket.EventRegistrationClosed))
	require.NoError(t, tx.Commit())

	fetched, err = store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.EventRegistrationClosed, fetched.Status)

	fetchedBracket, err := store.GetBracket(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.CategoryID, fetchedBracket.CategoryID)
	assert.Nil(t, fetchedBracket.CompletedAt)

	_, err = store.GetEvent(ctx, uuid.New())
	assert.ErrorIs(t, err, bracket.ErrNotFound)
	_, err = store.GetBracket(ctx, uuid.New())
	assert.ErrorIs(t, err, bracket.ErrNotFound)
	_, err = store.GetMatch(ctx, uuid.New())
	assert.ErrorIs(t, err, bracket.ErrNotFound)
}

func TestCreateEntries(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	ctx := context.Background()
	_, b := seedBracket(t, db, store)

	entries := []bracket.Entry{
		{ID: uuid.New(), BracketID: b.ID, ParticipantID: uuid.New(), Name: "Second", Seed: 2},
		{ID: uuid.New(), BracketID: b.ID, ParticipantID: uuid.New(), Name: "First", Seed: 1},
	}

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateEntries(ctx, tx, entries))
	require.NoError(t, tx.Commit())

	fetched, err := store.GetEntries(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	assert.Equal(t, "First", fetched[0].Name)
	assert.Equal(t, "Second", fetched[1].Name)

	// Same participant twice in one bracket
	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	dup := []bracket.Entry{{ID: uuid.New(), BracketID: b.ID, ParticipantID: entries[0].ParticipantID, Name: "Dup", Seed: 3}}
	assert.Error(t, store.CreateEntries(ctx, tx, dup))
}

func TestMatchesAndResults(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	ctx := context.Background()
	_, b := seedBracket(t, db, store)

	f1, f2 := uuid.New(), uuid.New()
	match := bracket.Match{
		ID:          uuid.New(),
		BracketID:   b.ID,
		RoundNumber: 1,
		MatchOrder:  1,
		Fighter1ID:  &f1,
		Fighter2ID:  &f2,
		Status:      bracket.MatchScheduled,
	}

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateMatches(ctx, tx, []bracket.Match{match}))
	require.NoError(t, tx.Commit())

	now := time.Now().UTC()
	match.Status = bracket.MatchCompleted
	match.WinnerID = &f2
	match.Score1 = utils.Ptr(1)
	match.Score2 = utils.Ptr(4)
	match.CompletedAt = &now

	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpdateMatch(ctx, tx, &match))
	require.NoError(t, store.UpdateBracketStatusTx(ctx, tx, b.ID, bracket.BracketCompleted, &now))

	count, err := store.CountResultsTx(ctx, tx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	results := []bracket.Result{
		{ID: uuid.New(), BracketID: b.ID, ParticipantID: f1, FinalRank: 2, Placement: "2", Medal: utils.Ptr(bracket.MedalSilver), TotalMatches: 1, MatchesLost: 1, EliminatedInRound: utils.Ptr("Final"), EliminatedByID: &f2},
		{ID: uuid.New(), BracketID: b.ID, ParticipantID: f2, FinalRank: 1, Placement: "1", Medal: utils.Ptr(bracket.MedalGold), TotalMatches: 1, MatchesWon: 1},
	}
	require.NoError(t, store.CreateResults(ctx, tx, results))
	require.NoError(t, tx.Commit())

	fetched, err := store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchCompleted, fetched.Status)
	assert.Equal(t, f2, *fetched.WinnerID)
	assert.Equal(t, 4, *fetched.Score2)

	completed, err := store.ListBracketsByStatus(ctx, bracket.BracketCompleted, nil)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.NotNil(t, completed[0].CompletedAt)

	stored, err := store.GetResults(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, f2, stored[0].ParticipantID)
	assert.Equal(t, bracket.MedalGold, *stored[0].Medal)
	assert.Nil(t, stored[0].EliminatedByID)
	assert.Equal(t, f2, *stored[1].EliminatedByID)

	// One result per participant and bracket
	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	assert.Error(t, store.CreateResults(ctx, tx, results[:1]))
	require.NoError(t, tx.Rollback())

	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.DeleteResultsTx(ctx, tx, b.ID))
	require.NoError(t, tx.Commit())

	stored, err = store.GetResults(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRegistrationStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	registrations := NewRegistrationStore(db)
	ctx := context.Background()
	event, _ := seedBracket(t, db, store)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	roster := []registration.Registrant{
		{ID: uuid.New(), EventID: event.ID, ParticipantID: uuid.New(), Name: "Late", Status: registration.StatusApproved, RegisteredAt: base.Add(time.Hour)},
		{ID: uuid.New(), EventID: event.ID, ParticipantID: uuid.New(), Name: "Early", WeightKg: utils.Ptr(41.5), Belt: utils.Ptr("green"), Status: registration.StatusApproved, RegisteredAt: base},
		{ID: uuid.New(), EventID: event.ID, ParticipantID: uuid.New(), Name: "Waiting", Status: registration.StatusPending, RegisteredAt: base.Add(2 * time.Hour)},
	}

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, registrations.CreateRegistrations(ctx, tx, roster))
	require.NoError(t, tx.Commit())

	approved, err := registrations.ApprovedRoster(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.Equal(t, "Early", approved[0].Name)
	assert.Equal(t, 41.5, *approved[0].WeightKg)
	assert.Nil(t, approved[1].Belt)
	assert.Nil(t, approved[1].DateOfBirth)

	require.NoError(t, registrations.UpdateStatus(ctx, roster[2].ID, registration.StatusApproved))
	approved, err = registrations.ApprovedRoster(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, approved, 3)

	all, err := registrations.GetRegistrations(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
