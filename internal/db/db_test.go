package db

import (
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDBAndMigrations(t *testing.T) {
	database, err := InitDB(filepath.Join(t.TempDir(), "dojo.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database.DB, "file://../../migrations"))
	require.NoError(t, RunMigrations(database.DB, "file://../../migrations"), "second run is a no-op")

	var foreignKeys int
	require.NoError(t, database.Get(&foreignKeys, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, foreignKeys)

	var tables []string
	require.NoError(t, database.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('events', 'brackets', 'matches', 'results') ORDER BY name"))
	assert.Equal(t, []string{"brackets", "events", "matches", "results"}, tables)

	m, err := NewMigrator(database.DB, "file://../../migrations")
	require.NoError(t, err)
	require.NoError(t, m.Steps(-1))
	_, _, err = m.Version()
	assert.ErrorIs(t, err, migrate.ErrNilVersion)
}
