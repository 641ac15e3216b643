package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TournamentStore persists events and everything hanging off a bracket.
// Writes take a transaction so multi-row changes are all-or-nothing.
type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) DB() *sqlx.DB {
	return s.db
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, bracket.ErrNotFound)
	}
	return err
}

func (s *TournamentStore) CreateEvent(ctx context.Context, tx *sqlx.Tx, event *bracket.Event) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO events (id, name, event_date, status)
        VALUES (:id, :name, :event_date, :status)`, event)
	return err
}

func (s *TournamentStore) GetEvent(ctx context.Context, id uuid.UUID) (*bracket.Event, error) {
	return getEvent(ctx, s.db, id)
}

func (s *TournamentStore) GetEventTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Event, error) {
	return getEvent(ctx, tx, id)
}

func getEvent(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Event, error) {
	var event bracket.Event
	if err := sqlx.GetContext(ctx, q, &event, "SELECT * FROM events WHERE id = ?", id); err != nil {
		return nil, notFound(err, "event", id)
	}
	return &event, nil
}

func (s *TournamentStore) UpdateEventStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status bracket.EventStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE events SET status = ? WHERE id = ?", status, id)
	return err
}

func (s *TournamentStore) CreateCategory(ctx context.Context, tx *sqlx.Tx, category *bracket.Category) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO categories (id, event_id, age_band, weight_band, belt_band)
        VALUES (:id, :event_id, :age_band, :weight_band, :belt_band)`, category)
	return err
}

func (s *TournamentStore) GetCategory(ctx context.Context, id uuid.UUID) (*bracket.Category, error) {
	var category bracket.Category
	if err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE id = ?", id); err != nil {
		return nil, notFound(err, "category", id)
	}
	return &category, nil
}

func (s *TournamentStore) CreateBracket(ctx context.Context, tx *sqlx.Tx, b *bracket.Bracket) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO brackets (id, event_id, category_id, status, size, total_rounds)
        VALUES (:id, :event_id, :category_id, :status, :size, :total_rounds)`, b)
	return err
}

func (s *TournamentStore) GetBracket(ctx context.Context, id uuid.UUID) (*bracket.Bracket, error) {
	return getBracket(ctx, s.db, id)
}

func (s *TournamentStore) GetBracketTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Bracket, error) {
	return getBracket(ctx, tx, id)
}

func getBracket(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Bracket, error) {
	var b bracket.Bracket
	if err := sqlx.GetContext(ctx, q, &b, "SELECT * FROM brackets WHERE id = ?", id); err != nil {
		return nil, notFound(err, "bracket", id)
	}
	return &b, nil
}

func (s *TournamentStore) ListBrackets(ctx context.Context, eventID uuid.UUID) ([]bracket.Bracket, error) {
	var brackets []bracket.Bracket
	err := s.db.SelectContext(ctx, &brackets, "SELECT * FROM brackets WHERE event_id = ? ORDER BY created_at ASC, id ASC", eventID)
	return brackets, err
}

// ListBracketsByStatus returns brackets in the given status, optionally limited to one event.
func (s *TournamentStore) ListBracketsByStatus(ctx context.Context, status bracket.BracketStatus, eventID *uuid.UUID) ([]bracket.Bracket, error) {
	var brackets []bracket.Bracket
	if eventID != nil {
		err := s.db.SelectContext(ctx, &brackets, "SELECT * FROM brackets WHERE status = ? AND event_id = ? ORDER BY created_at ASC, id ASC", status, *eventID)
		return brackets, err
	}
	err := s.db.SelectContext(ctx, &brackets, "SELECT * FROM brackets WHERE status = ? ORDER BY created_at ASC, id ASC", status)
	return brackets, err
}

func (s *TournamentStore) UpdateBracketStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status bracket.BracketStatus, completedAt *time.Time) error {
	_, err := tx.ExecContext(ctx, "UPDATE brackets SET status = ?, completed_at = ? WHERE id = ?", status, completedAt, id)
	return err
}

func (s *TournamentStore) CreateEntries(ctx context.Context, tx *sqlx.Tx, entries []bracket.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO entries (id, bracket_id, participant_id, name, seed)
            VALUES (:id, :bracket_id, :participant_id, :name, :seed)`, entries)
	return err
}

func (s *TournamentStore) GetEntries(ctx context.Context, bracketID uuid.UUID) ([]bracket.Entry, error) {
	return getEntries(ctx, s.db, bracketID)
}

func (s *TournamentStore) GetEntriesTx(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID) ([]bracket.Entry, error) {
	return getEntries(ctx, tx, bracketID)
}

func getEntries(ctx context.Context, q sqlx.QueryerContext, bracketID uuid.UUID) ([]bracket.Entry, error) {
	var entries []bracket.Entry
	err := sqlx.SelectContext(ctx, q, &entries, "SELECT * FROM entries WHERE bracket_id = ? ORDER BY seed ASC", bracketID)
	return entries, err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, bracket_id, round_number, match_order, fighter_1_id, fighter_2_id, winner_id, status, next_match_id, next_slot, is_bye, completed_at)
		VALUES (:id, :bracket_id, :round_number, :match_order, :fighter_1_id, :fighter_2_id, :winner_id, :status, :next_match_id, :next_slot, :is_bye, :completed_at)`, matches)
	return err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, tx, id)
}

func getMatch(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	if err := sqlx.GetContext(ctx, q, &match, "SELECT * FROM matches WHERE id = ?", id); err != nil {
		return nil, notFound(err, "match", id)
	}
	return &match, nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, bracketID uuid.UUID) ([]bracket.Match, error) {
	return getMatches(ctx, s.db, bracketID)
}

func (s *TournamentStore) GetMatchesTx(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID) ([]bracket.Match, error) {
	return getMatches(ctx, tx, bracketID)
}

func getMatches(ctx context.Context, q sqlx.QueryerContext, bracketID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, "SELECT * FROM matches WHERE bracket_id = ? ORDER BY round_number ASC, match_order ASC", bracketID)
	return matches, err
}

func (s *TournamentStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE matches SET
		fighter_1_id = :fighter_1_id,
		fighter_2_id = :fighter_2_id,
		score_1 = :score_1,
		score_2 = :score_2,
		winner_id = :winner_id,
		status = :status,
		started_at = :started_at,
		completed_at = :completed_at
		WHERE id = :id`, match)
	return err
}

func (s *TournamentStore) CountResultsTx(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM results WHERE bracket_id = ?", bracketID)
	return count, err
}

// CreateResults inserts a result batch. The (participant_id, bracket_id) unique key rejects duplicates.
func (s *TournamentStore) CreateResults(ctx context.Context, tx *sqlx.Tx, results []bracket.Result) error {
	if len(results) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO results (id, bracket_id, participant_id, final_rank, placement, medal, total_matches, matches_won, matches_lost, eliminated_in_round, eliminated_by_id)
		VALUES (:id, :bracket_id, :participant_id, :final_rank, :placement, :medal, :total_matches, :matches_won, :matches_lost, :eliminated_in_round, :eliminated_by_id)`, results)
	return err
}

func (s *TournamentStore) DeleteResultsTx(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM results WHERE bracket_id = ?", bracketID)
	return err
}

func (s *TournamentStore) GetResults(ctx context.Context, bracketID uuid.UUID) ([]bracket.Result, error) {
	var results []bracket.Result
	err := s.db.SelectContext(ctx, &results, `SELECT r.* FROM results r
		LEFT JOIN entries e ON e.bracket_id = r.bracket_id AND e.participant_id = r.participant_id
		WHERE r.bracket_id = ?
		ORDER BY r.final_rank ASC, e.name ASC, r.participant_id ASC`, bracketID)
	return results, err
}
