package service

import (
	"context"
	"fmt"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentService struct {
	db    *sqlx.DB
	store *store.TournamentStore
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore) *TournamentService {
	return &TournamentService{db: db, store: store}
}

type BracketData struct {
	Bracket     *bracket.Bracket  `json:"bracket"`
	Category    *bracket.Category `json:"category"`
	Entries     []bracket.Entry   `json:"entries"`
	Matches     []bracket.Match   `json:"matches"`
	NextMatchID *uuid.UUID        `json:"next_match_id"`
}

func (s *TournamentService) CreateEvent(ctx context.Context, name string, eventDate time.Time) (uuid.UUID, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	event := bracket.Event{
		ID:        uuid.New(),
		Name:      name,
		EventDate: eventDate,
		Status:    bracket.EventRegistrationOpen,
	}
	if err := s.store.CreateEvent(ctx, tx, &event); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event.ID, tx.Commit()
}

func (s *TournamentService) GetEvent(ctx context.Context, id uuid.UUID) (*bracket.Event, error) {
	return s.store.GetEvent(ctx, id)
}

func (s *TournamentService) GetBracket(ctx context.Context, id uuid.UUID) (*bracket.Bracket, error) {
	return s.store.GetBracket(ctx, id)
}

func (s *TournamentService) GetBracketData(ctx context.Context, id uuid.UUID) (*BracketData, error) {
	b, err := s.store.GetBracket(ctx, id)
	if err != nil {
		return nil, err
	}

	cat, err := s.store.GetCategory(ctx, b.CategoryID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.GetEntries(ctx, id)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.GetMatches(ctx, id)
	if err != nil {
		return nil, err
	}

	var nextMatchID *uuid.UUID
	if next := nextReadyMatch(matches); next != nil {
		id := next.ID
		nextMatchID = &id
	}

	return &BracketData{
		Bracket:     b,
		Category:    cat,
		Entries:     entries,
		Matches:     matches,
		NextMatchID: nextMatchID,
	}, nil
}

func (s *TournamentService) ListBrackets(ctx context.Context, eventID uuid.UUID) ([]bracket.Bracket, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListBrackets(ctx, eventID)
}
