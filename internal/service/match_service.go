package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/live"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MatchService moves matches through SCHEDULED -> LIVE -> COMPLETED, seats winners in
// the next round and completes the bracket once every match is decided.
type MatchService struct {
	db      *sqlx.DB
	store   *store.TournamentStore
	results *ResultService
	deps    Deps
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore, results *ResultService, deps Deps) *MatchService {
	return &MatchService{db: db, store: store, results: results, deps: deps.withDefaults()}
}

type Outcome struct {
	WinnerID uuid.UUID `json:"winner_id"`
	Score1   *int      `json:"score_1,omitempty"`
	Score2   *int      `json:"score_2,omitempty"`
}

// Progress is what a recorded outcome changed.
type Progress struct {
	Match          *bracket.Match        `json:"match"`
	NextMatch      *bracket.Match        `json:"next_match,omitempty"`
	BracketStatus  bracket.BracketStatus `json:"bracket_status"`
	ResultsDerived bool                  `json:"results_derived"`
}

func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	return s.store.GetMatch(ctx, matchID)
}

// StartMatch moves a SCHEDULED match with both fighters seated to LIVE.
func (s *MatchService) StartMatch(ctx context.Context, matchID uuid.UUID) (_ *bracket.Match, err error) {
	ctx, span := s.deps.Tracer.Start(ctx, "MatchService.StartMatch", trace.WithAttributes(attribute.String("match_id", matchID.String())))
	defer func() { endSpan(span, err) }()

	bracketID, err := s.bracketOf(ctx, matchID)
	if err != nil {
		return nil, err
	}
	unlock := s.deps.Locks.Lock(bracketID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}

	if !match.Status.TransitionTo(bracket.MatchLive) {
		return nil, s.reject(ctx, transitionErr(match, bracket.MatchLive, "match is not scheduled"))
	}
	if !match.HasBothFighters() {
		return nil, s.reject(ctx, transitionErr(match, bracket.MatchLive, "fighters are not decided yet"))
	}

	now := time.Now().UTC()
	match.Status = bracket.MatchLive
	match.StartedAt = &now
	if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	b, err := s.store.GetBracketTx(ctx, tx, match.BracketID)
	if err != nil {
		return nil, err
	}
	if b.Status == bracket.BracketPending {
		if err := s.store.UpdateBracketStatusTx(ctx, tx, b.ID, bracket.BracketInProgress, nil); err != nil {
			return nil, fmt.Errorf("failed to update bracket status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.deps.Metrics.MatchesStarted.Inc()
	s.deps.Publisher.Publish(b.ID.String(), live.MatchUpdated, match)
	s.deps.Logger.InfoContext(ctx, "match started", "match_id", match.ID, "bracket_id", match.BracketID)
	return match, nil
}

// RecordOutcome completes a LIVE or SCHEDULED match. When it is the last open match the
// bracket completes and results are derived in the same transaction.
func (s *MatchService) RecordOutcome(ctx context.Context, matchID uuid.UUID, outcome Outcome) (_ *Progress, err error) {
	ctx, span := s.deps.Tracer.Start(ctx, "MatchService.RecordOutcome", trace.WithAttributes(
		attribute.String("match_id", matchID.String()),
		attribute.String("winner_id", outcome.WinnerID.String()),
	))
	defer func() { endSpan(span, err) }()

	bracketID, err := s.bracketOf(ctx, matchID)
	if err != nil {
		return nil, err
	}
	unlock := s.deps.Locks.Lock(bracketID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}

	if !match.Status.TransitionTo(bracket.MatchCompleted) {
		return nil, s.reject(ctx, transitionErr(match, bracket.MatchCompleted, "match is already decided"))
	}
	if !match.HasBothFighters() {
		return nil, s.reject(ctx, transitionErr(match, bracket.MatchCompleted, "fighters are not decided yet"))
	}
	if match.Slot(outcome.WinnerID) == 0 {
		s.deps.Logger.WarnContext(ctx, "winner is not part of match",
			"match_id", match.ID,
			"bracket_id", match.BracketID,
			"winner_id", outcome.WinnerID,
		)
		return nil, s.reject(ctx, &bracket.WinnerError{MatchID: match.ID, BracketID: match.BracketID, WinnerID: outcome.WinnerID})
	}

	now := time.Now().UTC()
	match.WinnerID = &outcome.WinnerID
	match.Score1 = outcome.Score1
	match.Score2 = outcome.Score2
	match.Status = bracket.MatchCompleted
	match.CompletedAt = &now

	if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	progress := &Progress{Match: match}

	if match.NextMatchID != nil && match.NextSlot != nil {
		nextMatch, err := s.store.GetMatchTx(ctx, tx, *match.NextMatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to get next match: %w", err)
		}

		occupant := nextMatch.Fighter1ID
		if *match.NextSlot == 2 {
			occupant = nextMatch.Fighter2ID
		}
		if occupant != nil && *occupant != outcome.WinnerID {
			return nil, fmt.Errorf("next match %s slot %d already holds %s", nextMatch.ID, *match.NextSlot, *occupant)
		}
		seat(nextMatch, *match.NextSlot, outcome.WinnerID)

		if err := s.store.UpdateMatch(ctx, tx, nextMatch); err != nil {
			return nil, fmt.Errorf("failed to update next match: %w", err)
		}
		progress.NextMatch = nextMatch
	}

	b, err := s.store.GetBracketTx(ctx, tx, match.BracketID)
	if err != nil {
		return nil, err
	}
	status, err := s.advanceBracket(ctx, tx, b, now)
	if err != nil {
		return nil, err
	}
	progress.BracketStatus = status

	if status == bracket.BracketCompleted {
		b.Status = status
		derived, err := s.results.deriveTx(ctx, tx, b)
		if err != nil {
			return nil, fmt.Errorf("failed to derive results: %w", err)
		}
		progress.ResultsDerived = derived
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.deps.Metrics.MatchesCompleted.Inc()
	s.deps.Publisher.Publish(b.ID.String(), live.MatchUpdated, progress)
	if progress.ResultsDerived {
		s.deps.Metrics.ResultDerivations.Inc()
		s.deps.Publisher.Publish(b.ID.String(), live.BracketCompleted, map[string]any{"bracket_id": b.ID})
	}
	s.deps.Logger.InfoContext(ctx, "match outcome recorded",
		"match_id", match.ID,
		"bracket_id", b.ID,
		"winner_id", outcome.WinnerID,
		"bracket_status", status,
	)
	return progress, nil
}

// advanceBracket recomputes the bracket status from its matches inside tx.
func (s *MatchService) advanceBracket(ctx context.Context, tx *sqlx.Tx, b *bracket.Bracket, now time.Time) (bracket.BracketStatus, error) {
	matches, err := s.store.GetMatchesTx(ctx, tx, b.ID)
	if err != nil {
		return "", fmt.Errorf("failed to get bracket matches: %w", err)
	}

	next := bracket.BracketInProgress
	if allCompleted(matches) {
		next = bracket.BracketCompleted
	}
	if next == b.Status {
		return b.Status, nil
	}
	if !b.Status.TransitionTo(next) {
		return "", &bracket.TransitionError{Entity: "bracket", ID: b.ID, From: string(b.Status), To: string(next)}
	}

	var completedAt *time.Time
	if next == bracket.BracketCompleted {
		completedAt = &now
	}
	if err := s.store.UpdateBracketStatusTx(ctx, tx, b.ID, next, completedAt); err != nil {
		return "", fmt.Errorf("failed to update bracket status: %w", err)
	}
	return next, nil
}

// NextMatch is the first scheduled match that can start, or nil.
func (s *MatchService) NextMatch(ctx context.Context, bracketID uuid.UUID) (*bracket.Match, error) {
	matches, err := s.store.GetMatches(ctx, bracketID)
	if err != nil {
		return nil, err
	}
	return nextReadyMatch(matches), nil
}

func (s *MatchService) bracketOf(ctx context.Context, matchID uuid.UUID) (uuid.UUID, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return uuid.Nil, err
	}
	return match.BracketID, nil
}

func (s *MatchService) reject(ctx context.Context, err error) error {
	kind := "other"
	switch {
	case errors.Is(err, bracket.ErrInvalidTransition):
		kind = "invalid_transition"
	case errors.Is(err, bracket.ErrInvalidWinner):
		kind = "invalid_winner"
	}
	s.deps.Metrics.EngineErrors.WithLabelValues(kind).Inc()
	s.deps.Logger.DebugContext(ctx, "match operation rejected", "error", err)
	return err
}

func transitionErr(m *bracket.Match, to bracket.MatchStatus, reason string) error {
	return &bracket.TransitionError{
		Entity: "match",
		ID:     m.ID,
		From:   string(m.Status),
		To:     string(to),
		Reason: reason,
	}
}

func allCompleted(matches []bracket.Match) bool {
	for _, m := range matches {
		if m.Status != bracket.MatchCompleted {
			return false
		}
	}
	return len(matches) > 0
}

func nextReadyMatch(matches []bracket.Match) *bracket.Match {
	for i := range matches {
		if matches[i].Status == bracket.MatchScheduled && matches[i].HasBothFighters() {
			return &matches[i]
		}
	}
	return nil
}
