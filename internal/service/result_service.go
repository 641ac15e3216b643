package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/live"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/store"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ResultService turns a completed bracket into ranks, medals and per-participant stats.
type ResultService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	deps  Deps
}

func NewResultService(db *sqlx.DB, store *store.TournamentStore, deps Deps) *ResultService {
	return &ResultService{db: db, store: store, deps: deps.withDefaults()}
}

func (s *ResultService) GetResults(ctx context.Context, bracketID uuid.UUID) ([]bracket.Result, error) {
	if _, err := s.store.GetBracket(ctx, bracketID); err != nil {
		return nil, err
	}
	return s.store.GetResults(ctx, bracketID)
}

// Derive writes results for a completed bracket. It reports false when results already exist.
func (s *ResultService) Derive(ctx context.Context, bracketID uuid.UUID) (_ bool, err error) {
	ctx, span := s.deps.Tracer.Start(ctx, "ResultService.Derive", trace.WithAttributes(attribute.String("bracket_id", bracketID.String())))
	defer func() { endSpan(span, err) }()

	unlock := s.deps.Locks.Lock(bracketID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	b, err := s.completedBracket(ctx, tx, bracketID)
	if err != nil {
		return false, err
	}

	derived, err := s.deriveTx(ctx, tx, b)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	if derived {
		s.deps.Metrics.ResultDerivations.Inc()
		s.deps.Publisher.Publish(bracketID.String(), live.BracketCompleted, map[string]any{"bracket_id": bracketID})
	}
	return derived, nil
}

// Regenerate replaces the results of a completed bracket, for brackets corrected after the fact.
func (s *ResultService) Regenerate(ctx context.Context, bracketID uuid.UUID) (_ []bracket.Result, err error) {
	ctx, span := s.deps.Tracer.Start(ctx, "ResultService.Regenerate", trace.WithAttributes(attribute.String("bracket_id", bracketID.String())))
	defer func() { endSpan(span, err) }()

	unlock := s.deps.Locks.Lock(bracketID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := s.completedBracket(ctx, tx, bracketID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteResultsTx(ctx, tx, bracketID); err != nil {
		return nil, fmt.Errorf("failed to delete results: %w", err)
	}
	if _, err := s.deriveTx(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.deps.Metrics.ResultDerivations.Inc()
	s.deps.Logger.InfoContext(ctx, "results regenerated", "bracket_id", bracketID)
	return s.store.GetResults(ctx, bracketID)
}

func (s *ResultService) completedBracket(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID) (*bracket.Bracket, error) {
	b, err := s.store.GetBracketTx(ctx, tx, bracketID)
	if err != nil {
		return nil, err
	}
	if b.Status != bracket.BracketCompleted {
		return nil, &bracket.TransitionError{
			Entity: "bracket",
			ID:     b.ID,
			From:   string(b.Status),
			To:     "results",
			Reason: "bracket is not completed",
		}
	}
	return b, nil
}

// deriveTx must run under the bracket lock. Existing results make it a no-op.
func (s *ResultService) deriveTx(ctx context.Context, tx *sqlx.Tx, b *bracket.Bracket) (bool, error) {
	count, err := s.store.CountResultsTx(ctx, tx, b.ID)
	if err != nil {
		return false, fmt.Errorf("failed to count results: %w", err)
	}
	if count > 0 {
		s.deps.Logger.DebugContext(ctx, "results already derived", "bracket_id", b.ID)
		return false, nil
	}

	entries, err := s.store.GetEntriesTx(ctx, tx, b.ID)
	if err != nil {
		return false, fmt.Errorf("failed to get entries: %w", err)
	}
	matches, err := s.store.GetMatchesTx(ctx, tx, b.ID)
	if err != nil {
		return false, fmt.Errorf("failed to get matches: %w", err)
	}

	results, err := deriveResults(b, entries, matches)
	if err != nil {
		return false, err
	}
	if err := s.store.CreateResults(ctx, tx, results); err != nil {
		return false, fmt.Errorf("failed to create results: %w", err)
	}

	s.deps.Logger.InfoContext(ctx, "results derived", "bracket_id", b.ID, "results", len(results))
	return true, nil
}

type standing struct {
	participantID uuid.UUID
	order         int
	won           int
	lost          int
	lostInRound   int
	eliminatedBy  *uuid.UUID
}

// deriveResults ranks every participant who fought at least one real match.
// Losers of round r out of R share the placement band starting at 2^(R-r)+1: final loser 2, semi final
// losers 3, quarter final losers 5-8 and so on. Both semi final losers hold rank 3; below that each band
// hands out distinct ranks in seed order. Byes count neither as a win nor as a match.
func deriveResults(b *bracket.Bracket, entries []bracket.Entry, matches []bracket.Match) ([]bracket.Result, error) {
	rounds := b.TotalRounds
	seeds := make(map[uuid.UUID]int, len(entries))
	for _, e := range entries {
		seeds[e.ParticipantID] = e.Seed
	}
	var final *bracket.Match
	standings := make(map[uuid.UUID]*standing)
	var order []uuid.UUID

	get := func(id uuid.UUID) *standing {
		st, ok := standings[id]
		if !ok {
			st = &standing{participantID: id, order: len(order)}
			standings[id] = st
			order = append(order, id)
		}
		return st
	}

	for i := range matches {
		m := &matches[i]
		if m.Status != bracket.MatchCompleted || m.WinnerID == nil {
			return nil, fmt.Errorf("match %s in bracket %s is not decided", m.ID, b.ID)
		}
		if m.RoundNumber == rounds {
			final = m
		}
		if m.IsBye {
			continue
		}

		loser := m.Loser()
		if loser == nil {
			return nil, fmt.Errorf("match %s has no loser", m.ID)
		}
		get(*m.WinnerID).won++
		st := get(*loser)
		st.lost++
		st.lostInRound = m.RoundNumber
		st.eliminatedBy = utils.Ptr(*m.WinnerID)
	}

	if final == nil {
		return nil, fmt.Errorf("bracket %s has no final", b.ID)
	}

	results := make([]bracket.Result, 0, len(order))
	for _, id := range order {
		if _, ok := seeds[id]; !ok {
			return nil, fmt.Errorf("participant %s is not an entrant of bracket %s", id, b.ID)
		}
		st := standings[id]
		r := bracket.Result{
			ID:             uuid.New(),
			BracketID:      b.ID,
			ParticipantID:  id,
			TotalMatches:   st.won + st.lost,
			MatchesWon:     st.won,
			MatchesLost:    st.lost,
			EliminatedByID: st.eliminatedBy,
		}

		if st.lost == 0 {
			if id != *final.WinnerID {
				return nil, fmt.Errorf("participant %s is unbeaten but did not win the final", id)
			}
			r.FinalRank = 1
			r.Placement = "1"
			r.Medal = utils.Ptr(bracket.MedalGold)
		} else {
			r.FinalRank, r.Placement = placement(st.lostInRound, rounds)
			r.EliminatedInRound = utils.Ptr(bracket.RoundLabel(st.lostInRound, rounds))
			switch st.lostInRound {
			case rounds:
				r.Medal = utils.Ptr(bracket.MedalSilver)
			case rounds - 1:
				r.Medal = utils.Ptr(bracket.MedalBronze)
			}
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalRank != results[j].FinalRank {
			return results[i].FinalRank < results[j].FinalRank
		}
		return seeds[results[i].ParticipantID] < seeds[results[j].ParticipantID]
	})

	taken := make(map[int]int)
	for i := range results {
		start := results[i].FinalRank
		if start <= 3 {
			continue
		}
		results[i].FinalRank = start + taken[start]
		taken[start]++
	}
	return results, nil
}

// placement is the first rank and the printable band for losing in round of totalRounds.
func placement(round, totalRounds int) (int, string) {
	best := 1<<(totalRounds-round) + 1
	worst := 1 << (totalRounds - round + 1)
	// Both semi final losers take bronze, so the band collapses to 3
	if round >= totalRounds-1 {
		return best, strconv.Itoa(best)
	}
	return best, strconv.Itoa(best) + "-" + strconv.Itoa(worst)
}
