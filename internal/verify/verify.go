// Package verify checks completed brackets against the properties every finished
// single elimination bracket must hold.
package verify

import (
	"context"
	"fmt"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Violation struct {
	BracketID uuid.UUID `json:"bracket_id"`
	Rule      string    `json:"rule"`
	Detail    string    `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("bracket %s: %s: %s", v.BracketID, v.Rule, v.Detail)
}

// Source loads what Check needs. *store.TournamentStore satisfies it.
type Source interface {
	GetBracket(ctx context.Context, id uuid.UUID) (*bracket.Bracket, error)
	GetEntries(ctx context.Context, bracketID uuid.UUID) ([]bracket.Entry, error)
	GetMatches(ctx context.Context, bracketID uuid.UUID) ([]bracket.Match, error)
	GetResults(ctx context.Context, bracketID uuid.UUID) ([]bracket.Result, error)
}

func Bracket(ctx context.Context, src Source, bracketID uuid.UUID) ([]Violation, error) {
	b, err := src.GetBracket(ctx, bracketID)
	if err != nil {
		return nil, err
	}
	entries, err := src.GetEntries(ctx, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	matches, err := src.GetMatches(ctx, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	results, err := src.GetResults(ctx, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	return Check(b, entries, matches, results), nil
}

// Brackets checks the brackets concurrently, at most limit at a time when limit is positive. Violations come back
// grouped by bracket in the order of bracketIDs.
func Brackets(ctx context.Context, src Source, bracketIDs []uuid.UUID, limit int) ([]Violation, error) {
	perBracket := make([][]Violation, len(bracketIDs))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range bracketIDs {
		g.Go(func() error {
			violations, err := Bracket(gctx, src, id)
			if err != nil {
				return fmt.Errorf("bracket %s: %w", id, err)
			}
			perBracket[i] = violations
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Violation
	for _, v := range perBracket {
		all = append(all, v...)
	}
	return all, nil
}

type checker struct {
	bracketID  uuid.UUID
	violations []Violation
}

func (c *checker) fail(rule, format string, args ...any) {
	c.violations = append(c.violations, Violation{BracketID: c.bracketID, Rule: rule, Detail: fmt.Sprintf(format, args...)})
}

// Check returns every rule a completed bracket breaks. An empty result means the bracket is sound.
func Check(b *bracket.Bracket, entries []bracket.Entry, matches []bracket.Match, results []bracket.Result) []Violation {
	c := &checker{bracketID: b.ID}

	if b.Status != bracket.BracketCompleted {
		c.fail("bracket_completed", "status is %s", b.Status)
	}

	fought := 0
	for _, m := range matches {
		if m.Status != bracket.MatchCompleted {
			c.fail("matches_completed", "round %d match %d is %s", m.RoundNumber, m.MatchOrder, m.Status)
		}
		if !m.IsBye {
			fought++
		}
	}
	if want := len(entries) - 1; fought != want {
		c.fail("real_match_count", "%d real matches for %d entrants, want %d", fought, len(entries), want)
	}

	if len(results) != len(entries) {
		c.fail("result_per_entrant", "%d results for %d entrants", len(results), len(entries))
	}
	entrants := make(map[uuid.UUID]struct{}, len(entries))
	for _, e := range entries {
		entrants[e.ParticipantID] = struct{}{}
	}

	medals := make(map[bracket.Medal]int)
	seen := make(map[uuid.UUID]struct{}, len(results))
	ranks := make(map[int]uuid.UUID, len(results))
	for _, r := range results {
		if _, ok := entrants[r.ParticipantID]; !ok {
			c.fail("result_per_entrant", "result for %s who is not an entrant", r.ParticipantID)
		}
		if _, ok := seen[r.ParticipantID]; ok {
			c.fail("result_per_entrant", "participant %s has more than one result", r.ParticipantID)
		}
		seen[r.ParticipantID] = struct{}{}

		if r.MatchesWon+r.MatchesLost != r.TotalMatches {
			c.fail("match_totals", "participant %s won %d lost %d of %d", r.ParticipantID, r.MatchesWon, r.MatchesLost, r.TotalMatches)
		}
		if r.TotalMatches < 1 {
			c.fail("match_totals", "participant %s has no matches", r.ParticipantID)
		}

		if r.FinalRank < 1 || r.FinalRank > len(entries) {
			c.fail("rank_range", "participant %s has rank %d of %d entrants", r.ParticipantID, r.FinalRank, len(entries))
		}
		// Rank 3 is the only shared rank
		if other, ok := ranks[r.FinalRank]; ok && r.FinalRank != 3 {
			c.fail("unique_rank", "participants %s and %s share rank %d", other, r.ParticipantID, r.FinalRank)
		}
		ranks[r.FinalRank] = r.ParticipantID

		if r.Medal != nil {
			medals[*r.Medal]++
			if want := medalRank(*r.Medal); r.FinalRank != want {
				c.fail("medal_rank", "participant %s has %s at rank %d, want %d", r.ParticipantID, *r.Medal, r.FinalRank, want)
			}
		} else if r.FinalRank <= 3 {
			c.fail("medal_rank", "participant %s at rank %d has no medal", r.ParticipantID, r.FinalRank)
		}

		champion := r.FinalRank == 1
		switch {
		case champion && r.EliminatedByID != nil:
			c.fail("eliminated_by", "champion %s has an eliminator", r.ParticipantID)
		case !champion && r.EliminatedByID == nil:
			c.fail("eliminated_by", "participant %s at rank %d has no eliminator", r.ParticipantID, r.FinalRank)
		}
	}

	if medals[bracket.MedalGold] != 1 {
		c.fail("medal_count", "%d gold medals, want 1", medals[bracket.MedalGold])
	}
	if medals[bracket.MedalSilver] != 1 {
		c.fail("medal_count", "%d silver medals, want 1", medals[bracket.MedalSilver])
	}
	if want := expectedBronzes(len(entries)); medals[bracket.MedalBronze] != want {
		c.fail("medal_count", "%d bronze medals for %d entrants, want %d", medals[bracket.MedalBronze], len(entries), want)
	}

	return c.violations
}

func medalRank(m bracket.Medal) int {
	switch m {
	case bracket.MedalGold:
		return 1
	case bracket.MedalSilver:
		return 2
	}
	return 3
}

func expectedBronzes(entrants int) int {
	switch {
	case entrants >= 4:
		return 2
	case entrants == 3:
		return 1
	}
	return 0
}
