package verify

import (
	"context"
	"testing"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fourPersonBracket is a completed bracket where seed 1 beats seed 4 and then seed 2, who beat seed 3.
func fourPersonBracket() (*bracket.Bracket, []bracket.Entry, []bracket.Match, []bracket.Result) {
	b := &bracket.Bracket{ID: uuid.New(), Status: bracket.BracketCompleted, Size: 4, TotalRounds: 2}
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}

	entries := make([]bracket.Entry, len(ids))
	for i, id := range ids {
		entries[i] = bracket.Entry{ID: uuid.New(), BracketID: b.ID, ParticipantID: id, Seed: i + 1}
	}

	match := func(round, order int, f1, f2, winner uuid.UUID) bracket.Match {
		return bracket.Match{ID: uuid.New(), BracketID: b.ID, RoundNumber: round, MatchOrder: order, Fighter1ID: &f1, Fighter2ID: &f2, WinnerID: &winner, Status: bracket.MatchCompleted}
	}
	matches := []bracket.Match{
		match(1, 1, ids[0], ids[3], ids[0]),
		match(1, 2, ids[1], ids[2], ids[1]),
		match(2, 1, ids[0], ids[1], ids[0]),
	}

	results := []bracket.Result{
		{ParticipantID: ids[0], FinalRank: 1, Medal: utils.Ptr(bracket.MedalGold), TotalMatches: 2, MatchesWon: 2},
		{ParticipantID: ids[1], FinalRank: 2, Medal: utils.Ptr(bracket.MedalSilver), TotalMatches: 2, MatchesWon: 1, MatchesLost: 1, EliminatedByID: &ids[0]},
		{ParticipantID: ids[2], FinalRank: 3, Medal: utils.Ptr(bracket.MedalBronze), TotalMatches: 1, MatchesLost: 1, EliminatedByID: &ids[1]},
		{ParticipantID: ids[3], FinalRank: 3, Medal: utils.Ptr(bracket.MedalBronze), TotalMatches: 1, MatchesLost: 1, EliminatedByID: &ids[0]},
	}
	return b, entries, matches, results
}

func rules(violations []Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Rule)
	}
	return out
}

func TestCheckSoundBracket(t *testing.T) {
	b, entries, matches, results := fourPersonBracket()
	assert.Empty(t, Check(b, entries, matches, results))
}

func TestCheckViolations(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(b *bracket.Bracket, matches []bracket.Match, results []bracket.Result) []bracket.Result
		rule   string
	}{
		{
			name: "open match",
			mutate: func(_ *bracket.Bracket, matches []bracket.Match, results []bracket.Result) []bracket.Result {
				matches[2].Status = bracket.MatchLive
				return results
			},
			rule: "matches_completed",
		},
		{
			name: "two golds",
			mutate: func(_ *bracket.Bracket, _ []bracket.Match, results []bracket.Result) []bracket.Result {
				results[1].Medal = utils.Ptr(bracket.MedalGold)
				return results
			},
			rule: "medal_count",
		},
		{
			name: "totals do not add up",
			mutate: func(_ *bracket.Bracket, _ []bracket.Match, results []bracket.Result) []bracket.Result {
				results[2].TotalMatches = 2
				return results
			},
			rule: "match_totals",
		},
		{
			name: "missing result",
			mutate: func(_ *bracket.Bracket, _ []bracket.Match, results []bracket.Result) []bracket.Result {
				return results[:3]
			},
			rule: "result_per_entrant",
		},
		{
			name: "champion with eliminator",
			mutate: func(_ *bracket.Bracket, _ []bracket.Match, results []bracket.Result) []bracket.Result {
				results[0].EliminatedByID = utils.Ptr(results[1].ParticipantID)
				return results
			},
			rule: "eliminated_by",
		},
		{
			name: "bracket still running",
			mutate: func(b *bracket.Bracket, _ []bracket.Match, results []bracket.Result) []bracket.Result {
				b.Status = bracket.BracketInProgress
				return results
			},
			rule: "bracket_completed",
		},
		{
			name: "tie below bronze",
			mutate: func(_ *bracket.Bracket, _ []bracket.Match, results []bracket.Result) []bracket.Result {
				results[2].FinalRank, results[2].Medal = 4, nil
				results[3].FinalRank, results[3].Medal = 4, nil
				return results
			},
			rule: "unique_rank",
		},
		{
			name: "rank past the entrant count",
			mutate: func(_ *bracket.Bracket, _ []bracket.Match, results []bracket.Result) []bracket.Result {
				results[3].FinalRank, results[3].Medal = 5, nil
				return results
			},
			rule: "rank_range",
		},
		{
			name: "podium rank without a medal",
			mutate: func(_ *bracket.Bracket, _ []bracket.Match, results []bracket.Result) []bracket.Result {
				results[3].Medal = nil
				return results
			},
			rule: "medal_rank",
		},
		{
			name: "fought match marked as bye",
			mutate: func(_ *bracket.Bracket, matches []bracket.Match, results []bracket.Result) []bracket.Result {
				matches[0].IsBye = true
				return results
			},
			rule: "real_match_count",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, entries, matches, results := fourPersonBracket()
			results = tc.mutate(b, matches, results)

			assert.Contains(t, rules(Check(b, entries, matches, results)), tc.rule)
		})
	}
}

func TestCheckSmallBrackets(t *testing.T) {
	a, c := uuid.New(), uuid.New()
	b := &bracket.Bracket{ID: uuid.New(), Status: bracket.BracketCompleted, Size: 2, TotalRounds: 1}
	entries := []bracket.Entry{{ParticipantID: a, Seed: 1}, {ParticipantID: c, Seed: 2}}
	matches := []bracket.Match{{RoundNumber: 1, MatchOrder: 1, Fighter1ID: &a, Fighter2ID: &c, WinnerID: &a, Status: bracket.MatchCompleted}}
	results := []bracket.Result{
		{ParticipantID: a, FinalRank: 1, Medal: utils.Ptr(bracket.MedalGold), TotalMatches: 1, MatchesWon: 1},
		{ParticipantID: c, FinalRank: 2, Medal: utils.Ptr(bracket.MedalSilver), TotalMatches: 1, MatchesLost: 1, EliminatedByID: &a},
	}
	assert.Empty(t, Check(b, entries, matches, results))

	results = append(results, bracket.Result{ParticipantID: uuid.New(), FinalRank: 3, Medal: utils.Ptr(bracket.MedalBronze), TotalMatches: 1, MatchesLost: 1, EliminatedByID: &a})
	assert.Contains(t, rules(Check(b, entries, matches, results)), "medal_count")
}

type fakeBracket struct {
	bracket *bracket.Bracket
	entries []bracket.Entry
	matches []bracket.Match
	results []bracket.Result
}

type fakeSource map[uuid.UUID]fakeBracket

func (f fakeSource) get(id uuid.UUID) (fakeBracket, error) {
	fb, ok := f[id]
	if !ok {
		return fakeBracket{}, bracket.ErrNotFound
	}
	return fb, nil
}

func (f fakeSource) GetBracket(_ context.Context, id uuid.UUID) (*bracket.Bracket, error) {
	fb, err := f.get(id)
	return fb.bracket, err
}

func (f fakeSource) GetEntries(_ context.Context, id uuid.UUID) ([]bracket.Entry, error) {
	fb, err := f.get(id)
	return fb.entries, err
}

func (f fakeSource) GetMatches(_ context.Context, id uuid.UUID) ([]bracket.Match, error) {
	fb, err := f.get(id)
	return fb.matches, err
}

func (f fakeSource) GetResults(_ context.Context, id uuid.UUID) ([]bracket.Result, error) {
	fb, err := f.get(id)
	return fb.results, err
}

func TestBrackets(t *testing.T) {
	src := fakeSource{}
	var ids []uuid.UUID
	for i := 0; i < 6; i++ {
		b, entries, matches, results := fourPersonBracket()
		if i == 3 {
			results = results[:2]
		}
		src[b.ID] = fakeBracket{bracket: b, entries: entries, matches: matches, results: results}
		ids = append(ids, b.ID)
	}

	violations, err := Brackets(context.Background(), src, ids, 2)
	require.NoError(t, err)
	require.NotEmpty(t, violations)
	for _, v := range violations {
		assert.Equal(t, ids[3], v.BracketID)
	}

	_, err = Brackets(context.Background(), src, append(ids, uuid.New()), 2)
	assert.ErrorIs(t, err, bracket.ErrNotFound)
}
