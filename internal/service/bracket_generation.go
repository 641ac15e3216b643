package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/store"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BracketService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	deps  Deps
}

func NewBracketService(db *sqlx.DB, store *store.TournamentStore, deps Deps) *BracketService {
	return &BracketService{db: db, store: store, deps: deps.withDefaults()}
}

// Participant is a categorized registrant, in registration order.
type Participant struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type BuiltBracket struct {
	Bracket bracket.Bracket
	Entries []bracket.Entry
	Matches []bracket.Match
}

// RealMatches counts matches that will actually be fought.
func (b *BuiltBracket) RealMatches() int {
	n := 0
	for _, m := range b.Matches {
		if !m.IsBye {
			n++
		}
	}
	return n
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// generateRound1Pairs folds seeds so 1 meets N, 2 meets N-1 and the top two seeds can only
// meet in the final. Seeds are 0-based; any seed >= participant count is a bye, so byes land
// on the highest seeds first.
func generateRound1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		matchup := [2]int{rounds[i], rounds[i+1]}
		pairs = append(pairs, matchup)
	}

	return pairs
}

// generateMatchTree creates the empty single elimination tree for bracketSize slots,
// linking every match to the round+1 match that consumes its winner.
func generateMatchTree(bracketID uuid.UUID, bracketSize int) []bracket.Match {
	var matches []bracket.Match

	totalRounds := int(math.Log2(float64(bracketSize)))
	nextRoundMatchIDs := make(map[int]uuid.UUID)

	// Significantly easier to start from the last round and work backwards
	for r := totalRounds; r >= 1; r-- {
		matchesInCurrentRound := 1 << (totalRounds - r)
		currentRoundMatchIDs := make(map[int]uuid.UUID)

		for i := 0; i < matchesInCurrentRound; i++ {
			matchID := uuid.New()
			matchOrder := i + 1

			m := bracket.Match{
				ID:          matchID,
				BracketID:   bracketID,
				RoundNumber: r,
				MatchOrder:  matchOrder,
				Status:      bracket.MatchScheduled,
			}

			if r < totalRounds {
				parentID := nextRoundMatchIDs[(matchOrder+1)/2]
				m.NextMatchID = &parentID

				if matchOrder%2 != 0 {
					m.NextSlot = utils.Ptr(1)
				} else {
					m.NextSlot = utils.Ptr(2)
				}
			}

			matches = append(matches, m)
			currentRoundMatchIDs[matchOrder] = matchID
		}
		nextRoundMatchIDs = currentRoundMatchIDs
	}

	return matches
}

// Build arranges participants into a single elimination bracket. Bye matches are created
// already COMPLETED with the lone participant as winner and that winner seated in round 2.
func (s *BracketService) Build(eventID, categoryID uuid.UUID, participants []Participant) (*BuiltBracket, error) {
	if len(participants) < 2 {
		return nil, fmt.Errorf("category %s has %d participants, need at least 2: %w", categoryID, len(participants), bracket.ErrNotEnoughParticipants)
	}

	seen := make(map[uuid.UUID]struct{}, len(participants))
	for _, p := range participants {
		if _, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("participant %s: %w", p.ID, bracket.ErrDuplicateParticipant)
		}
		seen[p.ID] = struct{}{}
	}

	bracketID := uuid.New()
	size := calcBracketSize(len(participants))
	b := bracket.Bracket{
		ID:          bracketID,
		EventID:     eventID,
		CategoryID:  categoryID,
		Status:      bracket.BracketPending,
		Size:        size,
		TotalRounds: int(math.Log2(float64(size))),
	}

	entries := make([]bracket.Entry, 0, len(participants))
	for i, p := range participants {
		entries = append(entries, bracket.Entry{
			ID:            uuid.New(),
			BracketID:     bracketID,
			ParticipantID: p.ID,
			Name:          p.Name,
			Seed:          i + 1,
		})
	}

	matches := generateMatchTree(bracketID, size)

	// Create a map for easy lookup to propagate bye winners
	matchMap := make(map[uuid.UUID]*bracket.Match)
	round1Matches := make([]*bracket.Match, 0, size/2)
	for i := range matches {
		matchMap[matches[i].ID] = &matches[i]
		if matches[i].RoundNumber == 1 {
			round1Matches = append(round1Matches, &matches[i])
		}
	}
	now := time.Now().UTC()

	for i, pair := range generateRound1Pairs(size) {
		match := round1Matches[i]
		if pair[0] < len(participants) {
			match.Fighter1ID = utils.Ptr(participants[pair[0]].ID)
		}
		if pair[1] < len(participants) {
			match.Fighter2ID = utils.Ptr(participants[pair[1]].ID)
		}

		var byeWinner *uuid.UUID
		switch {
		case match.Fighter1ID != nil && match.Fighter2ID == nil:
			byeWinner = match.Fighter1ID
		case match.Fighter1ID == nil && match.Fighter2ID != nil:
			byeWinner = match.Fighter2ID
		case match.Fighter1ID == nil && match.Fighter2ID == nil:
			// Cannot happen while size < 2*len(participants)
			return nil, fmt.Errorf("round 1 match %d has no participants", match.MatchOrder)
		}
		if byeWinner == nil {
			continue
		}

		match.IsBye = true
		match.Status = bracket.MatchCompleted
		match.WinnerID = byeWinner
		match.CompletedAt = &now

		if match.NextMatchID != nil {
			if next, ok := matchMap[*match.NextMatchID]; ok {
				seat(next, *match.NextSlot, *byeWinner)
			}
		}
	}

	return &BuiltBracket{Bracket: b, Entries: entries, Matches: matches}, nil
}

// CreateBracket builds and persists a bracket with its entries and matches inside tx.
func (s *BracketService) CreateBracket(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, category *bracket.Category, participants []Participant) (*BuiltBracket, error) {
	built, err := s.Build(eventID, category.ID, participants)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateBracket(ctx, tx, &built.Bracket); err != nil {
		return nil, fmt.Errorf("failed to create bracket: %w", err)
	}
	if err := s.store.CreateEntries(ctx, tx, built.Entries); err != nil {
		return nil, fmt.Errorf("failed to create entries: %w", err)
	}
	if err := s.store.CreateMatches(ctx, tx, built.Matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	s.deps.Logger.InfoContext(ctx, "bracket created",
		"bracket_id", built.Bracket.ID,
		"category", category.Label(),
		"participants", len(participants),
		"size", built.Bracket.Size,
		"real_matches", built.RealMatches(),
	)
	return built, nil
}

func seat(m *bracket.Match, slot int, participantID uuid.UUID) {
	id := participantID
	if slot == 1 {
		m.Fighter1ID = &id
	} else {
		m.Fighter2ID = &id
	}
}
