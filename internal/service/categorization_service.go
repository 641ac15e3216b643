package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/category"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/registration"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/store"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CategorizationService closes registration: it buckets the approved roster into categories
// and builds one bracket per category.
type CategorizationService struct {
	db       *sqlx.DB
	store    *store.TournamentStore
	roster   registration.RosterProvider
	brackets *BracketService
	deps     Deps
}

func NewCategorizationService(db *sqlx.DB, store *store.TournamentStore, roster registration.RosterProvider, brackets *BracketService, deps Deps) *CategorizationService {
	return &CategorizationService{db: db, store: store, roster: roster, brackets: brackets, deps: deps.withDefaults()}
}

type CategoryGroup struct {
	Bands        category.Bands `json:"bands"`
	Participants []Participant  `json:"participants"`
}

// Excluded is a registrant left out of automatic categorization.
type Excluded struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Name          string    `json:"name"`
	Reason        string    `json:"reason"`
}

type Categorization struct {
	EventID  uuid.UUID       `json:"event_id"`
	Groups   []CategoryGroup `json:"groups"`
	Excluded []Excluded      `json:"excluded"`
}

type GeneratedBracket struct {
	BracketID    uuid.UUID        `json:"bracket_id"`
	Category     bracket.Category `json:"category"`
	Participants int              `json:"participants"`
	Size         int              `json:"size"`
	RealMatches  int              `json:"real_matches"`
}

type GenerationSummary struct {
	EventID     uuid.UUID          `json:"event_id"`
	Brackets    []GeneratedBracket `json:"brackets"`
	Unbracketed []CategoryGroup    `json:"unbracketed"`
	Excluded    []Excluded         `json:"excluded"`
}

// Preview classifies the approved roster without writing anything.
func (s *CategorizationService) Preview(ctx context.Context, eventID uuid.UUID) (*Categorization, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.ApprovedRoster(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	return s.categorize(ctx, event, roster)
}

func (s *CategorizationService) categorize(ctx context.Context, event *bracket.Event, roster []registration.Registrant) (*Categorization, error) {
	result := &Categorization{EventID: event.ID, Groups: []CategoryGroup{}, Excluded: []Excluded{}}
	index := make(map[category.Bands]int)

	for _, r := range roster {
		bands, err := category.Classify(category.Attributes{
			ParticipantID: r.ParticipantID,
			DateOfBirth:   r.DateOfBirth,
			WeightKg:      r.WeightKg,
			Belt:          utils.Deref(r.Belt, ""),
		}, event.EventDate)
		if err != nil {
			if !errors.Is(err, bracket.ErrMissingAttribute) {
				return nil, err
			}
			s.deps.Logger.InfoContext(ctx, "participant excluded from categorization",
				"event_id", event.ID,
				"participant_id", r.ParticipantID,
				"reason", err.Error(),
			)
			result.Excluded = append(result.Excluded, Excluded{ParticipantID: r.ParticipantID, Name: r.Name, Reason: err.Error()})
			continue
		}

		i, ok := index[bands]
		if !ok {
			i = len(result.Groups)
			index[bands] = i
			result.Groups = append(result.Groups, CategoryGroup{Bands: bands})
		}
		result.Groups[i].Participants = append(result.Groups[i].Participants, Participant{ID: r.ParticipantID, Name: r.Name})
	}

	return result, nil
}

// GenerateBrackets closes registration for the event and creates every category, bracket and
// match in one transaction. Categories with a single participant are reported, not bracketed.
func (s *CategorizationService) GenerateBrackets(ctx context.Context, eventID uuid.UUID) (_ *GenerationSummary, err error) {
	ctx, span := s.deps.Tracer.Start(ctx, "CategorizationService.GenerateBrackets", trace.WithAttributes(attribute.String("event_id", eventID.String())))
	defer func() { endSpan(span, err) }()

	started := time.Now()
	defer func() { s.deps.Metrics.BracketBuildSeconds.Observe(time.Since(started).Seconds()) }()

	preview, err := s.Preview(ctx, eventID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	event, err := s.store.GetEventTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != bracket.EventRegistrationOpen {
		return nil, &bracket.TransitionError{
			Entity: "event",
			ID:     event.ID,
			From:   string(event.Status),
			To:     string(bracket.EventRegistrationClosed),
			Reason: "brackets were already generated",
		}
	}

	summary := &GenerationSummary{
		EventID:     eventID,
		Brackets:    []GeneratedBracket{},
		Unbracketed: []CategoryGroup{},
		Excluded:    preview.Excluded,
	}

	for _, group := range preview.Groups {
		if len(group.Participants) < 2 {
			summary.Unbracketed = append(summary.Unbracketed, group)
			continue
		}

		cat := &bracket.Category{
			ID:         uuid.New(),
			EventID:    eventID,
			AgeBand:    group.Bands.Age,
			WeightBand: group.Bands.Weight,
			BeltBand:   group.Bands.Belt,
		}
		if err := s.store.CreateCategory(ctx, tx, cat); err != nil {
			return nil, fmt.Errorf("failed to create category %s: %w", cat.Label(), err)
		}

		built, err := s.brackets.CreateBracket(ctx, tx, eventID, cat, group.Participants)
		if err != nil {
			return nil, err
		}
		summary.Brackets = append(summary.Brackets, GeneratedBracket{
			BracketID:    built.Bracket.ID,
			Category:     *cat,
			Participants: len(group.Participants),
			Size:         built.Bracket.Size,
			RealMatches:  built.RealMatches(),
		})
	}

	if err := s.store.UpdateEventStatusTx(ctx, tx, eventID, bracket.EventRegistrationClosed); err != nil {
		return nil, fmt.Errorf("failed to close registration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "brackets generated",
		"event_id", eventID,
		"brackets", len(summary.Brackets),
		"unbracketed", len(summary.Unbracketed),
		"excluded", len(summary.Excluded),
	)
	return summary, nil
}
