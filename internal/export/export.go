// Package export writes bracket standings to spreadsheet workbooks.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/utils"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	ResultsSheet = "Results"
	MatchesSheet = "Matches"
)

var (
	resultsHeader = []any{"Rank", "Placement", "Medal", "Name", "Matches", "Won", "Lost", "Eliminated In", "Eliminated By"}
	matchesHeader = []any{"Round", "Match", "Fighter 1", "Fighter 2", "Score 1", "Score 2", "Winner", "Status"}
)

// Bracket is everything a workbook shows for one bracket.
type Bracket struct {
	Bracket  *bracket.Bracket
	Category *bracket.Category
	Entries  []bracket.Entry
	Matches  []bracket.Match
	Results  []bracket.Result
}

// Write renders the results and matches sheets as an xlsx workbook.
func Write(w io.Writer, data Bracket) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(MatchesSheet); err != nil {
		return err
	}

	names := make(map[uuid.UUID]string, len(data.Entries))
	for _, e := range data.Entries {
		names[e.ParticipantID] = e.Name
	}
	name := func(id *uuid.UUID) string {
		if id == nil {
			return ""
		}
		if n, ok := names[*id]; ok {
			return n
		}
		return id.String()
	}

	rows := [][]any{resultsHeader}
	for _, r := range data.Results {
		rows = append(rows, []any{
			r.FinalRank, r.Placement, string(utils.Deref(r.Medal, "")), name(&r.ParticipantID),
			r.TotalMatches, r.MatchesWon, r.MatchesLost,
			utils.Deref(r.EliminatedInRound, ""), name(r.EliminatedByID),
		})
	}
	if err := writeRows(f, ResultsSheet, rows); err != nil {
		return err
	}

	rows = [][]any{matchesHeader}
	for _, m := range data.Matches {
		round := strconv.Itoa(m.RoundNumber)
		if data.Bracket != nil {
			round = bracket.RoundLabel(m.RoundNumber, data.Bracket.TotalRounds)
		}
		status := string(m.Status)
		if m.IsBye {
			status = "BYE"
		}
		rows = append(rows, []any{
			round, m.MatchOrder, name(m.Fighter1ID), name(m.Fighter2ID),
			score(m.Score1), score(m.Score2), name(m.WinnerID), status,
		})
	}
	if err := writeRows(f, MatchesSheet, rows); err != nil {
		return err
	}

	if data.Category != nil {
		if err := f.SetDocProps(&excelize.DocProperties{Title: data.Category.Label()}); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, idx+1, err)
		}
	}
	return nil
}

func score(s *int) any {
	if s == nil {
		return ""
	}
	return *s
}
