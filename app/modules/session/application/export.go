package sessionservice

import (
	"context"
	"fmt"
	"strings"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	sessiondb "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
)

const (
	// XLSXContentType is the media type of exported scoresheets.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	scoresSheet  = "Scores"
	summarySheet = "Summary"
	winnerMarker = "WINNER"
)

type bytesResult = results.OperationResult[[]byte, error]

// ExportScoresheet renders the session as an xlsx workbook.
func (s *SessionService) ExportScoresheet(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	return execute(s, ctx, "ExportScoresheet", sessionID.String(), nil, func(ctx context.Context, db bun.IDB) (bytesResult, error) {
		st, failure, err := s.loadStandings(ctx, db, sessionID)
		if failure != nil || err != nil {
			return bytesResult{Failure: failure}, err
		}
		data, err := BuildScoresheet(st)
		if err != nil {
			return bytesResult{}, err
		}
		return results.SuccessResult[[]byte, error](data), nil
	})
}

// StoreScoresheet renders the scoresheet and saves it for later download.
func (s *SessionService) StoreScoresheet(ctx context.Context, sessionID uuid.UUID) error {
	_, err := execute(s, ctx, "StoreScoresheet", sessionID.String(), nil, func(ctx context.Context, db bun.IDB) (emptyResult, error) {
		st, failure, err := s.loadStandings(ctx, db, sessionID)
		if failure != nil || err != nil {
			return emptyResult{Failure: failure}, err
		}
		data, err := BuildScoresheet(st)
		if err != nil {
			return emptyResult{}, err
		}
		export := &sessiondb.Export{
			SessionID:   sessionID,
			ContentType: XLSXContentType,
			Content:     data,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.repo.SaveExport(ctx, db, export); err != nil {
			return emptyResult{}, fmt.Errorf("failed to save export: %w", err)
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	})
	return err
}

// GetStoredScoresheet returns the last scoresheet saved by StoreScoresheet.
func (s *SessionService) GetStoredScoresheet(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	return execute(s, ctx, "GetStoredScoresheet", sessionID.String(), nil, func(ctx context.Context, db bun.IDB) (bytesResult, error) {
		export, err := s.repo.GetExport(ctx, db, sessionID)
		if err != nil {
			if IsNotFound(err) {
				return results.FailureResult[[]byte, error](err), nil
			}
			return bytesResult{}, fmt.Errorf("failed to get export: %w", err)
		}
		return results.SuccessResult[[]byte, error](export.Content), nil
	})
}

func (s *SessionService) loadStandings(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*Standings, *error, error) {
	row, failure, err := s.loadSession(ctx, db, sessionID, false)
	if failure != nil || err != nil {
		return nil, failure, err
	}
	st, err := s.standingsFor(row)
	if err != nil {
		return nil, nil, err
	}
	return st, nil, nil
}

// BuildScoresheet lays out standings as a workbook with a Scores sheet and a
// Summary sheet.
func BuildScoresheet(st *Standings) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", scoresSheet); err != nil {
		return nil, fmt.Errorf("failed to name scores sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to add summary sheet: %w", err)
	}

	var rows [][]any
	if st.GameType == scoringdomain.GameTypeSpades {
		rows = spadesRows(st)
	} else {
		rows = roundRows(st)
	}
	for i, row := range rows {
		if err := writeRow(f, scoresSheet, i+1, row); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(scoresSheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetPanes(scoresSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	for i, row := range summaryRows(st) {
		if err := writeRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 16); err != nil {
		return nil, fmt.Errorf("failed to size summary column: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func roundRows(st *Standings) [][]any {
	header := []any{"Round"}
	for _, p := range st.Players {
		header = append(header, p.Name)
	}
	rows := [][]any{header}

	for _, r := range st.Rounds {
		label := any(r.Index + 1)
		if r.Label != "" {
			label = r.Label
		}
		row := []any{label}
		for _, p := range st.Players {
			row = append(row, r.Scores[p.PlayerID])
		}
		rows = append(rows, row)
	}

	total := []any{"Total"}
	marker := []any{""}
	for _, p := range st.Players {
		total = append(total, p.Total)
		marker = append(marker, winnerCell(p.IsWinner))
	}
	return append(rows, total, marker)
}

func spadesRows(st *Standings) [][]any {
	header := []any{"Hand"}
	for _, p := range st.Players {
		header = append(header, p.Name+" bid", p.Name+" tricks")
	}
	header = append(header, "Team A score", "Team A bags", "Team B score", "Team B bags")
	rows := [][]any{header}

	for _, r := range st.SpadesRounds {
		row := []any{r.Index + 1}
		for _, p := range st.Players {
			row = append(row, bidCell(r.Entries[p.PlayerID]), r.Entries[p.PlayerID].Tricks)
		}
		row = append(row, r.TeamAScore, r.TeamABags, r.TeamBScore, r.TeamBBags)
		rows = append(rows, row)
	}

	total := []any{"Total"}
	marker := []any{""}
	for range st.Players {
		total = append(total, "", "")
		marker = append(marker, "", "")
	}
	for _, t := range st.Teams {
		total = append(total, t.Score, t.Bags)
		marker = append(marker, winnerCell(t.IsWinner), "")
	}
	return append(rows, total, marker)
}

func bidCell(e SpadesEntryView) any {
	switch {
	case e.IsBlindNil:
		return "Blind Nil"
	case e.IsNil:
		return "Nil"
	default:
		return e.Bid
	}
}

func winnerCell(won bool) string {
	if won {
		return winnerMarker
	}
	return ""
}

func summaryRows(st *Standings) [][]any {
	rows := [][]any{
		{"Session", st.SessionID},
		{"Game", gameLabel(st.GameType)},
		{"Created", st.CreatedAt.Format("2006-01-02 15:04")},
		{"Rounds", st.RoundCount},
		{"Completed", st.IsCompleted},
	}
	if st.TargetScore > 0 {
		rows = append(rows, []any{"Target", st.TargetScore})
	}

	var winners []string
	for _, p := range st.Players {
		if p.IsWinner {
			winners = append(winners, p.Name)
		}
	}
	if len(st.WinningTeams) > 0 {
		rows = append(rows, []any{"Winning team", strings.Join(st.WinningTeams, ", ")})
	}
	if len(winners) > 0 {
		rows = append(rows, []any{"Winners", strings.Join(winners, ", ")})
	}
	return rows
}

func gameLabel(gt scoringdomain.GameType) string {
	rules, err := scoringdomain.LookupRules(gt)
	if err != nil {
		return string(gt)
	}
	return rules.Label
}
