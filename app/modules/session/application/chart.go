package sessionservice

import (
	"bytes"
	"context"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// PNGContentType is the media type of rendered charts.
const PNGContentType = "image/png"

// ChartPalette colors a progress chart. Lines are assigned round robin.
type ChartPalette struct {
	Background drawing.Color
	TextColor  drawing.Color
	Lines      []drawing.Color
}

// DefaultChartPalette is a dark background with high contrast lines.
func DefaultChartPalette() ChartPalette {
	return ChartPalette{
		Background: drawing.ColorFromHex("1b1f24"),
		TextColor:  drawing.ColorFromHex("e6e6e6"),
		Lines: []drawing.Color{
			drawing.ColorFromHex("4e79a7"),
			drawing.ColorFromHex("f28e2b"),
			drawing.ColorFromHex("e15759"),
			drawing.ColorFromHex("76b7b2"),
			drawing.ColorFromHex("59a14f"),
			drawing.ColorFromHex("edc948"),
			drawing.ColorFromHex("b07aa1"),
			drawing.ColorFromHex("ff9da7"),
			drawing.ColorFromHex("9c755f"),
			drawing.ColorFromHex("bab0ac"),
		},
	}
}

func (p ChartPalette) line(i int) drawing.Color {
	if len(p.Lines) == 0 {
		return p.TextColor
	}
	return p.Lines[i%len(p.Lines)]
}

// RenderProgressChart draws cumulative totals per round as a PNG.
func (s *SessionService) RenderProgressChart(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	return execute(s, ctx, "RenderProgressChart", sessionID.String(), nil, func(ctx context.Context, db bun.IDB) (bytesResult, error) {
		st, failure, err := s.loadStandings(ctx, db, sessionID)
		if failure != nil || err != nil {
			return bytesResult{Failure: failure}, err
		}
		data, err := GenerateProgressChart(st, DefaultChartPalette())
		if err != nil {
			return bytesResult{}, err
		}
		return results.SuccessResult[[]byte, error](data), nil
	})
}

// ProgressLine is one plotted participant: a player, or a Spades team.
type ProgressLine struct {
	Name   string
	Totals []float64
}

// ProgressLines returns the cumulative totals after each round, starting
// from 0 before the first round.
func ProgressLines(st *Standings) []ProgressLine {
	if st.GameType == scoringdomain.GameTypeSpades {
		a := ProgressLine{Name: string(scoringdomain.TeamA), Totals: []float64{0}}
		b := ProgressLine{Name: string(scoringdomain.TeamB), Totals: []float64{0}}
		for _, r := range st.SpadesRounds {
			a.Totals = append(a.Totals, float64(r.TeamAScore))
			b.Totals = append(b.Totals, float64(r.TeamBScore))
		}
		return []ProgressLine{a, b}
	}

	lines := make([]ProgressLine, len(st.Players))
	for i, p := range st.Players {
		lines[i] = ProgressLine{Name: p.Name, Totals: []float64{0}}
		running := 0
		for _, r := range st.Rounds {
			running += r.Scores[p.PlayerID]
			lines[i].Totals = append(lines[i].Totals, float64(running))
		}
	}
	return lines
}

// GenerateProgressChart renders the standings' history as a line chart.
func GenerateProgressChart(st *Standings, palette ChartPalette) ([]byte, error) {
	if st.RoundCount == 0 {
		return renderNoDataPlaceholder(palette, "No rounds yet")
	}

	lines := ProgressLines(st)
	minY, maxY := 0.0, 0.0
	var series []chart.Series
	for i, l := range lines {
		xs := make([]float64, len(l.Totals))
		for x := range xs {
			xs[x] = float64(x)
		}
		for _, y := range l.Totals {
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    l.Name,
			XValues: xs,
			YValues: l.Totals,
			Style: chart.Style{
				StrokeColor: palette.line(i),
				StrokeWidth: 2,
				DotWidth:    3,
				DotColor:    palette.line(i),
			},
		})
	}
	if minY == maxY {
		maxY = minY + 1
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name:           "Round",
			ValueFormatter: chart.IntValueFormatter,
			Style:          chart.Style{FontColor: palette.TextColor},
			Range:          &chart.ContinuousRange{Min: 0, Max: float64(st.RoundCount)},
		},
		YAxis: chart.YAxis{
			Name:  "Total",
			Style: chart.Style{FontColor: palette.TextColor},
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph, chart.Style{
		FillColor: palette.Background,
		FontColor: palette.TextColor,
	})}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette, msg string) ([]byte, error) {
	const (
		width  = 400
		height = 200
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{Style: chart.Style{Hidden: true}},
		YAxis: chart.YAxis{Style: chart.Style{Hidden: true}},
		// go-chart refuses to render without a visible series.
		Series: []chart.Series{chart.ContinuousSeries{
			XValues: []float64{0, 1},
			YValues: []float64{0, 1},
			Style:   chart.Style{StrokeColor: drawing.ColorTransparent, StrokeWidth: 1},
		}},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
