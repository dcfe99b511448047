package chart

import (
	"bytes"
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// RenderWinLoss renders a win/loss bar chart to PNG bytes. Every call builds
// its own chart and buffer: no shared drawing state, no temporary files, so
// concurrent cycles cannot collide.
func RenderWinLoss(wins, losses int, title string) ([]byte, error) {
	graph := gochart.BarChart{
		Title:    title,
		Height:   512,
		Width:    512,
		BarWidth: 90,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 48},
		},
		Bars: []gochart.Value{
			{
				Value: float64(wins),
				Label: fmt.Sprintf("Wins (%d)", wins),
				Style: gochart.Style{FillColor: drawing.ColorFromHex("2e8b57"), StrokeWidth: 0},
			},
			{
				Value: float64(losses),
				Label: fmt.Sprintf("Losses (%d)", losses),
				Style: gochart.Style{FillColor: drawing.ColorFromHex("b22222"), StrokeWidth: 0},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render win/loss chart: %w", err)
	}
	return buf.Bytes(), nil
}
