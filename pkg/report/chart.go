package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/c9s/hawkes/pkg/analysis"
)

var ErrNotEnoughPoints = errors.New("at least 2 windows are needed to draw a chart")

// Canvas plots a per-window metric against the window index.
type Canvas struct {
	chart.Chart
}

func NewCanvas(title, yName string) *Canvas {
	out := &Canvas{
		Chart: chart.Chart{
			Title: title,
			XAxis: chart.XAxis{
				Name:           "window",
				ValueFormatter: chart.IntValueFormatter,
			},
			YAxis: chart.YAxis{
				Name: yName,
				ValueFormatter: func(v interface{}) string {
					if vf, isFloat := v.(float64); isFloat {
						return fmt.Sprintf("%.4f", vf)
					}
					return ""
				},
			},
		},
	}
	out.Chart.Elements = []chart.Renderable{
		chart.LegendLeft(&out.Chart),
	}
	return out
}

// PlotRows adds one point per row, ordered by window.
func (canvas *Canvas) PlotRows(tag string, rows []analysis.Row, value func(r analysis.Row) float64) {
	sorted := make([]analysis.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Window < sorted[j].Window
	})

	x := make([]float64, len(sorted))
	y := make([]float64, len(sorted))
	for i, r := range sorted {
		x[i] = float64(r.Window)
		y[i] = value(r)
	}

	canvas.Series = append(canvas.Series, chart.ContinuousSeries{
		Name:    tag,
		XValues: x,
		YValues: y,
	})
}

// PlotLevel adds a horizontal reference line over the windows of rows.
func (canvas *Canvas) PlotLevel(tag string, rows []analysis.Row, level float64) {
	canvas.PlotRows(tag, rows, func(analysis.Row) float64 { return level })
}

// DrawBranching plots n* per window against the critical value 1.
func DrawBranching(title string, rows []analysis.Row) *Canvas {
	canvas := NewCanvas(title, "n*")
	canvas.PlotRows("branching factor", rows, func(r analysis.Row) float64 { return r.BranchingFactor })
	canvas.PlotLevel("critical", rows, 1)
	return canvas
}

// DrawHalfLife plots the content half-life per window, in minutes.
func DrawHalfLife(title string, rows []analysis.Row) *Canvas {
	canvas := NewCanvas(title, "half-life (min)")
	canvas.PlotRows("half-life", rows, func(r analysis.Row) float64 { return r.HalfLife / 60 })
	return canvas
}

func (canvas *Canvas) Render(w io.Writer) error {
	for _, s := range canvas.Series {
		if cs, ok := s.(chart.ContinuousSeries); ok && len(cs.XValues) < 2 {
			return ErrNotEnoughPoints
		}
	}

	return canvas.Chart.Render(chart.PNG, w)
}

func (canvas *Canvas) RenderFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create on path %s: %w", filename, err)
	}
	defer f.Close()

	if err := canvas.Render(f); err != nil {
		return errors.Wrapf(err, "cannot render %s", canvas.Title)
	}

	return nil
}
