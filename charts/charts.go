// Package charts renders time-series charts of a recorded run as PNG.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pthm-cable/fitness/components"
	"github.com/pthm-cable/fitness/telemetry"
)

// ErrTooFewSteps is returned when a series is too short to draw.
var ErrTooFewSteps = errors.New("charts: need at least two steps")

const (
	width  = 1200
	height = 500
)

var cohortColors = [len(components.Cohorts)]drawing.Color{
	chart.ColorRed,
	drawing.Color{R: 255, G: 165, B: 0, A: 255}, // Orange
	chart.ColorBlue,
	chart.ColorGreen,
}

// RenderPopulation draws the population of each cohort and the total.
func RenderPopulation(w io.Writer, series []telemetry.StepStats) error {
	if len(series) < 2 {
		return ErrTooFewSteps
	}
	xs := steps(series)

	var lines []chart.Series
	for i, c := range components.Cohorts {
		lines = append(lines, chart.ContinuousSeries{
			Name:    c.String(),
			XValues: xs,
			YValues: column(series, func(s telemetry.StepStats) float64 {
				counts := s.PopulationCounts()
				return float64(counts.Get(c))
			}),
			Style: chart.Style{StrokeColor: cohortColors[i], StrokeWidth: 2.0},
		})
	}
	total := column(series, func(s telemetry.StepStats) float64 { return float64(s.Population) })
	lines = append(lines, chart.ContinuousSeries{
		Name:    "total",
		XValues: xs,
		YValues: total,
		Style:   chart.Style{StrokeColor: chart.ColorBlack, StrokeWidth: 3.0},
	})

	_, hi := bounds(total)
	return render(w, "Population", xs, 0, math.Max(hi*1.1, 1), lines)
}

// RenderFitness draws the mean fitness overall and per strategy, plus the
// p10 and p90 band.
func RenderFitness(w io.Writer, series []telemetry.StepStats) error {
	if len(series) < 2 {
		return ErrTooFewSteps
	}
	xs := steps(series)

	cols := []struct {
		name  string
		get   func(telemetry.StepStats) float64
		color drawing.Color
		width float64
	}{
		{"mean", func(s telemetry.StepStats) float64 { return s.AvgFitness }, chart.ColorBlack, 3.0},
		{"none", func(s telemetry.StepStats) float64 { return s.AvgFitnessNone }, chart.ColorBlue, 2.0},
		{"choosy", func(s telemetry.StepStats) float64 { return s.AvgFitnessChoosy }, chart.ColorRed, 2.0},
		{"p10", func(s telemetry.StepStats) float64 { return s.FitnessP10 }, chart.ColorAlternateGray, 1.0},
		{"p90", func(s telemetry.StepStats) float64 { return s.FitnessP90 }, chart.ColorAlternateGray, 1.0},
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	var lines []chart.Series
	for _, col := range cols {
		ys := column(series, col.get)
		l, h := bounds(ys)
		lo, hi = math.Min(lo, l), math.Max(hi, h)
		lines = append(lines, chart.ContinuousSeries{
			Name:    col.name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: col.color, StrokeWidth: col.width},
		})
	}

	pad := math.Max((hi-lo)*0.1, 0.1)
	return render(w, "Fitness", xs, lo-pad, hi+pad, lines)
}

// WriteAll renders every chart into dir as PNG files.
func WriteAll(dir string, series []telemetry.StepStats) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating chart directory: %w", err)
	}

	charts := []struct {
		file   string
		render func(io.Writer, []telemetry.StepStats) error
	}{
		{"population.png", RenderPopulation},
		{"fitness.png", RenderFitness},
	}

	var written []string
	for _, c := range charts {
		path := filepath.Join(dir, c.file)
		if err := writeFile(path, series, c.render); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, series []telemetry.StepStats, render func(io.Writer, []telemetry.StepStats) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := render(f, series); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return f.Close()
}

func render(w io.Writer, yName string, xs []float64, yMin, yMax float64, lines []chart.Series) error {
	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Step",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  yName,
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: lines,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

func steps(series []telemetry.StepStats) []float64 {
	return column(series, func(s telemetry.StepStats) float64 { return float64(s.Step) })
}

func column(series []telemetry.StepStats, get func(telemetry.StepStats) float64) []float64 {
	out := make([]float64, len(series))
	for i, s := range series {
		out[i] = get(s)
	}
	return out
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}
