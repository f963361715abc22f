package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/impel/internal/sim"
)

// Series selects which recorded signal a plot shows.
type Series string

const (
	SeriesValue    Series = "value"
	SeriesVelocity Series = "velocity"
	SeriesDiff     Series = "diff"
)

func ParseSeries(s string) (Series, error) {
	switch Series(s) {
	case SeriesValue, SeriesVelocity, SeriesDiff:
		return Series(s), nil
	}
	return "", fmt.Errorf("unknown series %q (value, velocity, diff)", s)
}

// Of returns the samples of tr for this series.
func (s Series) Of(tr *sim.Trace) []float64 {
	switch s {
	case SeriesVelocity:
		return tr.Velocities
	case SeriesDiff:
		return tr.Diffs
	default:
		return tr.Values
	}
}

// PlotTrace charts one signal of a trace. The caption carries the settle
// time when the impeller settled.
func PlotTrace(tr *sim.Trace, series Series, width, height int) string {
	data := series.Of(tr)
	if len(data) == 0 {
		return ""
	}

	caption := fmt.Sprintf("%s %s", tr.Name, series)
	if tr.Settled() {
		caption += fmt.Sprintf(" (settled at %dms)", tr.SettledAt)
	}

	return asciigraph.Plot(data,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan, asciigraph.Magenta, asciigraph.Yellow, asciigraph.Green, asciigraph.Red, asciigraph.Blue,
}

// PlotTraces overlays one signal of several traces.
func PlotTraces(traces []*sim.Trace, series Series, width, height int) string {
	data := make([][]float64, 0, len(traces))
	colors := make([]asciigraph.AnsiColor, 0, len(traces))
	legends := make([]string, 0, len(traces))
	for i, tr := range traces {
		if len(series.Of(tr)) == 0 {
			continue
		}
		data = append(data, series.Of(tr))
		colors = append(colors, seriesColors[i%len(seriesColors)])
		legends = append(legends, tr.Name)
	}
	if len(data) == 0 {
		return ""
	}

	return asciigraph.PlotMany(data,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption(string(series)),
	)
}
