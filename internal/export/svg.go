package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/impel/internal/analysis"
	"github.com/san-kum/impel/internal/sim"
	"github.com/san-kum/impel/internal/viz"
)

var palette = []string{"#00ffff", "#ff00ff", "#ffcc00", "#00ff88", "#ff4444", "#0088ff"}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b *bounds) add(x, y float64) {
	b.minX, b.maxX = min(b.minX, x), max(b.maxX, x)
	b.minY, b.maxY = min(b.minY, y), max(b.maxY, y)
}

// pad widens the box by 10% per side and guards flat ranges.
func (b *bounds) pad() {
	rx, ry := b.maxX-b.minX, b.maxY-b.minY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	b.minX -= rx * 0.1
	b.maxX += rx * 0.1
	b.minY -= ry * 0.1
	b.maxY += ry * 0.1
}

func (b *bounds) project(x, y float64, width, height int) (float64, float64) {
	px := (x - b.minX) / (b.maxX - b.minX) * float64(width)
	py := float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height)
	return px, py
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

func path(sb *strings.Builder, xs, ys []float64, b *bounds, width, height int, stroke, extra string) {
	sb.WriteString(`<path fill="none" stroke="` + stroke + `" stroke-width="1.5"` + extra + ` d="`)
	for i := range xs {
		x, y := b.project(xs[i], ys[i], width, height)
		if i == 0 {
			fmt.Fprintf(sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

// TracesToSVG charts one signal of every trace against time. For the value
// series each target is drawn as a dashed line in the trace's color.
func TracesToSVG(traces []*sim.Trace, series viz.Series, width, height int) string {
	var b bounds
	first := true
	for _, tr := range traces {
		ys := series.Of(tr)
		for i := range ys {
			x := float64(tr.Times[i])
			if first {
				b = bounds{minX: x, maxX: x, minY: ys[i], maxY: ys[i]}
				first = false
			}
			b.add(x, ys[i])
			if series == viz.SeriesValue {
				b.add(x, tr.Targets[i])
			}
		}
	}
	if first {
		return ""
	}
	b.pad()

	var sb strings.Builder
	header(&sb, width, height)

	for i, tr := range traces {
		ys := series.Of(tr)
		if len(ys) == 0 {
			continue
		}
		xs := make([]float64, len(ys))
		for j := range ys {
			xs[j] = float64(tr.Times[j])
		}

		color := palette[i%len(palette)]
		if series == viz.SeriesValue {
			path(&sb, xs, tr.Targets, &b, width, height, color, ` stroke-dasharray="4 4" opacity="0.5"`)
		}
		fmt.Fprintf(&sb, "<!-- %s -->\n", tr.Name)
		path(&sb, xs, ys, &b, width, height, color, "")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// PhaseToSVG draws a phase portrait as a single path.
func PhaseToSVG(p *analysis.PhasePortrait, width, height int, stroke string) string {
	if p == nil || len(p.Points) < 2 {
		return ""
	}

	b := bounds{minX: p.Points[0].X, maxX: p.Points[0].X, minY: p.Points[0].Y, maxY: p.Points[0].Y}
	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		b.add(pt.X, pt.Y)
		xs[i], ys[i] = pt.X, pt.Y
	}
	b.pad()

	var sb strings.Builder
	header(&sb, width, height)
	path(&sb, xs, ys, &b, width, height, stroke, "")
	sb.WriteString("</svg>\n")
	return sb.String()
}
