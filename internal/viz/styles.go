package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles derived from a theme
type styles struct {
	header   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	selected lipgloss.Style
	settled  lipgloss.Style
	moving   lipgloss.Style
	stats    lipgloss.Style
	help     lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header:   lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		selected: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		settled:  lipgloss.NewStyle().Foreground(t.Success),
		moving:   lipgloss.NewStyle().Foreground(t.Warning),
		stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2),
		help: lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
	}
}

// TableStyle is used by the CLI for run listings.
var (
	TableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	TableCell   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	TableMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RangeBar draws a track of width cells with a marker for value and one for
// target, both placed by their position in [lo, hi].
func RangeBar(value, target, lo, hi float64, width int) string {
	if width < 3 {
		width = 3
	}
	cell := func(x float64) int {
		if hi <= lo {
			return 0
		}
		c := int((x - lo) / (hi - lo) * float64(width-1))
		return max(0, min(width-1, c))
	}

	track := []rune(strings.Repeat("─", width))
	track[cell(target)] = '┃'
	track[cell(value)] = '●'
	return string(track)
}

// Sparkline renders values with block characters, sampling to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat(" ", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)
	start := 0
	if len(values) > width*step {
		start = len(values) - width*step
	}

	var sb strings.Builder
	for i := start; i < len(values); i += step {
		idx := int((values[i] - lo) / rng * float64(len(chars)-1))
		sb.WriteRune(chars[max(0, min(len(chars)-1, idx))])
	}
	return sb.String()
}
