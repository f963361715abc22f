package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/impel/internal/config"
	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/logging"
	"github.com/san-kum/impel/internal/overshoot"
	"github.com/san-kum/impel/internal/sim"
)

const (
	historyCapacity = 120
	barWidth        = 32
)

type TickMsg time.Time

type liveBody struct {
	*sim.Body
	rng     overshoot.Range
	history []float64
}

// LiveModel steps a pool of impellers in real time. Every tick advances the
// engine by one scenario frame, so drops made between ticks are compacted on
// the next one.
type LiveModel struct {
	cfg      *config.Config
	engine   *impel.Engine
	log      *logging.Logger
	bodies   []*liveBody
	t        impel.Time
	frames   int
	fps      int
	running  bool
	selected int
	spawned  int
	theme    Theme
	styles   styles
	showHelp bool
	err      error
}

func NewLiveModel(cfg *config.Config, fps int, log *logging.Logger) (*LiveModel, error) {
	if log == nil {
		log = logging.Nop()
	}
	if fps <= 0 {
		fps = 60
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	m := &LiveModel{
		cfg:     cfg,
		log:     log.WithComponent("live"),
		fps:     fps,
		running: true,
		theme:   Themes[0],
		styles:  newStyles(Themes[0]),
	}
	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LiveModel) reset() error {
	for _, b := range m.bodies {
		b.Handle.Invalidate()
	}

	engine := impel.NewEngine(sim.NewRegistry(), m.log)
	bodies, err := sim.Spawn(engine, m.cfg)
	if err != nil {
		return err
	}

	m.engine = engine
	m.bodies = make([]*liveBody, 0, len(bodies))
	for _, b := range bodies {
		m.bodies = append(m.bodies, m.wrap(b))
	}
	m.t, m.frames, m.selected, m.spawned = 0, 0, 0, 0
	return nil
}

func (m *LiveModel) wrap(b *sim.Body) *liveBody {
	return &liveBody{
		Body:    b,
		rng:     m.cfg.Drivers[b.Driver].Overshoot.Range(),
		history: make([]float64, 0, historyCapacity),
	}
}

func (m *LiveModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *LiveModel) Engine() *impel.Engine { return m.engine }
func (m *LiveModel) Time() impel.Time      { return m.t }
func (m *LiveModel) Running() bool         { return m.running }
func (m *LiveModel) Len() int              { return len(m.bodies) }
func (m *LiveModel) Selected() *sim.Body {
	if len(m.bodies) == 0 {
		return nil
	}
	return m.bodies[m.selected].Body
}

func (m *LiveModel) Init() tea.Cmd { return m.tick() }

func (m *LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "tab", "j", "down":
			m.cycle(1)
		case "shift+tab", "k", "up":
			m.cycle(-1)
		case "a":
			m.duplicate()
		case "d":
			m.drop()
		case "t":
			m.retarget()
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "c":
			m.theme = nextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *LiveModel) step() {
	m.engine.AdvanceFrame(m.cfg.FrameMs)
	m.t += m.cfg.FrameMs
	m.frames++

	for _, b := range m.bodies {
		b.history = append(b.history, b.Handle.Value())
		if len(b.history) > historyCapacity {
			b.history = b.history[1:]
		}
	}
}

func (m *LiveModel) cycle(dir int) {
	if len(m.bodies) == 0 {
		return
	}
	m.selected = (m.selected + dir + len(m.bodies)) % len(m.bodies)
}

func (m *LiveModel) duplicate() {
	if len(m.bodies) == 0 {
		return
	}
	src := m.bodies[m.selected]
	m.spawned++

	b := &sim.Body{
		Name:    fmt.Sprintf("%s+%d", src.Name, m.spawned),
		Driver:  src.Driver,
		Settled: src.Settled,
	}
	if err := src.Handle.Duplicate(&b.Handle); err != nil {
		m.err = err
		return
	}
	m.bodies = append(m.bodies, m.wrap(b))
	m.selected = len(m.bodies) - 1
	m.log.Debug("impeller added", "impeller", b.Name, "live", m.engine.Len())
}

func (m *LiveModel) drop() {
	if len(m.bodies) == 0 {
		return
	}
	b := m.bodies[m.selected]
	b.Handle.Invalidate()

	m.bodies = append(m.bodies[:m.selected], m.bodies[m.selected+1:]...)
	if m.selected >= len(m.bodies) && m.selected > 0 {
		m.selected--
	}
	m.log.Debug("impeller dropped", "impeller", b.Name, "holes", m.engine.Holes())
}

// retarget moves the selected impeller's target a quarter of its range
// ahead, wrapping or clamping like the value itself.
func (m *LiveModel) retarget() {
	if len(m.bodies) == 0 {
		return
	}
	b := m.bodies[m.selected]
	next := b.Handle.TargetValue() + b.rng.Width()/4
	if !b.rng.Modular && next > b.rng.Max {
		next = b.rng.Min
	}
	b.Handle.SetTargetValue(b.rng.Normalize(next))
}

func (m *LiveModel) View() string {
	st := m.styles
	var s strings.Builder

	name := m.cfg.Name
	if name == "" {
		name = "impel"
	}
	s.WriteString(st.header.Render(strings.ToUpper(name)) + "\n")

	status := st.settled.Render("RUNNING")
	if !m.running {
		status = st.moving.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	rows := make([]string, 0, len(m.bodies))
	for i, b := range m.bodies {
		mark := "  "
		label := st.value
		if i == m.selected {
			mark = "▸ "
			label = st.selected
		}

		state := st.moving.Render("moving ")
		if b.Settled.Settled(&b.Handle) {
			state = st.settled.Render("settled")
		}

		rows = append(rows, fmt.Sprintf("%s%s %s %s %8.3f → %8.3f  %s",
			mark,
			label.Width(14).Render(b.Name),
			RangeBar(b.Handle.Value(), b.Handle.TargetValue(), b.rng.Min, b.rng.Max, barWidth),
			state,
			b.Handle.Value(),
			b.Handle.TargetValue(),
			Sparkline(b.history, 24),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, st.value.Render("no impellers, press r to reset"))
	}
	list := strings.Join(rows, "\n")

	var stats strings.Builder
	stats.WriteString(st.label.Render("Time") + st.value.Render(fmt.Sprintf("%dms", m.t)) + "\n")
	stats.WriteString(st.label.Render("Frames") + st.value.Render(fmt.Sprintf("%d", m.frames)) + "\n")
	stats.WriteString(st.label.Render("Live") + st.value.Render(fmt.Sprintf("%d", m.engine.Len())) + "\n")
	stats.WriteString(st.label.Render("Slots") + st.value.Render(fmt.Sprintf("%d", m.engine.Cap())) + "\n")
	stats.WriteString(st.label.Render("Holes") + st.value.Render(fmt.Sprintf("%d", m.engine.Holes())) + "\n")
	stats.WriteString(st.label.Render("Theme") + st.value.Render(m.theme.Name))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, st.stats.Render(stats.String())))
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString("\n" + st.moving.Render(m.err.Error()) + "\n")
	}

	if m.showHelp {
		s.WriteString(st.help.Render("space pause · n step · tab/j/k select · a duplicate · d drop · t retarget · r reset · c theme · q quit"))
	} else {
		s.WriteString(st.help.Render("? help · q quit"))
	}
	return s.String()
}

// RunLive starts the live view on the terminal and blocks until it exits.
func RunLive(cfg *config.Config, fps int, log *logging.Logger) error {
	m, err := NewLiveModel(cfg, fps, log)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
