package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/biljard/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	recentEvents    = 6
	maxStepsPerTick = 64
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is a bubbletea view of a running table.
type Model struct {
	sim           *sim.Simulator
	title         string
	dt            float64
	stepsPerTick  int
	canvas        *Canvas
	view          Viewport
	theme         Theme
	running       bool
	energyHistory []float64
	eventHistory  []float64
	initialBalls  int
	recent        []sim.Event
	totalEvents   int
	err           error
}

func NewModel(s *sim.Simulator, title string, dt float64) Model {
	return Model{
		sim:           s,
		title:         title,
		dt:            dt,
		stepsPerTick:  1,
		canvas:        NewCanvas(width, height),
		view:          FitViewport(s.Scene(), width*2, height*4),
		theme:         ThemeFelt,
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		eventHistory:  make([]float64, 0, historyCapacity),
		initialBalls:  len(s.Balls()),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "r":
			m.reset()
		case "t":
			m.theme = nextTheme(m.theme)
		case "+", "=":
			if m.stepsPerTick < maxStepsPerTick {
				m.stepsPerTick *= 2
			}
		case "-":
			if m.stepsPerTick > 1 {
				m.stepsPerTick /= 2
			}
		case ".":
			if !m.running {
				m.step()
			}
		}
	case TickMsg:
		if m.running && m.err == nil {
			for i := 0; i < m.stepsPerTick && m.err == nil; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	events, err := m.sim.Step(context.Background(), m.dt)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.totalEvents += len(events)
	m.recent = append(m.recent, events...)
	if len(m.recent) > recentEvents {
		m.recent = m.recent[len(m.recent)-recentEvents:]
	}

	if len(m.energyHistory) == historyCapacity {
		m.energyHistory = m.energyHistory[1:]
		m.eventHistory = m.eventHistory[1:]
	}
	m.energyHistory = append(m.energyHistory, m.sim.Scene().KineticEnergy())
	m.eventHistory = append(m.eventHistory, float64(len(events)))
}

func (m *Model) reset() {
	m.sim.Reset()
	m.energyHistory = m.energyHistory[:0]
	m.eventHistory = m.eventHistory[:0]
	m.recent = nil
	m.totalEvents = 0
	m.err = nil
}

func (m Model) View() string {
	scene := m.sim.Scene()
	m.canvas.Clear()
	DrawScene(m.canvas, m.view, scene)
	canvasView := canvasStyle.Foreground(m.theme.Table).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(HeaderStyle.Foreground(m.theme.Text).Render(strings.ToUpper(m.title)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(lipgloss.NewStyle().Foreground(m.theme.Warning).Render("ERROR: "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	energy := scene.KineticEnergy()
	s.WriteString(MetricLabel.Render("Time") + MetricValue.Render(fmt.Sprintf("%.2fs", m.sim.Time())) + "\n")
	s.WriteString(MetricLabel.Render("Speed") + MetricValue.Render(fmt.Sprintf("x%d", m.stepsPerTick)) + "\n")
	s.WriteString(MetricLabel.Render("Balls") + MetricValue.Render(fmt.Sprintf("%d", len(scene.Balls))) + "\n")
	s.WriteString(MetricLabel.Render("Energy") + MetricValue.Render(fmt.Sprintf("%.4f", energy)) + "\n")
	s.WriteString(MetricLabel.Render("Events") + MetricValue.Render(fmt.Sprintf("%d", m.totalEvents)) + "\n")
	s.WriteString(MetricLabel.Render("Rate") + Sparkline(m.eventHistory, 30) + "\n")
	if m.initialBalls > 0 {
		cleared := 1 - float64(len(scene.Balls))/float64(m.initialBalls)
		s.WriteString(MetricLabel.Render("Cleared") + ProgressBar(cleared, 30) + "\n")
	}

	s.WriteString("\nRECENT\n")
	if len(m.recent) == 0 {
		s.WriteString(Subtle.Render("  (none)") + "\n")
	}
	for _, ev := range m.recent {
		s.WriteString(Subtle.Render(formatEvent(ev)) + "\n")
	}

	s.WriteString(KeyHint.Render("\nSP:Pause R:Reset Q:Quit\nT:Theme  +/-:Speed  .:Step"))
	statsView := statsStyle.Foreground(m.theme.Text).Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

func formatEvent(ev sim.Event) string {
	switch ev.Kind {
	case sim.EventBallBall:
		return fmt.Sprintf("  %7.2fs ball %d hit ball %d", ev.Time, ev.Ball, ev.Other)
	case sim.EventBallWall:
		return fmt.Sprintf("  %7.2fs ball %d hit wall %d", ev.Time, ev.Ball, ev.Other)
	case sim.EventSwallowed:
		return fmt.Sprintf("  %7.2fs ball %d swallowed", ev.Time, ev.Ball)
	case sim.EventPocketed:
		return fmt.Sprintf("  %7.2fs ball %d pocketed", ev.Time, ev.Ball)
	}
	return fmt.Sprintf("  %7.2fs %v", ev.Time, ev.Kind)
}

// RunLive shows s in the terminal until the user quits. Unknown theme
// names fall back to felt.
func RunLive(s *sim.Simulator, title string, dt float64, theme string) error {
	m := NewModel(s, title, dt)
	m.theme = GetTheme(theme)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
