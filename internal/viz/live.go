package viz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/auvctl/internal/actuation"
	"github.com/san-kum/auvctl/internal/behavior"
	"github.com/san-kum/auvctl/internal/pilot"
)

const historyCapacity = 120

var gainNames = []string{"Kp", "Ki", "Kd"}

type TickMsg time.Time

// Model drives a pilot.Loop from the Bubble Tea event loop, one control tick
// per frame.
type Model struct {
	ctx    context.Context
	loop   *pilot.Loop
	title  string
	period time.Duration

	last     pilot.Snapshot
	headings []float64
	thrusts  [4][]float64

	paused   bool
	selected int
	status   string
	err      error
}

func NewModel(ctx context.Context, loop *pilot.Loop, title string, period time.Duration) Model {
	if period <= 0 {
		period = time.Second / 20
	}
	return Model{
		ctx:    ctx,
		loop:   loop,
		title:  title,
		period: period,
	}
}

// Err is the failure that ended the view, if any.
func (m Model) Err() error { return m.err }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.period, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		if m.paused {
			return m, m.tick()
		}
		snap, err := m.loop.Tick(m.ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				m.err = err
			}
			return m, tea.Quit
		}
		m.record(snap)
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
		if m.paused {
			if err := m.loop.Neutral(); err != nil {
				m.status = "neutral failed: " + err.Error()
			}
		}
	case "f":
		if err := m.loop.Fire(m.ctx, behavior.Find); err != nil {
			m.status = err.Error()
		} else {
			m.status = "fired find"
		}
	case "tab":
		m.selected = (m.selected + 1) % (len(pilot.AxisNames) * len(gainNames))
	case "up", "k":
		m.adjust(1.05)
	case "down", "j":
		m.adjust(0.95)
	}
	return m, nil
}

func (m Model) selection() (axis, gain string) {
	return pilot.AxisNames[m.selected/len(gainNames)], gainNames[m.selected%len(gainNames)]
}

// adjust scales the selected gain. A zero gain is nudged up from 0.01 so it
// can be brought in from nothing.
func (m *Model) adjust(factor float64) {
	axis, gain := m.selection()
	pid := m.loop.PID(axis)
	if pid == nil {
		return
	}
	v := pid.GetParams()[gain] * factor
	if v == 0 && factor > 1 {
		v = 0.01
	}
	if err := pid.SetParam(gain, v); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s %s = %.3f", axis, gain, v)
}

func (m *Model) record(s pilot.Snapshot) {
	m.last = s
	m.headings = push(m.headings, s.HeadingError)
	for i, v := range s.Thrust.Values() {
		m.thrusts[i] = push(m.thrusts[i], v)
	}
}

func push(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(statusFault.Render("FAULT: "+m.err.Error()) + "\n\n")
	case m.paused:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	default:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	}

	snap := m.last
	var state strings.Builder
	state.WriteString(row("State", m.loop.State().String()))
	state.WriteString(row("Tick", fmt.Sprintf("%d  (%.2fs)", snap.Tick, snap.Time)))
	state.WriteString(row("Heading", fmt.Sprintf("%7.2f° → %7.2f°  err %+.2f°", snap.Orientation.Yaw, snap.Setpoints.Yaw, snap.HeadingError)))
	state.WriteString(row("Roll", fmt.Sprintf("%7.2f° → %7.2f°", snap.Orientation.Roll, snap.Setpoints.Roll)))
	state.WriteString(row("Speed", fmt.Sprintf("%7.2f  → %7.2f", snap.Orientation.Speed, snap.Setpoints.Speed)))
	state.WriteString(row("Depth", fmt.Sprintf("%7.2f  → %7.2f", snap.Orientation.Depth, snap.Setpoints.Depth)))
	s.WriteString(panelStyle.Render(strings.TrimRight(state.String(), "\n")) + "\n")

	var thrust strings.Builder
	labels := []string{"yaw left", "yaw right", "roll left", "roll right"}
	for i, v := range snap.Thrust.Values() {
		thrust.WriteString(labelStyle.Render(labels[i]) + ThrustBar(v, actuation.Limit, 30) + "\n")
	}
	s.WriteString(panelStyle.Render(strings.TrimRight(thrust.String(), "\n")) + "\n")

	if len(m.headings) > 1 {
		chart := asciigraph.Plot(m.headings, asciigraph.Height(5), asciigraph.Width(50), asciigraph.Caption("heading error (deg)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(m.gainsView())
	if m.status != "" {
		s.WriteString(valueStyle.Render(m.status) + "\n")
	}
	s.WriteString(helpStyle.Render("space pause · f find · tab select gain · ↑/↓ tune · q quit") + "\n")
	return s.String()
}

func (m Model) gainsView() string {
	var s strings.Builder
	selAxis, selGain := m.selection()
	for _, axis := range pilot.AxisNames {
		pid := m.loop.PID(axis)
		if pid == nil {
			continue
		}
		params := pid.GetParams()
		s.WriteString(labelStyle.Render(axis))
		for _, g := range gainNames {
			cell := fmt.Sprintf("%s %-7.3f ", g, params[g])
			if axis == selAxis && g == selGain {
				s.WriteString(activeParamStyle.Render(cell))
			} else {
				s.WriteString(valueStyle.Render(cell))
			}
		}
		s.WriteString(valueStyle.Render(fmt.Sprintf("out %+7.2f", pid.Output())) + "\n")
	}
	return s.String()
}
