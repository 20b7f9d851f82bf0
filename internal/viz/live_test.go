package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/edaniels/golog"

	"github.com/san-kum/auvctl/internal/actuation"
	"github.com/san-kum/auvctl/internal/behavior"
	"github.com/san-kum/auvctl/internal/control"
	"github.com/san-kum/auvctl/internal/hardware/simulator"
	"github.com/san-kum/auvctl/internal/pilot"
)

func newTestModel(t *testing.T) (Model, *clock.Mock, *simulator.Vehicle) {
	t.Helper()
	logger := golog.NewTestLogger(t)
	clk := clock.NewMock()
	channels := actuation.ChannelMap{YawLeft: 0, YawRight: 1, RollLeft: 2, RollRight: 3}

	v, err := simulator.New(simulator.DefaultConfig(), channels, clk, logger)
	if err != nil {
		t.Fatal(err)
	}
	axis := control.PIDConfig{Kp: 0.3, Saturation: 20}
	loop := pilot.New(pilot.Config{
		PID:      pilot.Gains{Yaw: axis, Roll: axis, Speed: axis, Depth: axis},
		Channels: channels,
		Behavior: behavior.DefaultConfig(),
	}, v, logger)
	loop.SetClock(clk)

	return NewModel(context.Background(), loop, "test", 0), clk, v
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestTickAdvancesLoop(t *testing.T) {
	m, clk, _ := newTestModel(t)

	for i := 0; i < 3; i++ {
		clk.Add(50 * time.Millisecond)
		var cmd tea.Cmd
		m, cmd = update(t, m, TickMsg(clk.Now()))
		if cmd == nil {
			t.Fatal("tick did not schedule the next frame")
		}
	}
	if m.last.Tick != 3 || len(m.headings) != 3 {
		t.Errorf("tick %d, history %d", m.last.Tick, len(m.headings))
	}
	if !strings.Contains(m.View(), "RUNNING") {
		t.Error("view does not show running status")
	}
}

func TestPauseNeutralizes(t *testing.T) {
	m, clk, v := newTestModel(t)
	m, _ = update(t, m, TickMsg(clk.Now()))
	if v.MotorPower(0) == 0 {
		t.Fatal("expected cruise thrust after first tick")
	}

	m, _ = update(t, m, key(" "))
	if !m.paused || v.MotorPower(0) != 0 {
		t.Errorf("paused=%v power=%d", m.paused, v.MotorPower(0))
	}
	m, _ = update(t, m, TickMsg(clk.Now()))
	if m.last.Tick != 1 {
		t.Errorf("paused model ticked to %d", m.last.Tick)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view does not show paused status")
	}
}

func TestFindKeyFiresTrigger(t *testing.T) {
	m, clk, _ := newTestModel(t)
	m, _ = update(t, m, TickMsg(clk.Now()))

	m, _ = update(t, m, key("f"))
	if m.loop.State() != behavior.StartPosition {
		t.Errorf("state = %v", m.loop.State())
	}
	m, _ = update(t, m, key("f"))
	if !strings.Contains(m.status, "no transition") {
		t.Errorf("status = %q", m.status)
	}
}

func TestTuneSelectedGain(t *testing.T) {
	m, clk, _ := newTestModel(t)
	m, _ = update(t, m, TickMsg(clk.Now()))

	m, _ = update(t, m, key("up"))
	if got := m.loop.PID("yaw").Kp; got != 0.3*1.05 {
		t.Errorf("yaw Kp = %v", got)
	}

	m, _ = update(t, m, key("tab"))
	m, _ = update(t, m, key("up"))
	if got := m.loop.PID("yaw").Ki; got != 0.01 {
		t.Errorf("yaw Ki = %v, want nudge to 0.01", got)
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q does not quit")
	}
}

func TestThrustBar(t *testing.T) {
	bar := ThrustBar(-100, 100, 10)
	if !strings.Contains(bar, "█████│░░░░░") {
		t.Errorf("full reverse bar = %q", bar)
	}
	if bar := ThrustBar(0, 100, 10); strings.Contains(bar, "█") {
		t.Errorf("idle bar = %q", bar)
	}
}

func TestPlot(t *testing.T) {
	if got := Plot(nil, "yaw", 20, 3); !strings.Contains(got, "no data") {
		t.Errorf("empty plot = %q", got)
	}
	if got := Plot([]float64{1, 2, 3}, "yaw", 20, 3); !strings.Contains(got, "yaw") {
		t.Errorf("plot missing caption: %q", got)
	}
	if got := PlotMany([][]float64{{1, 2}, nil, {3, 1}}, "thrust", 20, 3); !strings.Contains(got, "thrust") {
		t.Errorf("plot missing caption: %q", got)
	}
}
