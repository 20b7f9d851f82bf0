package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/auvctl/internal/actuation"
	"github.com/san-kum/auvctl/internal/pilot"
)

func snap(headingErr float64, thrust actuation.Thrust) pilot.Snapshot {
	return pilot.Snapshot{HeadingError: headingErr, Thrust: thrust}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	if m.Value() != 0 {
		t.Errorf("empty effort = %v", m.Value())
	}

	m.OnTick(snap(0, actuation.Thrust{YawLeft: 10, YawRight: -10}))
	m.OnTick(snap(0, actuation.Thrust{RollLeft: 40}))

	if got := m.Value(); got != 30 {
		t.Errorf("effort = %v, want 30", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("reset did not clear effort")
	}
}

func TestSaturation(t *testing.T) {
	m := NewSaturation()
	m.OnTick(snap(0, actuation.Thrust{YawLeft: 100}))
	m.OnTick(snap(0, actuation.Thrust{YawLeft: 99}))
	m.OnTick(snap(0, actuation.Thrust{RollRight: -100}))
	m.OnTick(snap(0, actuation.Thrust{}))

	if got := m.Value(); got != 0.5 {
		t.Errorf("saturation = %v, want 0.5", got)
	}
}

func TestTrackingError(t *testing.T) {
	m := NewTrackingError()
	m.OnTick(snap(3, actuation.Thrust{}))
	m.OnTick(snap(-4, actuation.Thrust{}))

	want := math.Sqrt(12.5)
	if got := m.Value(); math.Abs(got-want) > 1e-12 {
		t.Errorf("rms = %v, want %v", got, want)
	}
}

func TestHeadingHold(t *testing.T) {
	m := NewHeadingHold(5)
	if m.Value() != 1 {
		t.Errorf("empty hold = %v, want 1", m.Value())
	}

	for _, e := range []float64{0, 4.9, -5, 6, -30} {
		m.OnTick(snap(e, actuation.Thrust{}))
	}
	if got := m.Value(); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("hold = %v, want 0.6", got)
	}
}

func TestStandardValues(t *testing.T) {
	ms := Standard()
	for _, m := range ms {
		m.OnTick(snap(1, actuation.Thrust{YawLeft: 1}))
	}
	vals := Values(ms)
	for _, name := range []string{"control_effort", "saturation_ratio", "heading_rms", "heading_hold"} {
		if _, ok := vals[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
}
