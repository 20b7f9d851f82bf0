package metrics

import "github.com/san-kum/auvctl/internal/pilot"

// Saturation is the fraction of ticks where at least one thruster command
// sat at the actuator limit.
type Saturation struct {
	saturated int
	samples   int
}

func NewSaturation() *Saturation { return &Saturation{} }

func (s *Saturation) Name() string { return "saturation_ratio" }

func (s *Saturation) OnTick(snap pilot.Snapshot) {
	s.samples++
	if snap.Thrust.Saturated() {
		s.saturated++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}
