// Package metrics scores a control run tick by tick. Every metric is a
// pilot.Observer so it can be attached to a running loop.
package metrics

import "github.com/san-kum/auvctl/internal/pilot"

type Metric interface {
	pilot.Observer
	Name() string
	Value() float64
	Reset()
}

// Standard returns the metrics recorded with every run.
func Standard() []Metric {
	return []Metric{
		NewControlEffort(),
		NewSaturation(),
		NewTrackingError(),
		NewHeadingHold(5),
	}
}

// Values collects the current value of each metric by name.
func Values(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
