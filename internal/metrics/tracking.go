package metrics

import (
	"math"

	"github.com/san-kum/auvctl/internal/pilot"
)

// TrackingError is the RMS heading error in degrees.
type TrackingError struct {
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError { return &TrackingError{} }

func (t *TrackingError) Name() string { return "heading_rms" }

func (t *TrackingError) OnTick(s pilot.Snapshot) {
	t.sumSq += s.HeadingError * s.HeadingError
	t.samples++
}

func (t *TrackingError) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return math.Sqrt(t.sumSq / float64(t.samples))
}

func (t *TrackingError) Reset() {
	t.sumSq = 0
	t.samples = 0
}
