package metrics

import (
	"math"

	"github.com/san-kum/auvctl/internal/pilot"
)

// HeadingHold is the fraction of ticks whose heading error stayed within
// tolerance degrees.
type HeadingHold struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewHeadingHold(tolerance float64) *HeadingHold {
	return &HeadingHold{
		name:      "heading_hold",
		tolerance: tolerance,
	}
}

func (h *HeadingHold) Name() string {
	return h.name
}

func (h *HeadingHold) OnTick(s pilot.Snapshot) {
	h.samples++
	if math.Abs(s.HeadingError) > h.tolerance {
		h.violations++
	}
}

func (h *HeadingHold) Value() float64 {
	if h.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(h.violations)/float64(h.samples)
}

func (h *HeadingHold) Reset() {
	h.violations = 0
	h.samples = 0
}
