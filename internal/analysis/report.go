package analysis

import (
	"github.com/san-kum/auvctl/internal/storage"
)

// SettleBand is the heading error, in degrees, considered on course.
const SettleBand = 2.0

type RunReport struct {
	Run           storage.RunMetadata `json:"run"`
	Columns       map[string]Summary  `json:"columns"`
	States        map[string]int      `json:"states"`
	Settled       bool                `json:"settled"`
	SettlingTime  float64             `json:"settling_time"`
	Oscillating   bool                `json:"oscillating"`
	HeadingPeriod float64             `json:"heading_period"`
}

// Report summarizes every column of a stored run.
func Report(meta storage.RunMetadata, s *storage.Series) RunReport {
	rep := RunReport{
		Run:     meta,
		Columns: make(map[string]Summary, len(storage.Columns)),
		States:  make(map[string]int),
	}
	for _, c := range storage.Columns {
		rep.Columns[c] = Summarize(s.Column(c))
	}
	for _, st := range s.States {
		rep.States[st]++
	}

	herr := s.Column("heading_error")
	rep.SettlingTime, rep.Settled = SettlingTime(s.Times, herr, SettleBand)

	if n := s.Len(); n > 1 {
		dt := (s.Times[n-1] - s.Times[0]) / float64(n-1)
		rep.HeadingPeriod, rep.Oscillating = DominantPeriod(herr, dt)
	}
	return rep
}
