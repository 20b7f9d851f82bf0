package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	RMS    float64 `json:"rms"`
}

// Summarize describes xs. An empty slice yields the zero Summary.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	return Summary{
		N:      len(xs),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		RMS:    math.Sqrt(floats.Dot(xs, xs) / float64(len(xs))),
	}
}

// SettlingTime returns the first time after which |errs| stays within band
// for the rest of the run, and false if the last sample is still outside.
func SettlingTime(times, errs []float64, band float64) (float64, bool) {
	n := min(len(times), len(errs))
	if n == 0 {
		return 0, false
	}
	last := -1
	for i := 0; i < n; i++ {
		if math.Abs(errs[i]) > band {
			last = i
		}
	}
	switch {
	case last == -1:
		return times[0], true
	case last == n-1:
		return 0, false
	}
	return times[last+1], true
}
