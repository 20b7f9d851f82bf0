package pilot

import "math"

// NormalizeHeading wraps a compass angle into [0, 360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// HeadingError is the signed shortest turn from actual to target, in
// (-180, 180]. Positive means turn toward increasing heading.
func HeadingError(target, actual float64) float64 {
	d := NormalizeHeading(target - actual)
	if d > 180 {
		d -= 360
	}
	return d
}
