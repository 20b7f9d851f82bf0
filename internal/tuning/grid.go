// Package tuning searches controller gains by flying the simulated hull
// through a heading change once per grid point.
package tuning

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/auvctl/internal/physics"
	"github.com/san-kum/auvctl/internal/pilot"
)

var ErrBadParam = errors.New("bad tuning parameter")

// HullAxis names the simulated hull in a Param, e.g. hull.yaw_damping.
const HullAxis = "hull"

var gainNames = map[string]string{
	"kp":         "Kp",
	"ki":         "Ki",
	"kd":         "Kd",
	"saturation": "Saturation",
	"windup":     "Windup",
}

// Param is one controller setting swept by a search.
type Param struct {
	Axis   string
	Gain   string
	Values []float64
}

// Name is the axis.gain form used in flags and results, e.g. yaw.kp.
func (p Param) Name() string {
	return p.Axis + "." + strings.ToLower(p.Gain)
}

// ParseParam reads axis.gain=values where values is either a comma list
// (0.1,0.2,0.4) or an inclusive start:stop:step range (0:0.5:0.1).
func ParseParam(s string) (Param, error) {
	name, values, ok := strings.Cut(s, "=")
	if !ok {
		return Param{}, fmt.Errorf("%w: %q has no values", ErrBadParam, s)
	}
	axis, gain, ok := strings.Cut(strings.ToLower(strings.TrimSpace(name)), ".")
	if !ok {
		return Param{}, fmt.Errorf("%w: %q is not axis.gain", ErrBadParam, name)
	}
	canonical, err := resolve(axis, gain)
	if err != nil {
		return Param{}, err
	}

	vals, err := parseValues(values)
	if err != nil {
		return Param{}, fmt.Errorf("%s: %w", name, err)
	}
	return Param{Axis: axis, Gain: canonical, Values: vals}, nil
}

// resolve maps a lowercase axis and setting to the name SetParam takes.
// The hull axis tunes the simulated vehicle instead of a controller.
func resolve(axis, gain string) (string, error) {
	if axis == HullAxis {
		if _, ok := physics.NewHull().GetParams()[gain]; !ok {
			return "", fmt.Errorf("%w: unknown hull parameter %q", ErrBadParam, gain)
		}
		return gain, nil
	}
	if !knownAxis(axis) {
		return "", fmt.Errorf("%w: unknown axis %q (want %s or one of %v)", ErrBadParam, axis, HullAxis, pilot.AxisNames)
	}
	canonical, ok := gainNames[gain]
	if !ok {
		return "", fmt.Errorf("%w: unknown gain %q", ErrBadParam, gain)
	}
	return canonical, nil
}

func knownAxis(axis string) bool {
	for _, a := range pilot.AxisNames {
		if a == axis {
			return true
		}
	}
	return false
}

func parseValues(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if parts := strings.Split(s, ":"); len(parts) == 3 {
		var bounds [3]float64
		for i, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: range %q: %v", ErrBadParam, s, err)
			}
			bounds[i] = v
		}
		return Range(bounds[0], bounds[1], bounds[2])
	}

	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value %q: %v", ErrBadParam, field, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no values", ErrBadParam)
	}
	return out, nil
}

// Range returns start, start+step, ... up to and including stop.
func Range(start, stop, step float64) ([]float64, error) {
	if step <= 0 || stop < start {
		return nil, fmt.Errorf("%w: empty range %g:%g:%g", ErrBadParam, start, stop, step)
	}
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Round((start+float64(i)*step)*1e9) / 1e9
	}
	return out, nil
}

// Grid is the cartesian product of its parameters.
type Grid struct {
	params []Param
}

func NewGrid(params ...Param) *Grid {
	return &Grid{params: params}
}

func (g *Grid) Params() []Param { return g.params }

// Size is the number of points, zero for an empty grid.
func (g *Grid) Size() int {
	if len(g.params) == 0 {
		return 0
	}
	n := 1
	for _, p := range g.params {
		n *= len(p.Values)
	}
	return n
}

// Points enumerates every combination keyed by Param.Name. The last
// parameter varies fastest.
func (g *Grid) Points() []map[string]float64 {
	if g.Size() == 0 {
		return nil
	}
	out := make([]map[string]float64, 0, g.Size())
	g.walk(0, map[string]float64{}, &out)
	return out
}

func (g *Grid) walk(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.params) {
		*out = append(*out, current)
		return
	}

	p := g.params[depth]
	for _, v := range p.Values {
		next := make(map[string]float64, len(current)+1)
		for k, cv := range current {
			next[k] = cv
		}
		next[p.Name()] = v
		g.walk(depth+1, next, out)
	}
}
