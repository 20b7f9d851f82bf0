package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/auvctl/internal/dynamo"
)

// State layout.
const (
	IdxYaw = iota
	IdxYawRate
	IdxRoll
	IdxRollRate
	IdxSpeed
	IdxDepth
	IdxHeaveRate
)

// Control layout: thruster power in [-100, 100].
const (
	UYawLeft = iota
	UYawRight
	URollLeft
	URollRight
)

type HullParams struct {
	YawGain       float64 `yaml:"yaw_gain"`
	YawDamping    float64 `yaml:"yaw_damping"`
	RollGain      float64 `yaml:"roll_gain"`
	RollDamping   float64 `yaml:"roll_damping"`
	RollRestoring float64 `yaml:"roll_restoring"`
	SurgeGain     float64 `yaml:"surge_gain"`
	SurgeDrag     float64 `yaml:"surge_drag"`
	HeaveGain     float64 `yaml:"heave_gain"`
	HeaveDrag     float64 `yaml:"heave_drag"`
	Buoyancy      float64 `yaml:"buoyancy"`
}

func DefaultHullParams() HullParams {
	return HullParams{
		YawGain:       0.5,
		YawDamping:    1.0,
		RollGain:      0.4,
		RollDamping:   1.5,
		RollRestoring: 5.0,
		SurgeGain:     0.01,
		SurgeDrag:     0.5,
		HeaveGain:     0.01,
		HeaveDrag:     1.0,
		Buoyancy:      0.02,
	}
}

type Hull struct {
	HullParams
}

func NewHull() *Hull {
	return &Hull{HullParams: DefaultHullParams()}
}

func NewHullWith(p HullParams) *Hull {
	return &Hull{HullParams: p}
}

func (h *Hull) StateDim() int   { return 7 }
func (h *Hull) ControlDim() int { return 4 }

func (h *Hull) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	var yl, yr, rl, rr float64
	if len(u) >= 4 {
		yl, yr, rl, rr = u[UYawLeft], u[UYawRight], u[URollLeft], u[URollRight]
	}

	surge := (yl + yr) / 2
	turn := (yl - yr) / 2
	heave := (rl + rr) / 2
	heel := (rl - rr) / 2

	yawRate, roll, rollRate := x[IdxYawRate], x[IdxRoll], x[IdxRollRate]
	speed, heaveRate := x[IdxSpeed], x[IdxHeaveRate]

	yawAcc := h.YawGain*turn - h.YawDamping*yawRate
	rollAcc := h.RollGain*heel - h.RollDamping*rollRate - h.RollRestoring*math.Sin(roll*math.Pi/180)
	surgeAcc := h.SurgeGain*surge - h.SurgeDrag*speed
	heaveAcc := h.HeaveGain*heave - h.HeaveDrag*heaveRate - h.Buoyancy

	return dynamo.State{yawRate, yawAcc, rollRate, rollAcc, surgeAcc, heaveRate, heaveAcc}
}

// Constrain keeps the hull at or below the surface and wraps the heading to
// [0, 360).
func (h *Hull) Constrain(x dynamo.State) {
	x[IdxYaw] = WrapDegrees(x[IdxYaw])
	if x[IdxDepth] < 0 {
		x[IdxDepth] = 0
		if x[IdxHeaveRate] < 0 {
			x[IdxHeaveRate] = 0
		}
	}
}

// WrapDegrees maps an angle to [0, 360).
func WrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func (h *Hull) GetParams() map[string]float64 {
	return map[string]float64{
		"yaw_gain":       h.YawGain,
		"yaw_damping":    h.YawDamping,
		"roll_gain":      h.RollGain,
		"roll_damping":   h.RollDamping,
		"roll_restoring": h.RollRestoring,
		"surge_gain":     h.SurgeGain,
		"surge_drag":     h.SurgeDrag,
		"heave_gain":     h.HeaveGain,
		"heave_drag":     h.HeaveDrag,
		"buoyancy":       h.Buoyancy,
	}
}

func (h *Hull) SetParam(name string, value float64) error {
	switch name {
	case "yaw_gain":
		h.YawGain = value
	case "yaw_damping":
		h.YawDamping = value
	case "roll_gain":
		h.RollGain = value
	case "roll_damping":
		h.RollDamping = value
	case "roll_restoring":
		h.RollRestoring = value
	case "surge_gain":
		h.SurgeGain = value
	case "surge_drag":
		h.SurgeDrag = value
	case "heave_gain":
		h.HeaveGain = value
	case "heave_drag":
		h.HeaveDrag = value
	case "buoyancy":
		h.Buoyancy = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
