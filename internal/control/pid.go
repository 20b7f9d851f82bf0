package control

import (
	"fmt"
	"math"
)

const (
	DefaultWindup     = 20.0
	DefaultSaturation = 100.0
)

// PIDConfig holds the per-axis tuning of a PID controller.
type PIDConfig struct {
	Kp         float64 `yaml:"kp"`
	Ki         float64 `yaml:"ki"`
	Kd         float64 `yaml:"kd"`
	Saturation float64 `yaml:"saturation"`
	Windup     float64 `yaml:"windup"`
	SampleTime float64 `yaml:"sample_time"`
}

// PID is a sample-time gated PID controller with integral windup guard and
// output saturation. Times are in seconds and must be non-decreasing.
type PID struct {
	Kp float64
	Ki float64
	Kd float64

	SetPoint float64

	saturation float64
	windup     float64
	sampleTime float64

	pTerm, iTerm, dTerm float64
	lastError           float64
	lastTime            float64
	output              float64
}

// NewPID builds a controller whose first sample interval starts at now.
// A zero saturation or windup selects the defaults.
func NewPID(cfg PIDConfig, now float64) *PID {
	p := &PID{
		Kp:         cfg.Kp,
		Ki:         cfg.Ki,
		Kd:         cfg.Kd,
		saturation: cfg.Saturation,
		windup:     cfg.Windup,
		sampleTime: cfg.SampleTime,
		lastTime:   now,
	}
	if p.saturation <= 0 {
		p.saturation = DefaultSaturation
	}
	if p.windup <= 0 {
		p.windup = DefaultWindup
	}
	p.Clear()
	return p
}

// Clear resets the setpoint, accumulated terms and output to zero.
func (p *PID) Clear() {
	p.SetPoint = 0
	p.pTerm = 0
	p.iTerm = 0
	p.dTerm = 0
	p.lastError = 0
	p.output = 0
}

// Update feeds a measurement taken at now and returns the current output.
// Samples arriving sooner than the sample time after the last accepted one
// leave the controller untouched.
func (p *PID) Update(feedback, now float64) float64 {
	if math.IsNaN(feedback) || math.IsInf(feedback, 0) || math.IsNaN(now) {
		return p.output
	}

	err := p.SetPoint - feedback
	dt := now - p.lastTime
	if dt < p.sampleTime {
		return p.output
	}
	de := err - p.lastError

	p.pTerm = p.Kp * err
	p.iTerm = clamp(p.iTerm+err*dt, p.windup)

	p.dTerm = 0
	if dt > 0 {
		p.dTerm = de / dt
	}

	p.lastTime = now
	p.lastError = err

	p.output = clamp(p.pTerm+p.Ki*p.iTerm+p.Kd*p.dTerm, p.saturation)
	return p.output
}

func (p *PID) Output() float64    { return p.output }
func (p *PID) Integral() float64  { return p.iTerm }
func (p *PID) LastError() float64 { return p.lastError }
func (p *PID) LastTime() float64  { return p.lastTime }

func (p *PID) Saturation() float64 { return p.saturation }
func (p *PID) Windup() float64     { return p.windup }
func (p *PID) SampleTime() float64 { return p.sampleTime }

func (p *PID) SetKp(kp float64)         { p.Kp = kp }
func (p *PID) SetKi(ki float64)         { p.Ki = ki }
func (p *PID) SetKd(kd float64)         { p.Kd = kd }
func (p *PID) SetSetPoint(sp float64)   { p.SetPoint = sp }
func (p *PID) SetSampleTime(st float64) { p.sampleTime = st }

// SetWindup changes the integral guard. The accumulated integral is clamped
// to the new bound immediately.
func (p *PID) SetWindup(w float64) {
	p.windup = math.Abs(w)
	p.iTerm = clamp(p.iTerm, p.windup)
}

// SetSaturation changes the output limit and re-clamps the held output.
func (p *PID) SetSaturation(s float64) {
	p.saturation = math.Abs(s)
	p.output = clamp(p.output, p.saturation)
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":         p.Kp,
		"Ki":         p.Ki,
		"Kd":         p.Kd,
		"Saturation": p.saturation,
		"Windup":     p.windup,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.SetKp(value)
	case "Ki":
		p.SetKi(value)
	case "Kd":
		p.SetKd(value)
	case "Saturation":
		p.SetSaturation(value)
	case "Windup":
		p.SetWindup(value)
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
