// Package simulator is an in-process vehicle backend. Motor commands drive a
// hull model that is integrated up to the current clock time whenever the
// sensors are read.
package simulator

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/san-kum/auvctl/internal/actuation"
	"github.com/san-kum/auvctl/internal/dynamo"
	"github.com/san-kum/auvctl/internal/hardware"
	"github.com/san-kum/auvctl/internal/integrators"
	"github.com/san-kum/auvctl/internal/physics"
)

const (
	frameWidth  = 320
	frameHeight = 240
)

type Config struct {
	Integrator     string             `yaml:"integrator"`
	Step           float64            `yaml:"step"`
	Channels       int                `yaml:"channels"`
	InitialHeading float64            `yaml:"initial_heading"`
	Hull           physics.HullParams `yaml:"hull"`
}

func DefaultConfig() Config {
	return Config{
		Integrator: "rk4",
		Step:       0.01,
		Channels:   4,
		Hull:       physics.DefaultHullParams(),
	}
}

type Vehicle struct {
	cfg     Config
	hull    *physics.Hull
	integ   dynamo.Integrator
	mapping actuation.ChannelMap
	clock   clock.Clock
	logger  golog.Logger
	state   dynamo.State
	power   []int
	t       float64
	last    time.Time
	light   color.RGBA
	frame   *image.RGBA
}

var (
	_ hardware.Vehicle   = (*Vehicle)(nil)
	_ hardware.Indicator = (*Vehicle)(nil)
)

// New builds a simulated vehicle at rest on the surface. mapping tells the
// simulator which motor channel drives which thruster.
func New(cfg Config, mapping actuation.ChannelMap, clk clock.Clock, logger golog.Logger) (*Vehicle, error) {
	if cfg.Step <= 0 {
		return nil, fmt.Errorf("integration step must be positive, got %f", cfg.Step)
	}
	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", cfg.Channels)
	}
	for _, ch := range mapping.Channels() {
		if ch >= cfg.Channels {
			return nil, fmt.Errorf("mapped channel %d: %w", ch, hardware.ErrInvalidChannel)
		}
	}
	integ, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	hull := physics.NewHullWith(cfg.Hull)
	state := make(dynamo.State, hull.StateDim())
	state[physics.IdxYaw] = physics.WrapDegrees(cfg.InitialHeading)

	return &Vehicle{
		cfg:     cfg,
		hull:    hull,
		integ:   integ,
		mapping: mapping,
		clock:   clk,
		logger:  logger,
		state:   state,
		power:   make([]int, cfg.Channels),
		last:    clk.Now(),
		frame:   image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight)),
	}, nil
}

func (v *Vehicle) ReadOrientation(ctx context.Context) (hardware.Orientation, error) {
	if err := ctx.Err(); err != nil {
		return hardware.Orientation{}, err
	}
	now := v.clock.Now()
	v.Advance(now.Sub(v.last).Seconds())
	v.last = now

	if !v.state.IsValid() {
		return hardware.Orientation{}, dynamo.ErrInvalidState
	}
	return v.orientation(), nil
}

func (v *Vehicle) orientation() hardware.Orientation {
	return hardware.Orientation{
		Yaw:   v.state[physics.IdxYaw],
		Roll:  v.state[physics.IdxRoll],
		Depth: v.state[physics.IdxDepth],
		Speed: v.state[physics.IdxSpeed],
	}
}

// Advance integrates the hull forward by seconds of simulated time.
func (v *Vehicle) Advance(seconds float64) {
	if seconds <= 0 {
		return
	}
	u := v.control()
	for seconds > 0 {
		dt := math.Min(v.cfg.Step, seconds)
		v.state = v.integ.Step(v.hull, v.state, u, v.t, dt)
		v.hull.Constrain(v.state)
		v.t += dt
		seconds -= dt
	}
}

func (v *Vehicle) control() dynamo.Control {
	u := make(dynamo.Control, v.hull.ControlDim())
	u[physics.UYawLeft] = v.channelPower(v.mapping.YawLeft)
	u[physics.UYawRight] = v.channelPower(v.mapping.YawRight)
	u[physics.URollLeft] = v.channelPower(v.mapping.RollLeft)
	u[physics.URollRight] = v.channelPower(v.mapping.RollRight)
	return u
}

func (v *Vehicle) channelPower(ch int) float64 {
	if ch < 0 || ch >= len(v.power) {
		return 0
	}
	return float64(v.power[ch])
}

// CaptureImage renders a flat frame whose blue fades with depth.
func (v *Vehicle) CaptureImage(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	depth := v.state[physics.IdxDepth]
	blue := uint8(math.Max(40, 220-depth*6))
	c := color.RGBA{R: 10, G: blue / 3, B: blue, A: 0xff}
	b := v.frame.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v.frame.SetRGBA(x, y, c)
		}
	}
	return v.frame, nil
}

func (v *Vehicle) SetMotorPower(ctx context.Context, channel int, power int) error {
	if channel < 0 || channel >= len(v.power) {
		return fmt.Errorf("channel %d: %w", channel, hardware.ErrInvalidChannel)
	}
	v.power[channel] = hardware.ClampPower(power)
	return nil
}

func (v *Vehicle) MotorPower(channel int) int {
	if channel < 0 || channel >= len(v.power) {
		return 0
	}
	return v.power[channel]
}

func (v *Vehicle) SetColor(ctx context.Context, c color.RGBA) error {
	if v.light != c && v.logger != nil {
		v.logger.Debugw("indicator", "r", c.R, "g", c.G, "b", c.B)
	}
	v.light = c
	return nil
}

func (v *Vehicle) Color() color.RGBA { return v.light }

// Hull exposes the dynamics model for live tuning.
func (v *Vehicle) Hull() *physics.Hull { return v.hull }

func (v *Vehicle) State() dynamo.State { return v.state.Clone() }

func (v *Vehicle) Close() error { return nil }
