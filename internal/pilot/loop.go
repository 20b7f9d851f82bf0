// Package pilot runs the closed control loop: sense, evaluate the mission
// state, update the four axis controllers, mix and actuate.
package pilot

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/san-kum/auvctl/internal/actuation"
	"github.com/san-kum/auvctl/internal/behavior"
	"github.com/san-kum/auvctl/internal/control"
	"github.com/san-kum/auvctl/internal/hardware"
	"github.com/san-kum/auvctl/internal/perception"
)

// Gains holds the controller settings of each axis.
type Gains struct {
	Yaw   control.PIDConfig `yaml:"yaw"`
	Roll  control.PIDConfig `yaml:"roll"`
	Speed control.PIDConfig `yaml:"speed"`
	Depth control.PIDConfig `yaml:"depth"`
}

type Config struct {
	PID      Gains                `yaml:"pid"`
	Channels actuation.ChannelMap `yaml:"channels"`
	Behavior behavior.Config      `yaml:"behavior"`
	// Period paces Run. Zero runs ticks back to back.
	Period time.Duration `yaml:"period"`
}

// Axis names accepted by PID.
var AxisNames = []string{"yaw", "roll", "speed", "depth"}

// Snapshot is everything one tick saw and did.
type Snapshot struct {
	Tick         int
	Time         float64
	State        behavior.State
	Orientation  hardware.Orientation
	Setpoints    behavior.Setpoints
	HeadingError float64
	Output       actuation.Axes
	Thrust       actuation.Thrust
}

type Observer interface {
	OnTick(s Snapshot)
}

type ObserverFunc func(s Snapshot)

func (f ObserverFunc) OnTick(s Snapshot) { f(s) }

type Loop struct {
	cfg       Config
	vehicle   hardware.Vehicle
	perceiver perception.Perceiver
	machine   *behavior.Machine
	mixer     *actuation.Mixer
	clock     clock.Clock
	logger    golog.Logger
	observers []Observer

	yaw, roll, speed, depth *control.PID

	setpoints behavior.Setpoints
	origin    float64
	epoch     time.Time
	tick      int
	started   bool
}

func New(cfg Config, vehicle hardware.Vehicle, logger golog.Logger) *Loop {
	l := &Loop{
		cfg:       cfg,
		vehicle:   vehicle,
		perceiver: perception.Stub{},
		machine:   behavior.NewMachine(cfg.Behavior),
		mixer:     actuation.NewMixer(cfg.Channels, vehicle),
		clock:     clock.New(),
		logger:    logger,
	}
	l.machine.OnEnterAny(l.enter)
	return l
}

func (l *Loop) SetClock(c clock.Clock)              { l.clock = c }
func (l *Loop) SetPerceiver(p perception.Perceiver) { l.perceiver = p }
func (l *Loop) AddObserver(o Observer)              { l.observers = append(l.observers, o) }
func (l *Loop) State() behavior.State               { return l.machine.State() }
func (l *Loop) Setpoints() behavior.Setpoints       { return l.setpoints }
func (l *Loop) Origin() float64                     { return l.origin }
func (l *Loop) Started() bool                       { return l.started }

// PID returns the controller of the named axis, or nil before Start.
func (l *Loop) PID(axis string) *control.PID {
	switch axis {
	case "yaw":
		return l.yaw
	case "roll":
		return l.roll
	case "speed":
		return l.speed
	case "depth":
		return l.depth
	}
	return nil
}

func (l *Loop) enter(ctx context.Context, from, to behavior.State) error {
	l.logger.Infow("state", "from", from.String(), "to", to.String(), "tick", l.tick)

	ind, ok := l.vehicle.(hardware.Indicator)
	if !ok {
		return nil
	}
	c, ok := l.cfg.Behavior.Color(to)
	if !ok {
		return nil
	}
	if err := ind.SetColor(ctx, c); err != nil {
		return fmt.Errorf("indicate %s as %v: %w", to, c, err)
	}
	return nil
}

func (l *Loop) now() float64 {
	return l.clock.Since(l.epoch).Seconds()
}

// Start reads the initial heading, which becomes the yaw setpoint, resets
// the controllers and enters the initial state.
func (l *Loop) Start(ctx context.Context) error {
	l.epoch = l.clock.Now()
	o, err := l.vehicle.ReadOrientation(ctx)
	if err != nil {
		return &SensorError{Tick: 0, Op: "read origin heading", Err: err}
	}
	l.origin = NormalizeHeading(o.Yaw)
	l.setpoints = behavior.Setpoints{Yaw: l.origin}

	now := l.now()
	l.yaw = control.NewPID(l.cfg.PID.Yaw, now)
	l.roll = control.NewPID(l.cfg.PID.Roll, now)
	l.speed = control.NewPID(l.cfg.PID.Speed, now)
	l.depth = control.NewPID(l.cfg.PID.Depth, now)

	l.started = true
	l.logger.Infow("loop started", "origin", l.origin, "state", l.machine.State().String())

	if err := l.machine.Start(ctx); err != nil {
		l.logger.Warnw("state enter hook failed", "error", err)
	}
	return nil
}

// ensureStarted starts the loop on first use so the origin read and the
// initial enter hooks happen exactly once.
func (l *Loop) ensureStarted(ctx context.Context) error {
	if l.started {
		return nil
	}
	return l.Start(ctx)
}

// SetHeading commands a new yaw setpoint in degrees, starting the loop if
// needed. States that do not steer keep it until the next call.
func (l *Loop) SetHeading(ctx context.Context, deg float64) error {
	if err := l.ensureStarted(ctx); err != nil {
		return err
	}
	l.setpoints.Yaw = NormalizeHeading(deg)
	return nil
}

// Fire applies a trigger outside of perception, starting the loop if needed.
func (l *Loop) Fire(ctx context.Context, t behavior.Trigger) error {
	if err := l.ensureStarted(ctx); err != nil {
		return err
	}
	if _, ok := l.machine.Next(t); !ok {
		return fmt.Errorf("%s in state %s: %w", t, l.machine.State(), behavior.ErrInvalidTransition)
	}
	if err := l.machine.Fire(ctx, t); err != nil {
		l.logger.Warnw("state enter hook failed", "error", err)
	}
	return nil
}

// Tick runs one pass of the loop. Sensor failures are returned as
// *SensorError.
func (l *Loop) Tick(ctx context.Context) (Snapshot, error) {
	if err := l.ensureStarted(ctx); err != nil {
		return Snapshot{}, err
	}
	l.tick++

	frame, err := l.vehicle.CaptureImage(ctx)
	if err != nil {
		return Snapshot{}, l.sensorFault("capture image", err)
	}
	o, err := l.vehicle.ReadOrientation(ctx)
	if err != nil {
		return Snapshot{}, l.sensorFault("read orientation", err)
	}
	percept, err := l.perceiver.Perceive(ctx, frame)
	if err != nil {
		return Snapshot{}, l.sensorFault("perceive", err)
	}

	for _, t := range percept.Triggers {
		if err := l.Fire(ctx, t); err != nil {
			l.logger.Debugw("ignoring trigger", "trigger", t.String(), "state", l.machine.State().String())
		}
	}
	l.machine.Evaluate(percept, &l.setpoints)

	now := l.now()
	sp := l.setpoints
	headingErr := HeadingError(sp.Yaw, o.Yaw)
	l.yaw.SetSetPoint(sp.Yaw)
	l.roll.SetSetPoint(sp.Roll)
	l.speed.SetSetPoint(sp.Speed)
	l.depth.SetSetPoint(sp.Depth)

	axes := actuation.Axes{
		Yaw:   l.yaw.Update(sp.Yaw-headingErr, now),
		Roll:  l.roll.Update(o.Roll, now),
		Speed: l.speed.Update(o.Speed, now),
		Depth: l.depth.Update(o.Depth, now),
	}

	thrust, err := l.mixer.Apply(ctx, axes)
	if err != nil {
		return Snapshot{}, fmt.Errorf("tick %d: actuate: %w", l.tick, err)
	}

	snap := Snapshot{
		Tick:         l.tick,
		Time:         now,
		State:        l.machine.State(),
		Orientation:  o,
		Setpoints:    sp,
		HeadingError: headingErr,
		Output:       axes,
		Thrust:       thrust,
	}
	l.logger.Debugw("tick", "n", snap.Tick, "state", snap.State.String(), "yaw", o.Yaw,
		"heading_error", headingErr, "thrust", thrust.Values())
	for _, obs := range l.observers {
		obs.OnTick(snap)
	}
	return snap, nil
}

func (l *Loop) sensorFault(op string, err error) error {
	serr := &SensorError{Tick: l.tick, Op: op, Err: err}
	l.logger.Errorw("sensor failure", "tick", l.tick, "op", op, "error", err)
	return serr
}

// Run ticks until ctx is done, a tick fails or limit ticks have run. A
// limit of zero or less never stops on its own. Motors are set to neutral on
// the way out. Cancellation of ctx is a normal stop and returns nil.
func (l *Loop) Run(ctx context.Context, limit int) (err error) {
	defer func() {
		err = multierr.Append(err, l.Neutral())
		l.logger.Infow("loop stopped", "ticks", l.tick, "state", l.machine.State().String())
	}()

	for n := 0; limit <= 0 || n < limit; n++ {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := l.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if l.cfg.Period > 0 && !l.pause(ctx) {
			return nil
		}
	}
	return nil
}

func (l *Loop) pause(ctx context.Context) bool {
	t := l.clock.Timer(l.cfg.Period)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Neutral zeroes every mapped thruster.
func (l *Loop) Neutral() error {
	return l.mixer.Neutral(context.Background())
}
