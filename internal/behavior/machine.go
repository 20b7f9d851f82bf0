// Package behavior implements the discrete mission state machine. Each state
// owns a behavior that turns the current percept into setpoints; states never
// touch actuators.
package behavior

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"go.uber.org/multierr"
)

var ErrInvalidTransition = errors.New("behavior: no transition for trigger in current state")

// Behavior maps the current percept to desired setpoints.
type Behavior func(p Percept, sp *Setpoints)

// EnterHook runs when the machine enters a state.
type EnterHook func(ctx context.Context, from, to State) error

// Config holds the tunables of the built-in behaviors.
type Config struct {
	CruiseSpeed float64          `yaml:"cruise_speed"`
	CruiseDepth float64          `yaml:"cruise_depth"`
	Colors      map[string][]int `yaml:"colors"`
}

func DefaultConfig() Config {
	return Config{
		CruiseSpeed: 20,
		CruiseDepth: 20,
		Colors: map[string][]int{
			Undefined.String(): {50, 50, 0},
		},
	}
}

// Color returns the indicator color configured for s.
func (c Config) Color(s State) (color.RGBA, bool) {
	rgb, ok := c.Colors[s.String()]
	if !ok || len(rgb) != 3 {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(rgb[0]), G: uint8(rgb[1]), B: uint8(rgb[2]), A: 0xff}, true
}

type edge struct {
	from    State
	trigger Trigger
}

type Machine struct {
	state       State
	started     bool
	transitions map[edge]State
	behaviors   [numStates]Behavior
	hooks       [numStates][]EnterHook
}

// NewMachine builds the mission machine in the Undefined state.
func NewMachine(cfg Config) *Machine {
	m := &Machine{
		state: Undefined,
		transitions: map[edge]State{
			{Undefined, Find}: StartPosition,
		},
	}

	m.behaviors[Undefined] = func(p Percept, sp *Setpoints) {
		sp.Speed = cfg.CruiseSpeed
		sp.Depth = cfg.CruiseDepth
	}
	m.behaviors[StartPosition] = hold
	m.behaviors[TurnForward] = hold
	m.behaviors[Rotate] = hold
	m.behaviors[Stop] = hold

	return m
}

func hold(Percept, *Setpoints) {}

func (m *Machine) State() State { return m.state }

// Next returns the destination of trigger t from the current state.
func (m *Machine) Next(t Trigger) (State, bool) {
	to, ok := m.transitions[edge{m.state, t}]
	return to, ok
}

// OnEnter registers a hook for entering s.
func (m *Machine) OnEnter(s State, hook EnterHook) {
	m.hooks[s] = append(m.hooks[s], hook)
}

// OnEnterAny registers a hook for entering every state.
func (m *Machine) OnEnterAny(hook EnterHook) {
	for s := range m.hooks {
		m.hooks[s] = append(m.hooks[s], hook)
	}
}

// Start runs the enter hooks of the initial state. It is a no-op after the
// first call.
func (m *Machine) Start(ctx context.Context) error {
	if m.started {
		return nil
	}
	m.started = true
	return m.enter(ctx, m.state, m.state)
}

// Fire applies trigger t. The state changes even when an enter hook fails;
// the hook errors are returned combined.
func (m *Machine) Fire(ctx context.Context, t Trigger) error {
	to, ok := m.Next(t)
	if !ok {
		return fmt.Errorf("%s in state %s: %w", t, m.state, ErrInvalidTransition)
	}
	from := m.state
	m.state = to
	return m.enter(ctx, from, to)
}

// Evaluate runs the current state's behavior.
func (m *Machine) Evaluate(p Percept, sp *Setpoints) {
	if b := m.behaviors[m.state]; b != nil {
		b(p, sp)
	}
}

func (m *Machine) enter(ctx context.Context, from, to State) error {
	var err error
	for _, h := range m.hooks[to] {
		err = multierr.Append(err, h(ctx, from, to))
	}
	return err
}
