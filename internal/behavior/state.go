package behavior

import (
	"fmt"
	"image"
	"strings"
)

// State selects the behavior the vehicle runs on each tick.
type State int

const (
	Undefined State = iota
	StartPosition
	TurnForward
	Rotate
	Stop

	numStates
)

var stateNames = [numStates]string{
	Undefined:     "undefined",
	StartPosition: "start_position",
	TurnForward:   "turn_forward",
	Rotate:        "rotate",
	Stop:          "stop",
}

func (s State) String() string {
	if s < 0 || s >= numStates {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// States lists every state in declaration order.
func States() []State {
	out := make([]State, 0, numStates)
	for s := Undefined; s < numStates; s++ {
		out = append(out, s)
	}
	return out
}

// ParseState converts a state name into a State.
func ParseState(value string) (State, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for s, name := range stateNames {
		if name == normalized {
			return State(s), nil
		}
	}
	return Undefined, fmt.Errorf("unknown state %q", value)
}

// Trigger is an event that may move the machine to another state.
type Trigger int

const (
	Find Trigger = iota + 1
)

func (t Trigger) String() string {
	switch t {
	case Find:
		return "find"
	default:
		return fmt.Sprintf("Trigger(%d)", int(t))
	}
}

// Setpoints are the targets the control loop drives each axis toward.
type Setpoints struct {
	Yaw   float64
	Roll  float64
	Speed float64
	Depth float64
}

// Percept is what the perception collaborator reports for one tick.
type Percept struct {
	Frame    image.Image
	Triggers []Trigger
}
