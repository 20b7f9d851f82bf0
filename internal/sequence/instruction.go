// Package sequence runs open-loop choreography: a text file of timed
// directional commands applied to the thrusters one after another.
//
// Each line names a direction, a duration in whole seconds and an optional
// power. Two line grammars are understood:
//
//	вперед,5,50          plain: direction, duration[, power]
//	д:вперед,в:5,м:50    labelled: labels д, в, м in any order
//
// Lines are normalized before parsing: whitespace is removed, letters are
// lowercased and ё is folded to е. Lines that fail to parse are skipped and
// reported; they never stop the rest of the file.
package sequence

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrBlank            = errors.New("blank line")
	ErrMalformed        = errors.New("malformed instruction")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrInvalidDuration  = errors.New("duration must be a positive number of seconds")
	ErrInvalidPower     = errors.New("power must be within [-100, 100]")
)

type Direction int

const (
	Forward Direction = iota + 1
	Backward
	Left
	Right
	Up
	Down
)

var directionTokens = map[string]Direction{
	"вперед": Forward,
	"назад":  Backward,
	"влево":  Left,
	"вправо": Right,
	"вверх":  Up,
	"вниз":   Down,
}

// ParseDirection maps a normalized direction token to its Direction.
func ParseDirection(tok string) (Direction, error) {
	if d, ok := directionTokens[tok]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, tok)
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Token is the file spelling of d.
func (d Direction) Token() string {
	for tok, dir := range directionTokens {
		if dir == d {
			return tok
		}
	}
	return ""
}

// Instruction is one parsed line. A nil Power selects the runner's default.
type Instruction struct {
	Line      int
	Direction Direction
	Duration  time.Duration
	Power     *int
}

func (in Instruction) PowerOr(def int) int {
	if in.Power == nil {
		return def
	}
	return *in.Power
}

func (in Instruction) String() string {
	p := "default"
	if in.Power != nil {
		p = fmt.Sprint(*in.Power)
	}
	return fmt.Sprintf("%s for %s at power %s", in.Direction, in.Duration, p)
}

// LineError describes a skipped line.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
