// Package actuation mixes per-axis controller outputs into thruster commands
// and writes them to motor channels.
package actuation

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/san-kum/auvctl/internal/hardware"
)

// Limit is the actuator range of a mixed thruster command.
const Limit = 100.0

// Unmapped marks a thruster that has no motor channel on this vehicle.
const Unmapped = -1

// Axes holds one output per controlled axis.
type Axes struct {
	Yaw   float64
	Roll  float64
	Speed float64
	Depth float64
}

func (a Axes) Scale(f float64) Axes {
	return Axes{Yaw: a.Yaw * f, Roll: a.Roll * f, Speed: a.Speed * f, Depth: a.Depth * f}
}

// Thrust holds the command of each of the two opposed thruster pairs.
type Thrust struct {
	YawLeft   float64
	YawRight  float64
	RollLeft  float64
	RollRight float64
}

func (t Thrust) Values() [4]float64 {
	return [4]float64{t.YawLeft, t.YawRight, t.RollLeft, t.RollRight}
}

// Saturated reports whether any command sits at the actuator limit.
func (t Thrust) Saturated() bool {
	for _, v := range t.Values() {
		if math.Abs(v) >= Limit {
			return true
		}
	}
	return false
}

// MixRaw superimposes the rotational and translational outputs on each pair
// without clamping.
func MixRaw(a Axes) Thrust {
	return Thrust{
		YawLeft:   a.Yaw + a.Speed,
		YawRight:  -a.Yaw + a.Speed,
		RollLeft:  a.Roll + a.Depth,
		RollRight: -a.Roll + a.Depth,
	}
}

// Mix is MixRaw with every command clamped to [-Limit, Limit].
func Mix(a Axes) Thrust {
	t := MixRaw(a)
	return Thrust{
		YawLeft:   clamp(t.YawLeft),
		YawRight:  clamp(t.YawRight),
		RollLeft:  clamp(t.RollLeft),
		RollRight: clamp(t.RollRight),
	}
}

// ChannelMap assigns each thruster to a motor channel of the target vehicle.
type ChannelMap struct {
	YawLeft   int `yaml:"yaw_left"`
	YawRight  int `yaml:"yaw_right"`
	RollLeft  int `yaml:"roll_left"`
	RollRight int `yaml:"roll_right"`
}

type assignment struct {
	name    string
	channel int
	value   func(Thrust) float64
}

func (c ChannelMap) assignments() []assignment {
	return []assignment{
		{"yaw_left", c.YawLeft, func(t Thrust) float64 { return t.YawLeft }},
		{"yaw_right", c.YawRight, func(t Thrust) float64 { return t.YawRight }},
		{"roll_left", c.RollLeft, func(t Thrust) float64 { return t.RollLeft }},
		{"roll_right", c.RollRight, func(t Thrust) float64 { return t.RollRight }},
	}
}

// Channels lists the mapped channels in thruster order.
func (c ChannelMap) Channels() []int {
	out := make([]int, 0, 4)
	for _, a := range c.assignments() {
		if a.channel != Unmapped {
			out = append(out, a.channel)
		}
	}
	return out
}

// Validate rejects negative channels other than Unmapped and channels shared
// by two thrusters.
func (c ChannelMap) Validate() error {
	seen := make(map[int]string)
	for _, a := range c.assignments() {
		if a.channel == Unmapped {
			continue
		}
		if a.channel < 0 {
			return fmt.Errorf("%s: channel %d: %w", a.name, a.channel, hardware.ErrInvalidChannel)
		}
		if other, ok := seen[a.channel]; ok {
			return fmt.Errorf("%s and %s share channel %d", other, a.name, a.channel)
		}
		seen[a.channel] = a.name
	}
	return nil
}

// Mixer turns axis outputs into motor power commands.
type Mixer struct {
	channels  ChannelMap
	thrusters hardware.Thrusters
}

func NewMixer(channels ChannelMap, thrusters hardware.Thrusters) *Mixer {
	return &Mixer{channels: channels, thrusters: thrusters}
}

// Apply mixes a and issues one power command per mapped channel.
func (m *Mixer) Apply(ctx context.Context, a Axes) (Thrust, error) {
	t := Mix(a)
	return t, m.Actuate(ctx, t)
}

// Actuate writes t to the mapped channels, stopping at the first failure.
func (m *Mixer) Actuate(ctx context.Context, t Thrust) error {
	for _, a := range m.channels.assignments() {
		if a.channel == Unmapped {
			continue
		}
		if err := m.thrusters.SetMotorPower(ctx, a.channel, Power(a.value(t))); err != nil {
			return fmt.Errorf("set %s (channel %d): %w", a.name, a.channel, err)
		}
	}
	return nil
}

// Neutral zeroes every mapped channel, attempting all of them.
func (m *Mixer) Neutral(ctx context.Context) error {
	var err error
	for _, ch := range m.channels.Channels() {
		err = multierr.Combine(err, m.thrusters.SetMotorPower(ctx, ch, 0))
	}
	return err
}

// Power converts a thruster command to an integer motor power.
func Power(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return hardware.ClampPower(int(math.Round(clamp(v))))
}

func clamp(v float64) float64 {
	if v > Limit {
		return Limit
	}
	if v < -Limit {
		return -Limit
	}
	return v
}
