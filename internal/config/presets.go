package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/auvctl/internal/actuation"
	"github.com/san-kum/auvctl/internal/behavior"
	"github.com/san-kum/auvctl/internal/control"
	"github.com/san-kum/auvctl/internal/hardware/canbus"
	"github.com/san-kum/auvctl/internal/hardware/simulator"
	"github.com/san-kum/auvctl/internal/pilot"
	"github.com/san-kum/auvctl/internal/sequence"
)

var presets = map[string]func() Profile{
	"simulator": simulatorPreset,
	"hardware":  hardwarePreset,
}

func gain(kp, saturation float64) control.PIDConfig {
	return control.PIDConfig{Kp: kp, Saturation: saturation, Windup: control.DefaultWindup}
}

func base() Profile {
	return Profile{
		Sequence:  sequence.DefaultConfig(),
		Simulator: simulator.DefaultConfig(),
		CAN:       canbus.DefaultConfig(),
		Telemetry: TelemetryConfig{Dir: DefaultDataDir},
		Log:       LogConfig{Level: "info", Development: true},
	}
}

// The simulator only models the horizontal pair on channels 0 and 1.
func simulatorPreset() Profile {
	p := base()
	p.Name = "simulator"
	p.Backend = BackendSimulator
	p.Loop = pilot.Config{
		PID: pilot.Gains{
			Yaw:   gain(0.3, 20),
			Roll:  gain(0.3, 20),
			Speed: gain(1, 20),
			Depth: gain(1, 20),
		},
		Channels: actuation.ChannelMap{
			YawLeft:   0,
			YawRight:  1,
			RollLeft:  actuation.Unmapped,
			RollRight: actuation.Unmapped,
		},
		Behavior: behavior.DefaultConfig(),
	}
	return p
}

func hardwarePreset() Profile {
	p := base()
	p.Name = "hardware"
	p.Backend = BackendCAN
	p.Loop = pilot.Config{
		PID: pilot.Gains{
			Yaw:   gain(0.3, 40),
			Roll:  gain(0.5, 50),
			Speed: gain(0.5, 50),
			Depth: gain(0.5, 50),
		},
		Channels: actuation.ChannelMap{
			YawLeft:   3,
			YawRight:  0,
			RollLeft:  2,
			RollRight: 1,
		},
		Behavior: behavior.DefaultConfig(),
	}
	return p
}

// GetPreset returns a fresh copy of the named preset.
func GetPreset(name string) (*Profile, error) {
	mk, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	p := mk()
	return &p, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
