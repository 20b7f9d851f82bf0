// Package config loads vehicle profiles: controller gains, motor channel
// layout, mission tunables and the settings of each backend.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/auvctl/internal/behavior"
	"github.com/san-kum/auvctl/internal/control"
	"github.com/san-kum/auvctl/internal/hardware"
	"github.com/san-kum/auvctl/internal/hardware/canbus"
	"github.com/san-kum/auvctl/internal/hardware/simulator"
	"github.com/san-kum/auvctl/internal/pilot"
	"github.com/san-kum/auvctl/internal/sequence"
)

const (
	BackendSimulator = "simulator"
	BackendCAN       = "can"

	DefaultDataDir = "data"
)

var (
	ErrUnknownPreset  = errors.New("unknown preset")
	ErrInvalidProfile = errors.New("invalid profile")
)

type Profile struct {
	Name      string           `yaml:"name"`
	Backend   string           `yaml:"backend"`
	Loop      pilot.Config     `yaml:",inline"`
	Sequence  sequence.Config  `yaml:"sequence"`
	Simulator simulator.Config `yaml:"simulator"`
	CAN       canbus.Config    `yaml:"can"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`
	Log       LogConfig        `yaml:"log"`
}

type TelemetryConfig struct {
	Dir    string `yaml:"dir"`
	Record bool   `yaml:"record"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultProfile is the simulator preset.
func DefaultProfile() *Profile {
	p := simulatorPreset()
	return &p
}

// Load decodes the YAML file at path over DefaultProfile, so omitted fields
// keep their defaults, and validates the result.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := DefaultProfile()
	if err := Decode(data, p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Decode strictly decodes YAML into p; unknown keys are errors.
func Decode(data []byte, p *Profile) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func Save(path string, p *Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir is where telemetry runs are stored.
func (p *Profile) DataDir() string {
	if p.Telemetry.Dir == "" {
		return DefaultDataDir
	}
	return p.Telemetry.Dir
}

// Validate reports every problem found, wrapped in ErrInvalidProfile.
func (p *Profile) Validate() error {
	var err error
	add := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf(format, args...))
	}

	switch p.Backend {
	case BackendSimulator:
		if p.Simulator.Step <= 0 {
			add("simulator.step must be positive")
		}
	case BackendCAN:
		if p.CAN.Interface == "" {
			add("can.interface is required")
		}
	default:
		add("unknown backend %q", p.Backend)
	}

	gains := p.Loop.PID
	for _, axis := range []struct {
		name string
		cfg  control.PIDConfig
	}{
		{"yaw", gains.Yaw}, {"roll", gains.Roll}, {"speed", gains.Speed}, {"depth", gains.Depth},
	} {
		c := axis.cfg
		if c.Kp < 0 || c.Ki < 0 || c.Kd < 0 {
			add("pid.%s: gains must not be negative", axis.name)
		}
		if c.Saturation <= 0 {
			add("pid.%s.saturation must be positive", axis.name)
		}
		if c.Windup < 0 || c.SampleTime < 0 {
			add("pid.%s: windup and sample_time must not be negative", axis.name)
		}
	}
	if p.Loop.Period < 0 {
		add("period must not be negative")
	}

	if cerr := p.Loop.Channels.Validate(); cerr != nil {
		add("channels: %v", cerr)
	}

	for name, rgb := range p.Loop.Behavior.Colors {
		if _, serr := behavior.ParseState(name); serr != nil {
			add("behavior.colors: %v", serr)
		}
		if len(rgb) != 3 {
			add("behavior.colors.%s: want 3 components, got %d", name, len(rgb))
			continue
		}
		for _, v := range rgb {
			if v < 0 || v > 255 {
				add("behavior.colors.%s: component %d outside [0, 255]", name, v)
			}
		}
	}

	err = multierr.Append(err, validateSequence(p.Sequence))

	switch strings.ToLower(p.Log.Level) {
	case "", "debug", "info":
	default:
		add("log.level %q: want debug or info", p.Log.Level)
	}

	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return nil
}

func validateSequence(s sequence.Config) error {
	var err error
	add := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf(format, args...))
	}

	g, gerr := sequence.ParseGrammar(string(s.Grammar))
	if gerr != nil {
		add("sequence: %v", gerr)
	}
	if s.Delimiter != "" && strings.TrimSpace(s.Delimiter) == "" {
		add("sequence.delimiter must not be whitespace")
	}
	if g == sequence.Labelled && s.Delimiter == ":" {
		add("sequence.delimiter %q collides with labels", s.Delimiter)
	}
	if s.DefaultPower < -hardware.MaxPower || s.DefaultPower > hardware.MaxPower {
		add("sequence.default_power %d outside [-%d, %d]", s.DefaultPower, hardware.MaxPower, hardware.MaxPower)
	}

	seen := make(map[int]bool)
	for _, ch := range s.Channels() {
		if ch < 0 {
			add("sequence: channel %d is negative", ch)
		}
		if seen[ch] {
			add("sequence: channel %d used twice", ch)
		}
		seen[ch] = true
	}
	return err
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(name string) golog.Logger {
	if strings.EqualFold(c.Level, "debug") {
		return golog.NewDebugLogger(name)
	}
	if c.Development {
		return golog.NewDevelopmentLogger(name)
	}
	return golog.NewLogger(name)
}
