package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/auvctl/internal/config"
	"github.com/san-kum/auvctl/internal/hardware"
	"github.com/san-kum/auvctl/internal/hardware/canbus"
	"github.com/san-kum/auvctl/internal/hardware/simulator"
	"github.com/san-kum/auvctl/internal/sequence"
)

// loadProfile builds the effective profile: preset, then config file, then
// flags that were set explicitly.
func loadProfile(cmd *cobra.Command) (*config.Profile, error) {
	p := config.DefaultProfile()
	if preset != "" {
		var err error
		if p, err = config.GetPreset(preset); err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.Decode(data, p); err != nil {
			return nil, fmt.Errorf("%s: %w", configFile, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		p.Backend = backend
	}
	if flags.Changed("log-level") {
		p.Log.Level = logLevel
	}
	if flags.Changed("data") {
		p.Telemetry.Dir = dataDir
	}
	if flags.Changed("record") {
		p.Telemetry.Record = record
	}
	if flags.Changed("period") {
		d, err := time.ParseDuration(period)
		if err != nil {
			return nil, fmt.Errorf("--period: %w", err)
		}
		p.Loop.Period = d
	}
	if flags.Changed("yaw-kp") {
		p.Loop.PID.Yaw.Kp = yawKp
	}
	if flags.Changed("roll-kp") {
		p.Loop.PID.Roll.Kp = rollKp
	}
	if flags.Changed("speed-kp") {
		p.Loop.PID.Speed.Kp = speedKp
	}
	if flags.Changed("depth-kp") {
		p.Loop.PID.Depth.Kp = depthKp
	}
	if flags.Changed("cruise-speed") {
		p.Loop.Behavior.CruiseSpeed = cruiseSpeed
	}
	if flags.Changed("cruise-depth") {
		p.Loop.Behavior.CruiseDepth = cruiseDepth
	}
	if flags.Changed("grammar") {
		g, err := sequence.ParseGrammar(grammar)
		if err != nil {
			return nil, err
		}
		p.Sequence.Grammar = g
	}
	if flags.Changed("delimiter") {
		p.Sequence.Delimiter = delimiter
	}
	if flags.Changed("power") {
		p.Sequence.DefaultPower = defaultPower
	}
	if flags.Changed("no-stop") {
		p.Sequence.StopOnFinish = !noStop
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func setup(cmd *cobra.Command) (*config.Profile, golog.Logger, error) {
	p, err := loadProfile(cmd)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Log.NewLogger("auvctl"), nil
}

// openVehicle connects to the backend the profile names.
func openVehicle(ctx context.Context, p *config.Profile, logger golog.Logger) (hardware.Vehicle, error) {
	switch p.Backend {
	case config.BackendSimulator:
		return simulator.New(p.Simulator, p.Loop.Channels, clock.New(), logger.Named("simulator"))
	case config.BackendCAN:
		return canbus.Dial(ctx, p.CAN, clock.New(), logger.Named("can"))
	}
	return nil, fmt.Errorf("unknown backend %q", p.Backend)
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, name := range config.ListPresets() {
		p, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		fmt.Printf("  %-10s backend=%s\n", name, p.Backend)
	}
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	p, err := loadProfile(cmd)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(p)
}

func writeConfig(cmd *cobra.Command, args []string) error {
	p, err := loadProfile(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], p); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
