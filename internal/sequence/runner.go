package sequence

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/san-kum/auvctl/internal/hardware"
)

// Config selects the grammar and the motor layout used for each direction.
// The horizontal pair pushes the vehicle forward with negative power and the
// vertical pair dives with negative power.
type Config struct {
	Grammar          Grammar `yaml:"grammar"`
	Delimiter        string  `yaml:"delimiter"`
	DefaultPower     int     `yaml:"default_power"`
	LeftChannel      int     `yaml:"left_channel"`
	RightChannel     int     `yaml:"right_channel"`
	VerticalChannels []int   `yaml:"vertical_channels"`
	StopOnFinish     bool    `yaml:"stop_on_finish"`
}

func DefaultConfig() Config {
	return Config{
		Grammar:          Plain,
		Delimiter:        ",",
		DefaultPower:     50,
		LeftChannel:      1,
		RightChannel:     2,
		VerticalChannels: []int{0, 3},
		StopOnFinish:     true,
	}
}

func (c Config) Parser() Parser {
	return Parser{Grammar: c.Grammar, Delimiter: c.Delimiter}
}

// Channels lists every motor channel a sequence may drive.
func (c Config) Channels() []int {
	return append([]int{c.LeftChannel, c.RightChannel}, c.VerticalChannels...)
}

// Command is a single motor power setting.
type Command struct {
	Channel int
	Power   int
}

// Commands returns the motor settings that perform d at power p.
func (c Config) Commands(d Direction, p int) []Command {
	var l, r int
	switch d {
	case Forward:
		l, r = -p, -p
	case Backward:
		l, r = p, p
	case Left:
		l, r = -p, p
	case Right:
		l, r = p, -p
	case Down, Up:
		v := p
		if d == Down {
			v = -p
		}
		cmds := make([]Command, 0, len(c.VerticalChannels))
		for _, ch := range c.VerticalChannels {
			cmds = append(cmds, Command{Channel: ch, Power: v})
		}
		return cmds
	default:
		return nil
	}
	return []Command{{c.LeftChannel, l}, {c.RightChannel, r}}
}

// WaitFunc blocks for d or until ctx is done. It reports whether the full
// duration elapsed.
type WaitFunc func(ctx context.Context, d time.Duration) bool

// Runner executes instructions against a set of thrusters, strictly one
// after another.
type Runner struct {
	cfg       Config
	thrusters hardware.Thrusters
	logger    golog.Logger
	wait      WaitFunc
}

func NewRunner(cfg Config, thrusters hardware.Thrusters, logger golog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		thrusters: thrusters,
		logger:    logger,
		wait:      utils.SelectContextOrWait,
	}
}

// SetWait replaces the blocking wait between instructions.
func (r *Runner) SetWait(w WaitFunc) {
	r.wait = w
}

// RunFile parses the file at path and executes it. Failing to read the file
// is an error; lines that fail to parse are logged and skipped.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open instruction file: %w", err)
	}
	defer f.Close()

	prog, skipped, err := r.cfg.Parser().Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, le := range skipped {
		r.logger.Warnw("skipping instruction", "file", path, "line", le.Line, "text", le.Text, "reason", le.Err)
	}
	r.logger.Infow("loaded sequence", "file", path, "instructions", len(prog), "skipped", len(skipped))

	return r.Execute(ctx, prog)
}

// Execute applies each instruction and waits out its duration before the
// next. Motors are stopped when the context ends early, when a command fails
// and, if configured, after the last instruction.
func (r *Runner) Execute(ctx context.Context, prog []Instruction) (err error) {
	stop := r.cfg.StopOnFinish
	defer func() {
		if stop {
			err = multierr.Append(err, r.Stop(context.Background()))
		}
	}()

	for i, in := range prog {
		power := in.PowerOr(r.cfg.DefaultPower)
		r.logger.Infow("instruction", "step", i+1, "line", in.Line, "direction", in.Direction.String(),
			"duration", in.Duration, "power", power)

		for _, c := range r.cfg.Commands(in.Direction, power) {
			if err := r.thrusters.SetMotorPower(ctx, c.Channel, c.Power); err != nil {
				stop = true
				return fmt.Errorf("line %d: set motor %d: %w", in.Line, c.Channel, err)
			}
		}

		if !r.wait(ctx, in.Duration) {
			stop = true
			return ctx.Err()
		}
	}
	return nil
}

// Stop sets every sequence channel to zero.
func (r *Runner) Stop(ctx context.Context) error {
	var err error
	for _, ch := range r.cfg.Channels() {
		err = multierr.Append(err, r.thrusters.SetMotorPower(ctx, ch, 0))
	}
	return err
}
