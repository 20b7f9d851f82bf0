package tuning

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/auvctl/internal/dynamo"
	"github.com/san-kum/auvctl/internal/hardware/simulator"
	"github.com/san-kum/auvctl/internal/metrics"
	"github.com/san-kum/auvctl/internal/pilot"
)

var ErrNoTrials = errors.New("no trial succeeded")

type Config struct {
	Loop      pilot.Config
	Simulator simulator.Config
	// Ticks per trial, each advancing simulated time by Step.
	Ticks int
	Step  time.Duration
	// Turn is the heading change in degrees commanded right after start.
	Turn     float64
	Metric   string
	Maximize bool
	Workers  int
}

func DefaultConfig() Config {
	return Config{
		Simulator: simulator.DefaultConfig(),
		Ticks:     2000,
		Step:      10 * time.Millisecond,
		Turn:      30,
		Metric:    "heading_rms",
		Workers:   runtime.NumCPU(),
	}
}

func (c Config) validate() error {
	if c.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", c.Ticks)
	}
	if c.Step <= 0 {
		return fmt.Errorf("step must be positive, got %v", c.Step)
	}
	for _, m := range metrics.Standard() {
		if m.Name() == c.Metric {
			return nil
		}
	}
	return fmt.Errorf("unknown metric %q", c.Metric)
}

// Trial is the outcome of one grid point.
type Trial struct {
	Params  map[string]float64
	Metrics map[string]float64
	Score   float64
	Ticks   int
	Err     error
}

type Result struct {
	Best   Trial
	Trials []Trial
}

// Ranked returns the successful trials, best first.
func (r Result) Ranked(maximize bool) []Trial {
	var out []Trial
	for _, t := range r.Trials {
		if t.Err == nil {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return better(out[i].Score, out[j].Score, maximize)
	})
	return out
}

func better(a, b float64, maximize bool) bool {
	if maximize {
		return a > b
	}
	return a < b
}

type Search struct {
	cfg    Config
	grid   *Grid
	logger golog.Logger
}

func NewSearch(cfg Config, grid *Grid, logger golog.Logger) *Search {
	return &Search{cfg: cfg, grid: grid, logger: logger}
}

// Run flies every grid point on its own simulator, at most Workers at a
// time. Trial failures are kept in Result.Trials; Run fails only when none
// succeeded or ctx ended first.
func (s *Search) Run(ctx context.Context) (Result, error) {
	if err := s.cfg.validate(); err != nil {
		return Result{}, err
	}
	points := s.grid.Points()
	if len(points) == 0 {
		return Result{}, fmt.Errorf("%w: empty grid", ErrBadParam)
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	s.logger.Infow("tuning", "points", len(points), "workers", workers, "metric", s.cfg.Metric)

	trials := make([]Trial, len(points))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, point := range points {
		wg.Add(1)
		go func(idx int, point map[string]float64) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				trials[idx] = Trial{Params: point, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			trials[idx] = RunTrial(ctx, s.cfg, point, quiet(s.logger.Named(fmt.Sprintf("trial%d", idx))))
			s.logger.Debugw("trial done", "params", point, "score", trials[idx].Score, "error", trials[idx].Err)
		}(i, point)
	}
	wg.Wait()

	res := Result{Trials: trials}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	var errs error
	found := false
	for _, t := range trials {
		if t.Err != nil {
			errs = multierr.Append(errs, t.Err)
			continue
		}
		if !found || better(t.Score, res.Best.Score, s.cfg.Maximize) {
			res.Best = t
			found = true
		}
	}
	if !found {
		return res, fmt.Errorf("%w: %v", ErrNoTrials, errs)
	}
	return res, nil
}

// quiet drops a trial logger to warnings so per-trial state changes stay out
// of the search output.
func quiet(l golog.Logger) golog.Logger {
	return l.Desugar().WithOptions(zap.IncreaseLevel(zapcore.WarnLevel)).Sugar()
}

// RunTrial flies one grid point: start the loop on a fresh simulator with
// a mock clock, apply the point, command the turn and tick.
func RunTrial(ctx context.Context, cfg Config, point map[string]float64, logger golog.Logger) Trial {
	trial := Trial{Params: point}

	clk := clock.NewMock()
	v, err := simulator.New(cfg.Simulator, cfg.Loop.Channels, clk, logger)
	if err != nil {
		trial.Err = err
		return trial
	}
	defer v.Close()

	loopCfg := cfg.Loop
	loopCfg.Period = 0
	loop := pilot.New(loopCfg, v, logger)
	loop.SetClock(clk)

	ms := metrics.Standard()
	for _, m := range ms {
		loop.AddObserver(m)
	}
	loop.AddObserver(pilot.ObserverFunc(func(s pilot.Snapshot) {
		trial.Ticks = s.Tick
		clk.Add(cfg.Step)
	}))

	if err := loop.Start(ctx); err != nil {
		trial.Err = err
		return trial
	}
	if err := apply(loop, v.Hull(), point); err != nil {
		trial.Err = err
		return trial
	}
	if err := loop.SetHeading(ctx, loop.Origin()+cfg.Turn); err != nil {
		trial.Err = err
		return trial
	}

	if err := loop.Run(ctx, cfg.Ticks); err != nil {
		trial.Err = err
		return trial
	}
	if err := ctx.Err(); err != nil {
		trial.Err = err
		return trial
	}

	trial.Metrics = metrics.Values(ms)
	trial.Score = trial.Metrics[cfg.Metric]
	if math.IsNaN(trial.Score) || math.IsInf(trial.Score, 0) {
		trial.Err = fmt.Errorf("%s diverged: %v", cfg.Metric, trial.Score)
	}
	return trial
}

func apply(loop *pilot.Loop, hull dynamo.Configurable, point map[string]float64) error {
	for name, v := range point {
		axis, gain, ok := strings.Cut(name, ".")
		if !ok {
			return fmt.Errorf("%w: %q", ErrBadParam, name)
		}
		canonical, err := resolve(axis, gain)
		if err != nil {
			return err
		}

		var target dynamo.Configurable = hull
		if axis != HullAxis {
			target = loop.PID(axis)
		}
		if err := target.SetParam(canonical, v); err != nil {
			return err
		}
	}
	return nil
}
