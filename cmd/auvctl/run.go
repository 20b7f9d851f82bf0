package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/edaniels/golog"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/san-kum/auvctl/internal/config"
	"github.com/san-kum/auvctl/internal/metrics"
	"github.com/san-kum/auvctl/internal/pilot"
	"github.com/san-kum/auvctl/internal/sequence"
	"github.com/san-kum/auvctl/internal/storage"
	"github.com/san-kum/auvctl/internal/viz"
)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// session is a loop wired to its vehicle, metrics and optional recorder.
type session struct {
	profile *config.Profile
	logger  golog.Logger
	loop    *pilot.Loop
	metrics []metrics.Metric
	rec     *storage.Recorder
	close   func() error
}

func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	p, logger, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	vehicle, err := openVehicle(ctx, p, logger)
	if err != nil {
		return nil, err
	}

	s := &session{
		profile: p,
		logger:  logger,
		loop:    pilot.New(p.Loop, vehicle, logger.Named("pilot")),
		metrics: metrics.Standard(),
		close:   vehicle.Close,
	}
	for _, m := range s.metrics {
		s.loop.AddObserver(m)
	}

	if p.Telemetry.Record {
		st := storage.New(p.DataDir())
		rec, err := st.Record(p.Name, p.Backend, p.Loop.PID)
		if err != nil {
			return nil, multierr.Append(err, vehicle.Close())
		}
		s.rec = rec
		s.loop.AddObserver(rec)
	}
	return s, nil
}

// finish stores the recording, prints the metrics and releases the vehicle.
func (s *session) finish(runErr error) error {
	err := runErr
	values := metrics.Values(s.metrics)
	if s.rec != nil {
		if rerr := s.rec.Close(values, runErr); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("save run: %w", rerr))
		} else {
			fmt.Printf("recorded %s\n", s.rec.ID())
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "final state\t%s\n", s.loop.State())
	for _, m := range s.metrics {
		fmt.Fprintf(w, "%s\t%.4f\n", m.Name(), values[m.Name()])
	}
	if ferr := w.Flush(); ferr != nil {
		err = multierr.Append(err, ferr)
	}

	return multierr.Append(err, s.close())
}

func runLoop(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	s.logger.Infow("starting control loop", "profile", s.profile.Name, "backend", s.profile.Backend, "ticks", ticks)

	return s.finish(s.loop.Run(ctx, ticks))
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}

	m := viz.NewModel(ctx, s.loop, s.profile.Name+" · "+s.profile.Backend, s.profile.Loop.Period)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if fm, ok := final.(viz.Model); ok && err == nil {
		err = fm.Err()
	}
	err = multierr.Append(err, s.loop.Neutral())

	return s.finish(err)
}

func runSequence(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signalContext(cmd)
	defer stop()

	p, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	vehicle, err := openVehicle(ctx, p, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, vehicle.Close())
	}()

	runner := sequence.NewRunner(p.Sequence, vehicle, logger.Named("sequence"))
	err = runner.RunFile(ctx, args[0])
	if errors.Is(err, context.Canceled) {
		logger.Warnw("sequence interrupted", "file", args[0])
		return nil
	}
	return err
}

func checkSequence(cmd *cobra.Command, args []string) error {
	p, err := loadProfile(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open instruction file: %w", err)
	}
	defer f.Close()

	prog, skipped, err := p.Sequence.Parser().Parse(f)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tDIRECTION\tDURATION\tPOWER\tMOTORS")
	for _, in := range prog {
		power := in.PowerOr(p.Sequence.DefaultPower)
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%v\n", in.Line, in.Direction, in.Duration, power,
			p.Sequence.Commands(in.Direction, power))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, le := range skipped {
		fmt.Printf("skipped %s\n", le.Error())
	}
	fmt.Printf("%d instructions, %d skipped\n", len(prog), len(skipped))

	if strict && len(skipped) > 0 {
		return fmt.Errorf("%d invalid lines", len(skipped))
	}
	return nil
}
