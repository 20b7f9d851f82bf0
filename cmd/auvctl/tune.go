package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/auvctl/internal/tuning"
)

var (
	tuneParams   []string
	tuneTicks    int
	tuneStep     string
	tuneTurn     float64
	tuneMetric   string
	tuneMaximize bool
	tuneWorkers  int
	tuneTop      int
)

func addTuneFlags(cmd *cobra.Command) {
	def := tuning.DefaultConfig()
	cmd.Flags().StringArrayVar(&tuneParams, "param", nil, "axis.gain=values, e.g. yaw.kp=0:1:0.1, yaw.kd=0,0.05 or hull.yaw_damping=0.5,1 (repeatable)")
	cmd.Flags().IntVar(&tuneTicks, "ticks", def.Ticks, "ticks per trial")
	cmd.Flags().StringVar(&tuneStep, "dt", def.Step.String(), "simulated time per tick")
	cmd.Flags().Float64Var(&tuneTurn, "turn", def.Turn, "heading change to command, degrees")
	cmd.Flags().StringVar(&tuneMetric, "metric", def.Metric, "metric to score trials by")
	cmd.Flags().BoolVar(&tuneMaximize, "maximize", false, "prefer higher scores (e.g. heading_hold)")
	cmd.Flags().IntVar(&tuneWorkers, "workers", def.Workers, "trials run at once")
	cmd.Flags().IntVar(&tuneTop, "top", 10, "trials to print")
	_ = cmd.MarkFlagRequired("param")
}

func runTune(cmd *cobra.Command, args []string) error {
	p, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	var params []tuning.Param
	for _, s := range tuneParams {
		param, err := tuning.ParseParam(s)
		if err != nil {
			return err
		}
		params = append(params, param)
	}
	step, err := time.ParseDuration(tuneStep)
	if err != nil {
		return fmt.Errorf("--dt: %w", err)
	}

	cfg := tuning.DefaultConfig()
	cfg.Loop = p.Loop
	cfg.Simulator = p.Simulator
	cfg.Ticks = tuneTicks
	cfg.Step = step
	cfg.Turn = tuneTurn
	cfg.Metric = tuneMetric
	cfg.Maximize = tuneMaximize
	cfg.Workers = tuneWorkers

	ctx, stop := signalContext(cmd)
	defer stop()

	start := time.Now()
	res, err := tuning.NewSearch(cfg, tuning.NewGrid(params...), logger.Named("tune")).Run(ctx)
	if err != nil {
		return err
	}

	names := make([]string, len(params))
	for i, param := range params {
		names[i] = param.Name()
	}

	ranked := res.Ranked(cfg.Maximize)
	failed := len(res.Trials) - len(ranked)
	if tuneTop > 0 && len(ranked) > tuneTop {
		ranked = ranked[:tuneTop]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(cfg.Metric))
	for _, t := range ranked {
		for _, n := range names {
			fmt.Fprintf(w, "%.4g\t", t.Params[n])
		}
		fmt.Fprintf(w, "%.4f\n", t.Score)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d trials (%d failed) in %s\n", len(res.Trials), failed, time.Since(start).Round(time.Millisecond))
	fmt.Println("best:")
	keys := make([]string, 0, len(res.Best.Params))
	for k := range res.Best.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s = %g\n", k, res.Best.Params[k])
	}
	return nil
}
