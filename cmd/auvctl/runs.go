package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/auvctl/internal/analysis"
	"github.com/san-kum/auvctl/internal/storage"
	"github.com/san-kum/auvctl/internal/viz"
)

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	if cmd.Flags().Changed("data") {
		return storage.New(dataDir), nil
	}
	p, err := loadProfile(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(p.DataDir()), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROFILE\tBACKEND\tTIME\tTICKS\tDURATION\tSTATE\tENDED")

	for _, run := range runs {
		ended := "ok"
		if run.Error != "" {
			ended = run.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2fs\t%s\t%s\n",
			run.ID,
			run.Profile,
			run.Backend,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Duration,
			run.FinalState,
			ended,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}
	if series.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("profile: %s (%s)\n", meta.Profile, meta.Backend)
	fmt.Printf("ticks: %d\n\n", series.Len())

	fmt.Println(viz.Plot(series.Column("yaw"), "heading (deg)", width, height))
	fmt.Println()
	fmt.Println(viz.Plot(series.Column("heading_error"), "heading error (deg)", width, height))
	fmt.Println()
	fmt.Println(viz.PlotMany([][]float64{
		series.Column("yaw_left"), series.Column("yaw_right"),
		series.Column("roll_left"), series.Column("roll_right"),
	}, "thrust: yaw left, yaw right, roll left, roll right", width, height))
	fmt.Println()
	fmt.Println(viz.PlotMany([][]float64{
		series.Column("depth"), series.Column("sp_depth"),
	}, "depth and setpoint", width, height))
	return nil
}

func reportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}

	rep := analysis.Report(*meta, series)
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Printf("run: %s  profile: %s  ticks: %d  duration: %.2fs\n", meta.ID, meta.Profile, meta.Ticks, meta.Duration)
	if meta.Error != "" {
		fmt.Printf("ended with: %s\n", meta.Error)
	}
	if rep.Settled {
		fmt.Printf("heading settled within %.1f° at %.2fs\n", analysis.SettleBand, rep.SettlingTime)
	} else {
		fmt.Printf("heading did not settle within %.1f°\n", analysis.SettleBand)
	}
	if rep.Oscillating {
		fmt.Printf("dominant heading oscillation: %.2fs period\n", rep.HeadingPeriod)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tMEAN\tSTD\tMIN\tMAX\tRMS")
	for _, c := range storage.Columns {
		s := rep.Columns[c]
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n", c, s.Mean, s.StdDev, s.Min, s.Max, s.RMS)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-18s %.4f\n", name, meta.Metrics[name])
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	return st.Export(args[0], os.Stdout)
}
