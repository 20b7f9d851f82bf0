package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	backend    string

	ticks       int
	record      bool
	period      string
	yawKp       float64
	rollKp      float64
	speedKp     float64
	depthKp     float64
	cruiseSpeed float64
	cruiseDepth float64

	grammar      string
	delimiter    string
	defaultPower int
	noStop       bool
	strict       bool

	asJSON bool
	width  int
	height int
)

// main registers the commands and exits with status 1 when one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "auvctl",
		Short:         "underwater vehicle control loop and sequence runner",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "telemetry directory (default from profile)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "vehicle profile (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a built-in profile")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug or info")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "simulator or can")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the control loop",
		Args:  cobra.NoArgs,
		RunE:  runLoop,
	}
	addLoopFlags(runCmd)
	runCmd.Flags().IntVar(&ticks, "ticks", 0, "stop after n ticks (0 runs until interrupted)")
	runCmd.Flags().BoolVar(&record, "record", false, "record telemetry")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the control loop with a live view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addLoopFlags(liveCmd)
	liveCmd.Flags().BoolVar(&record, "record", false, "record telemetry")

	sequenceCmd := &cobra.Command{
		Use:   "sequence [file]",
		Short: "execute an instruction file",
		Args:  cobra.ExactArgs(1),
		RunE:  runSequence,
	}
	addSequenceFlags(sequenceCmd)
	sequenceCmd.Flags().BoolVar(&noStop, "no-stop", false, "leave motors running after the last instruction")

	checkCmd := &cobra.Command{
		Use:   "check [file]",
		Short: "parse an instruction file without moving",
		Args:  cobra.ExactArgs(1),
		RunE:  checkSequence,
	}
	addSequenceFlags(checkCmd)
	checkCmd.Flags().BoolVar(&strict, "strict", false, "fail if any line is skipped")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&width, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&height, "height", 10, "plot height")

	reportCmd := &cobra.Command{
		Use:   "report [run_id]",
		Short: "summarize a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  reportRun,
	}
	reportCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search controller gains on the simulator",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addTuneFlags(tuneCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in profiles",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "show the effective profile",
		Args:  cobra.NoArgs,
		RunE:  showConfig,
	}
	writeConfigCmd := &cobra.Command{
		Use:   "write [path]",
		Short: "write the effective profile to a file",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	configCmd.AddCommand(writeConfigCmd)

	rootCmd.AddCommand(runCmd, liveCmd, sequenceCmd, checkCmd, listCmd, plotCmd, reportCmd, exportCmd, tuneCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLoopFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&period, "period", "", "tick period, e.g. 50ms (default from profile)")
	cmd.Flags().Float64Var(&yawKp, "yaw-kp", 0, "yaw proportional gain")
	cmd.Flags().Float64Var(&rollKp, "roll-kp", 0, "roll proportional gain")
	cmd.Flags().Float64Var(&speedKp, "speed-kp", 0, "speed proportional gain")
	cmd.Flags().Float64Var(&depthKp, "depth-kp", 0, "depth proportional gain")
	cmd.Flags().Float64Var(&cruiseSpeed, "cruise-speed", 0, "speed setpoint while searching")
	cmd.Flags().Float64Var(&cruiseDepth, "cruise-depth", 0, "depth setpoint while searching")
}

func addSequenceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&grammar, "grammar", "", "plain or labelled")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "field delimiter")
	cmd.Flags().IntVar(&defaultPower, "power", 0, "power for lines without one")
}
