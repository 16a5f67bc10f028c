package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inference-sim/conveyor-sim/sim"
	"github.com/inference-sim/conveyor-sim/sim/trace"
	"github.com/inference-sim/conveyor-sim/sim/workload"
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "conveyor-sim",
	Short: "Discrete-event simulator for conveyor lines with backpressure",
	Long: `conveyor-sim runs scenarios of linked conveyors on a discrete-event kernel.
Cargo enters conveyors at scheduled ticks, travels downstream one batch per
period, and waits whenever the next conveyor cannot take it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(viper.GetString("log"))
		if err != nil {
			return fmt.Errorf("invalid log level: %s", viper.GetString("log"))
		}
		logrus.SetLevel(level)
		return nil
	},
}

// runCmd executes a scenario and prints its report
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a conveyor scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := prepareSimulation(viper.GetViper())
		if err != nil {
			return err
		}

		logrus.Infof("Starting simulation with %d conveyors, horizon=%d, ordering=%s",
			len(run.Scenario.Conveyors), run.Scenario.Horizon, run.Sim.Config().Ordering)
		startTime := time.Now()
		run.Run()
		logrus.Infof("Simulation finished in %s", time.Since(startTime))

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := writeOutputs(ctx, run); err != nil {
			return err
		}
		rep := NewReport(run)
		if viper.GetBool("json") {
			return rep.WriteJSON(cmd.OutOrStdout())
		}
		rep.WriteTable(cmd.OutOrStdout())
		return nil
	},
}

// validateCmd checks a scenario without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a conveyor scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := prepareSimulation(viper.GetViper())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scenario OK: %d conveyors, %d sinks\n", len(run.Scenario.Conveyors), len(run.Scenario.Sinks))
		return nil
	},
}

// arrivalsCmd writes the scenario's merged arrivals as CSV
var arrivalsCmd = &cobra.Command{
	Use:   "arrivals",
	Short: "Export a scenario's arrivals to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := prepareSimulation(viper.GetViper())
		if err != nil {
			return err
		}
		records, err := run.arrivals()
		if err != nil {
			return err
		}
		out := viper.GetString("out")
		if err := workload.ExportArrivalsCSV(out, records); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d arrivals to %s\n", run.Arrivals, out)
		return nil
	},
}

// prepareSimulation loads the scenario, applies flag and environment
// overrides and wires the simulation.
func prepareSimulation(v *viper.Viper) (*Simulation, error) {
	path := v.GetString("scenario")
	if path == "" {
		return nil, fmt.Errorf("%w: --scenario is required", sim.ErrInvalidConfig)
	}
	sc, err := LoadScenario(path)
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(sc, v); err != nil {
		return nil, err
	}
	return BuildSimulation(sc)
}

// applyOverrides replaces scenario values with any flag or CONVEYOR_SIM_*
// environment setting, then revalidates.
func applyOverrides(sc *Scenario, v *viper.Viper) error {
	if v.IsSet("horizon") {
		sc.Horizon = v.GetInt64("horizon")
	}
	if v.IsSet("ordering") {
		sc.Kernel.Ordering = v.GetString("ordering")
	}
	if v.IsSet("priority-bits") {
		sc.Kernel.PriorityBits = v.GetInt("priority-bits")
	}
	if v.IsSet("trace-level") {
		sc.Trace.Level = v.GetString("trace-level")
	}
	if v.IsSet("trace-db") {
		sc.Trace.SQLite = absPath(v.GetString("trace-db"))
	}
	if v.IsSet("timeline") {
		sc.Trace.Timeline = absPath(v.GetString("timeline"))
	}
	return sc.Validate()
}

// absPath anchors command-line paths to the working directory so they are
// not resolved against the scenario file.
func absPath(path string) string {
	if path == "" || path == "-" {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// writeOutputs writes the timeline and SQLite exports requested by the scenario.
func writeOutputs(ctx context.Context, run *Simulation) error {
	if run.Trace == nil {
		return nil
	}
	sc := run.Scenario
	if sc.Trace.Timeline != "" {
		if err := writeTimeline(sc.ResolvePath(sc.Trace.Timeline), run.Trace); err != nil {
			return err
		}
	}
	if sc.Trace.SQLite != "" {
		path := sc.ResolvePath(sc.Trace.SQLite)
		if err := trace.ExportSQLite(ctx, path, run.Trace); err != nil {
			return err
		}
		logrus.Infof("Trace %s exported to %s", run.Trace.RunID, path)
	}
	return nil
}

func writeTimeline(path string, st *trace.SimulationTrace) error {
	if path == "-" {
		return st.WriteTimeline(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating timeline: %w", err)
	}
	if err := st.WriteTimeline(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Execute runs the CLI root command
func Execute() {
	cobra.OnInitialize(initConfig)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logrus.Fatalf("%v", err)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CONVEYOR_SIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringP("scenario", "s", "", "Scenario YAML file")
	rootCmd.PersistentFlags().String("log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	_ = viper.BindPFlag("scenario", rootCmd.PersistentFlags().Lookup("scenario"))
	_ = viper.BindPFlag("log", rootCmd.PersistentFlags().Lookup("log"))

	runCmd.Flags().Int64("horizon", 0, "Stop after this tick (0 = until the queue drains); overrides the scenario")
	runCmd.Flags().String("ordering", "", "Event ordering: stable or packed; overrides the scenario")
	runCmd.Flags().Int("priority-bits", 0, "Priority bits for the packed ordering; overrides the scenario")
	runCmd.Flags().String("trace-level", "", "Trace verbosity: none, transfers, all; overrides the scenario")
	runCmd.Flags().String("trace-db", "", "Export the trace to this SQLite database")
	runCmd.Flags().String("timeline", "", "Write the trace timeline to this file (- for stdout)")
	runCmd.Flags().Bool("json", false, "Print the report as JSON")
	for _, name := range []string{"horizon", "ordering", "priority-bits", "trace-level", "trace-db", "timeline", "json"} {
		_ = viper.BindPFlag(name, runCmd.Flags().Lookup(name))
	}

	arrivalsCmd.Flags().String("out", "arrivals.csv", "CSV file to write")
	_ = viper.BindPFlag("out", arrivalsCmd.Flags().Lookup("out"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(arrivalsCmd)
}
