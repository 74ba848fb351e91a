package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/sim/scenario"
	"github.com/procsim/procsim/sim/trace"
)

var (
	configPath   string  // Scenario YAML file
	scenarioName string  // Scenario to run, overrides the config file
	seed         int64   // Seed for every random draw in the scenario
	horizon      float64 // Stop time; 0 runs until quiescence
	tolerance    float64 // Time comparison epsilon
	logLevel     string  // Log verbosity level
	traceLevel   string  // Event trace verbosity
	traceDB      string  // SQLite file receiving the event trace
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "procsim",
	Short: "Process-oriented discrete-event simulation kernel",
}

// setLogLevel applies the --log flag.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// buildConfig loads the scenario file, if any, and applies explicitly set
// flags on top of it.
func buildConfig(cmd *cobra.Command) (*scenario.Config, error) {
	cfg := scenario.DefaultConfig()
	if configPath != "" {
		loaded, err := scenario.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("scenario") {
		cfg.Scenario = scenarioName
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("horizon") {
		cfg.Horizon = horizon
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	return cfg, cfg.Validate()
}

// runCmd executes a scenario using the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid scenario configuration: %v", err)
		}
		level, err := trace.ParseLevel(traceLevel)
		if err != nil {
			logrus.Fatalf("Invalid trace level: %v", err)
		}
		if traceDB != "" && level == trace.LevelNone {
			level = trace.LevelEvents
		}

		var rec *trace.Recorder
		startTime := time.Now()
		res, err := scenario.Run(cfg, func(env *sim.Environment) {
			rec = trace.Attach(env, level)
		})
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if err := printResult(cmd.OutOrStdout(), res, time.Since(startTime)); err != nil {
			logrus.Fatalf("Failed to print results: %v", err)
		}
		if level == trace.LevelEvents {
			printSummary(cmd.OutOrStdout(), trace.Summarize(rec.Trace()))
		}
		if traceDB != "" {
			if err := trace.WriteSQLite(context.Background(), traceDB, rec.Trace()); err != nil {
				logrus.Fatalf("Failed to write trace: %v", err)
			}
			logrus.Infof("Trace for run %s written to %s", res.RunID, traceDB)
		}
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML scenario file")
	runCmd.Flags().StringVar(&scenarioName, "scenario", scenario.ProdCons, "Scenario to run (pingpong, prodcons, tokenring, dispatch)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for random draws")
	runCmd.Flags().Float64Var(&horizon, "horizon", 0, "Simulation stop time (0 runs until every process is parked or done)")
	runCmd.Flags().Float64Var(&tolerance, "tolerance", float64(sim.DefaultTolerance), "Epsilon for time comparisons")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Event trace verbosity (none, events)")
	runCmd.Flags().StringVar(&traceDB, "trace-db", "", "Write the event trace to this SQLite file (implies --trace-level events)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
