package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procsim/procsim/sim/trace"
)

var traceRunID string // Run to summarize; empty summarizes every run

// traceCmd groups commands that read stored event traces
var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect event traces written with --trace-db",
}

// traceSummarizeCmd prints summary statistics for stored runs
var traceSummarizeCmd = &cobra.Command{
	Use:   "summarize <db>",
	Short: "Summarize the event traces in a SQLite file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		ctx := context.Background()

		db, err := trace.OpenDB(ctx, args[0])
		if err != nil {
			logrus.Fatalf("Failed to open trace database: %v", err)
		}
		defer db.Close()

		runs := []string{traceRunID}
		if traceRunID == "" {
			if runs, err = db.Runs(ctx); err != nil {
				logrus.Fatalf("Failed to list runs: %v", err)
			}
		}
		for _, id := range runs {
			t, err := db.Read(ctx, id)
			if err != nil {
				logrus.Fatalf("Failed to read run %s: %v", id, err)
			}
			if t == nil {
				logrus.Fatalf("No trace for run %s", id)
			}
			printRunHeader(cmd.OutOrStdout(), id)
			printSummary(cmd.OutOrStdout(), trace.Summarize(t))
		}
	},
}

func init() {
	traceSummarizeCmd.Flags().StringVar(&traceRunID, "run", "", "Run id to summarize (default: all runs)")
	traceCmd.AddCommand(traceSummarizeCmd)
	rootCmd.AddCommand(traceCmd)
}
