package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/procsim/procsim/sim/scenario"
	"github.com/procsim/procsim/sim/trace"
)

// resultOutput is the JSON shape of a scenario result.
type resultOutput struct {
	Scenario      string         `json:"scenario"`
	RunID         string         `json:"run_id"`
	FinalTime     float64        `json:"final_time"`
	Events        int            `json:"events"`
	Completed     int            `json:"completed"`
	MeanLatency   float64        `json:"mean_latency"` // completion end minus arrival
	Counters      map[string]int `json:"counters"`
	WallClockSecs float64        `json:"wall_clock_s"`
}

func printResult(w io.Writer, res *scenario.Result, elapsed time.Duration) error {
	out := resultOutput{
		Scenario:      res.Scenario,
		RunID:         res.RunID,
		FinalTime:     float64(res.FinalTime),
		Events:        res.Events,
		Completed:     len(res.Completions),
		Counters:      res.Counters,
		WallClockSecs: elapsed.Seconds(),
	}
	if n := len(res.Completions); n > 0 {
		total := 0.0
		for _, c := range res.Completions {
			total += float64(c.End - c.Arrival)
		}
		out.MeanLatency = total / float64(n)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "=== Simulation Results ===")
	fmt.Fprintln(w, string(data))
	return nil
}

func printRunHeader(w io.Writer, runID string) {
	fmt.Fprintf(w, "=== Run %s ===\n", runID)
}

func printSummary(w io.Writer, s *trace.Summary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Events: %d  Processes: %d  Terminated: %d\n", s.TotalEvents, s.Processes, s.Terminated)
	fmt.Fprintf(w, "Span: %.3f .. %.3f\n", s.FirstTime, s.LastTime)
	fmt.Fprintf(w, "Gap: mean=%.3f stddev=%.3f p99=%.3f\n", s.MeanGap, s.StdDevGap, s.P99Gap)
	for _, name := range s.ProcessNames() {
		fmt.Fprintf(w, "  %-20s %d\n", name, s.EventsPerProcess[name])
	}
}
