package trace

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates statistics from a Trace.
type Summary struct {
	TotalEvents      int
	Processes        int
	Terminated       int
	FirstTime        float64
	LastTime         float64
	MeanGap          float64 // mean time between consecutive events
	StdDevGap        float64
	P99Gap           float64
	ReasonCounts     map[int]int
	EventsPerProcess map[string]int // process name → events fired
}

// Summarize computes aggregate statistics from a Trace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(t *Trace) *Summary {
	s := &Summary{
		ReasonCounts:     make(map[int]int),
		EventsPerProcess: make(map[string]int),
	}
	if t == nil || len(t.Events) == 0 {
		return s
	}

	s.TotalEvents = len(t.Events)
	s.FirstTime = t.Events[0].Time
	s.LastTime = t.Events[len(t.Events)-1].Time
	for _, ev := range t.Events {
		s.EventsPerProcess[ev.Process]++
		s.ReasonCounts[ev.Reason]++
		if ev.Done {
			s.Terminated++
		}
	}
	s.Processes = len(s.EventsPerProcess)

	if len(t.Events) > 1 {
		gaps := make([]float64, 0, len(t.Events)-1)
		for i := 1; i < len(t.Events); i++ {
			gaps = append(gaps, t.Events[i].Time-t.Events[i-1].Time)
		}
		s.MeanGap, s.StdDevGap = stat.MeanStdDev(gaps, nil)
		if len(gaps) == 1 {
			s.StdDevGap = 0
		}
		sort.Float64s(gaps)
		s.P99Gap = stat.Quantile(0.99, stat.Empirical, gaps, nil)
	}
	return s
}

// ProcessNames returns the traced process names in sorted order.
func (s *Summary) ProcessNames() []string {
	names := make([]string, 0, len(s.EventsPerProcess))
	for name := range s.EventsPerProcess {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
