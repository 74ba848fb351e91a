// Package trace records the event stream of a simulation run for offline
// analysis. Records are plain data; the Recorder hook fills them from a
// running sim.Environment and the sqlite helpers persist them.
package trace

// EventRecord captures one fired event: which process was resumed, when,
// why, and when it asked to be woken next.
type EventRecord struct {
	Seq       int
	Time      float64
	ProcessID uint64
	Process   string
	Reason    int
	Next      float64 // next scheduled time after the resumption (infinity if parked or done)
	Done      bool    // process terminated during this resumption
}

// Parked reports whether the process parked after this resumption.
func (r EventRecord) Parked(infinity float64) bool {
	return !r.Done && r.Next >= infinity
}
