package sim

import (
	"fmt"
	"math"
)

// Time is simulated time. It only moves forward within a run.
type Time float64

// InfinityTime means "no pending wake-up". It is finite (ten years of
// seconds) so tolerance comparisons against it stay well defined.
const InfinityTime Time = 10 * 365 * 24 * 60 * 60

// DefaultTolerance absorbs accumulation error from repeated additions.
const DefaultTolerance Tolerance = 1e-3

func (t Time) String() string {
	if t == InfinityTime {
		return "inf"
	}
	return fmt.Sprintf("%.3f", float64(t))
}

// Tolerance is the epsilon used by every time comparison in the kernel.
// Two times closer than the tolerance are equal; Less never reports
// near-equal values as ordered.
type Tolerance float64

// Equal reports whether |a-b| < tol.
func (tol Tolerance) Equal(a, b Time) bool {
	return math.Abs(float64(a-b)) < float64(tol)
}

// Less reports whether a is strictly earlier than b by more than tol.
func (tol Tolerance) Less(a, b Time) bool {
	return !tol.Equal(a, b) && a < b
}

// LessEq reports whether a is earlier than or equal to b within tol.
func (tol Tolerance) LessEq(a, b Time) bool {
	return tol.Equal(a, b) || a < b
}

// Priority breaks ties between events at equal time; lower values run first.
// The value is handed back unchanged to the resumed process as its wake
// reason, so applications reuse it as a cause code.
type Priority int

const (
	// PriorityMin is the most urgent priority.
	PriorityMin Priority = math.MinInt32
	// PriorityMax is the least urgent priority, used by parked processes.
	PriorityMax Priority = math.MaxInt32

	// TimeReached marks a wake-up at a meaningful timestamp.
	TimeReached Priority = 0
	// TimePassed marks a wake-up where time merely elapsed.
	TimePassed Priority = 1
)

// WaitRequest is what a process yields: when to wake next and why.
type WaitRequest struct {
	Time     Time
	Priority Priority
}

// Park is the wait request of a process with nothing to do until someone
// activates it.
var Park = WaitRequest{Time: InfinityTime, Priority: PriorityMax}

// At builds a wait request.
func At(t Time, pr Priority) WaitRequest {
	return WaitRequest{Time: t, Priority: pr}
}

// IsPark reports whether the request parks the process indefinitely.
func (w WaitRequest) IsPark() bool {
	return w.Time >= InfinityTime
}
