package sim

import "fmt"

// ProcessID identifies a registered process within one Environment.
type ProcessID uint64

// Event is a pending wake-up: process Process resumes at Time with Priority
// as its wake reason. Events are replaced, never mutated in place.
type Event struct {
	Time     Time
	Priority Priority
	Process  ProcessID
}

func (e Event) String() string {
	return fmt.Sprintf("<%s|%d|p%d>", e.Time, e.Priority, e.Process)
}

// Before orders events by time (within tol), then by ascending priority.
// Events with equal time and priority are unordered.
//
// Tolerant equality is not transitive, so Before is not a strict weak order
// when several events sit less than tol apart in a chain spanning more than
// tol. With tol 1e-3, events at 0.0016, 0.0008 and 0 can pop in that order,
// and the process due at 0 then resumes at 0.0016. Keep event times that
// must stay ordered at least tol apart.
func (e Event) Before(other Event, tol Tolerance) bool {
	if tol.Equal(e.Time, other.Time) {
		return e.Priority < other.Priority
	}
	return e.Time < other.Time
}
