package sim

import "fmt"

// Wakeup is delivered to a process each time it is resumed.
type Wakeup struct {
	Time   Time     // current simulation time
	Reason Priority // priority of the event that fired, unchanged
	First  bool     // true on the priming resumption
}

// Process is a simulated actor. Each Resume runs the actor up to its next
// wait and returns when it wants to be woken again. Returning ErrProcessDone
// terminates the process; any other error aborts RunUntil.
type Process interface {
	Resume(w Wakeup) (WaitRequest, error)
}

// ProcessFunc adapts a function to the Process interface. The function is
// the whole state machine: it must remember where it left off between calls.
type ProcessFunc func(w Wakeup) (WaitRequest, error)

// Resume calls f(w).
func (f ProcessFunc) Resume(w Wakeup) (WaitRequest, error) {
	return f(w)
}

// Handle is a process registered with an Environment. Synchronization
// primitives and external drivers refer to processes through their handles.
type Handle struct {
	id   ProcessID
	name string
	env  *Environment
	proc Process

	primed bool
	done   bool
}

// ID returns the process id, unique within its environment.
func (h *Handle) ID() ProcessID { return h.id }

// Name returns the name given at registration.
func (h *Handle) Name() string { return h.name }

// Env returns the owning environment.
func (h *Handle) Env() *Environment { return h.env }

// Process returns the registered process.
func (h *Handle) Process() Process { return h.proc }

// Now returns the environment's current time.
func (h *Handle) Now() Time { return h.env.CurrentTime() }

// NextTime returns the time of the process's pending event, or InfinityTime
// if it has none.
func (h *Handle) NextTime() Time {
	return h.env.registry.TimeOf(h.id)
}

// IsParked reports whether the process is waiting for an explicit
// activation rather than a timestamp.
func (h *Handle) IsParked() bool {
	ev, ok := h.env.registry.EventOf(h.id)
	return ok && h.env.isParkTime(ev.Time)
}

// IsDone reports whether the process has terminated.
func (h *Handle) IsDone() bool { return h.done }

// Activate pulls the process's pending event forward to t. See
// Environment.Activate.
func (h *Handle) Activate(t Time, pr Priority) error {
	return h.env.Activate(h, t, pr)
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s(p%d)", h.name, h.id)
}
