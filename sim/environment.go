package sim

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Option configures an Environment.
type Option func(*Environment)

// WithTolerance sets the epsilon used for every time comparison.
func WithTolerance(tol Tolerance) Option {
	return func(e *Environment) {
		e.tol = tol
	}
}

// WithStopTime makes Run stop at t instead of running until only parked
// processes remain.
func WithStopTime(t Time) Option {
	return func(e *Environment) {
		e.stopTime = t
		e.hasStopTime = true
	}
}

// Environment is the scheduling loop. It owns the registry and the notion of
// current time, and resumes processes one event at a time.
//
// Thread-safety: NOT thread-safe. Everything, including the processes it
// drives, runs on the caller's goroutine.
type Environment struct {
	HookableBase

	id       string
	tol      Tolerance
	now      Time
	registry *Registry

	processes []*Handle
	byID      map[ProcessID]*Handle
	nextID    ProcessID

	stopTime    Time
	hasStopTime bool

	started bool
	running *Handle
}

// NewEnvironment creates an empty environment at time 0.
func NewEnvironment(opts ...Option) *Environment {
	e := &Environment{
		id:   xid.New().String(),
		tol:  DefaultTolerance,
		byID: make(map[ProcessID]*Handle),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry = NewRegistry(e, e.tol)
	return e
}

// ID returns the unique id of this run.
func (e *Environment) ID() string { return e.id }

// Tolerance returns the epsilon used for time comparisons.
func (e *Environment) Tolerance() Tolerance { return e.tol }

// CurrentTime returns the current simulation time.
func (e *Environment) CurrentTime() Time { return e.now }

// Started reports whether Start has been called.
func (e *Environment) Started() bool { return e.started }

// Processes returns the registered processes in registration order.
func (e *Environment) Processes() []*Handle {
	return e.processes
}

// Lookup returns the handle for pid, or nil.
func (e *Environment) Lookup(pid ProcessID) *Handle {
	return e.byID[pid]
}

// Running returns the process currently being resumed, or nil.
func (e *Environment) Running() *Handle { return e.running }

// Peek returns the globally earliest pending event.
func (e *Environment) Peek() (Event, bool) {
	return e.registry.PeekEarliest()
}

// Pending returns the number of processes with a pending event.
func (e *Environment) Pending() int {
	return e.registry.Len()
}

func (e *Environment) isParkTime(t Time) bool {
	return e.tol.LessEq(InfinityTime, t)
}

// Register adds p to the roster. Before Start this only records it; Start
// primes it. After Start the process is scheduled at the current time with
// PriorityMin and primed when that event fires.
func (e *Environment) Register(name string, p Process) *Handle {
	e.nextID++
	h := &Handle{
		id:   e.nextID,
		name: name,
		env:  e,
		proc: p,
	}
	if h.name == "" {
		h.name = fmt.Sprintf("p%d", h.id)
	}
	e.processes = append(e.processes, h)
	e.byID[h.id] = h

	if e.started {
		// cannot fail: the id is fresh
		_ = e.registry.Schedule(h.id, e.now, PriorityMin)
		logrus.Debugf("[t %s] late registration of %s", e.now, h)
	}
	return h
}

// Start resumes every registered process once and schedules the wait each
// one yields. It is the only time all processes are primed together.
func (e *Environment) Start() error {
	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true

	roster := append([]*Handle(nil), e.processes...)
	for _, h := range roster {
		if h.primed {
			continue
		}
		if err := e.resume(h, Wakeup{Time: e.now, Reason: PriorityMin, First: true}); err != nil {
			return err
		}
	}
	logrus.Debugf("[t %s] environment %s started with %d processes", e.now, e.id, len(roster))
	return nil
}

// resume runs one step of h and schedules the wait it yields.
func (e *Environment) resume(h *Handle, w Wakeup) error {
	h.primed = true
	e.running = h
	req, err := h.proc.Resume(w)
	e.running = nil

	if errors.Is(err, ErrProcessDone) {
		h.done = true
		logrus.Debugf("[t %s] %s terminated", e.now, h)
		return nil
	}
	if err != nil {
		return fmt.Errorf("process %s at %s: %w", h, e.now, err)
	}
	if err := e.registry.Schedule(h.id, req.Time, req.Priority); err != nil {
		return fmt.Errorf("process %s: %w", h, err)
	}
	return nil
}

// RunUntil processes, in order, every event due at or before deadline and
// then moves current time to deadline. Parked processes are never resumed.
//
// With a focus process it returns that process's next scheduled time, or
// InfinityTime if it is parked or finished; without one it returns the
// global next event time, or InfinityTime when nothing is pending. Errors
// from a process abort the run and are returned wrapped.
func (e *Environment) RunUntil(deadline Time, focus *Handle) (Time, error) {
	if !e.started {
		return e.now, ErrNotStarted
	}
	if e.running != nil {
		return e.now, fmt.Errorf("%w: %s", ErrReentrantRun, e.running)
	}
	if e.tol.Less(deadline, e.now) {
		return e.now, fmt.Errorf("run until %s at %s: %w", deadline, e.now, ErrDeadlineInPast)
	}
	if focus != nil && focus.env != e {
		return e.now, fmt.Errorf("focus %s: %w", focus, ErrUnknownProcess)
	}

	for {
		ev, ok := e.registry.PeekEarliest()
		if !ok || e.isParkTime(ev.Time) || !e.tol.LessEq(ev.Time, deadline) {
			break
		}
		e.registry.PopEarliest()
		if ev.Time > e.now {
			e.now = ev.Time
		}
		if err := e.fire(ev); err != nil {
			return e.now, err
		}
	}
	if deadline > e.now {
		e.now = deadline
	}

	if focus != nil {
		if focus.IsParked() {
			return InfinityTime, nil
		}
		return e.registry.TimeOf(focus.id), nil
	}
	return e.NextTime(), nil
}

func (e *Environment) fire(ev Event) error {
	h := e.byID[ev.Process]
	ctx := HookCtx{
		Domain:  e,
		Pos:     HookPosBeforeEvent,
		Now:     e.now,
		Item:    ev,
		Process: h,
	}
	e.InvokeHook(ctx)

	logrus.Tracef("[t %s] resume %s reason=%d", e.now, h, ev.Priority)
	err := e.resume(h, Wakeup{Time: e.now, Reason: ev.Priority, First: !h.primed})

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)
	return err
}

// NextTime returns the time of the globally earliest pending event, or
// InfinityTime when none is pending.
func (e *Environment) NextTime() Time {
	ev, ok := e.registry.PeekEarliest()
	if !ok {
		return InfinityTime
	}
	return ev.Time
}

// Run starts the environment if needed and runs it to completion: up to the
// stop time when one is configured, otherwise until every remaining process
// is parked or finished.
func (e *Environment) Run() error {
	if !e.started {
		if err := e.Start(); err != nil {
			return err
		}
	}
	if e.hasStopTime {
		_, err := e.RunUntil(e.stopTime, nil)
		return err
	}
	for {
		next := e.NextTime()
		if e.isParkTime(next) {
			return nil
		}
		if _, err := e.RunUntil(next, nil); err != nil {
			return err
		}
	}
}

// Activate pulls h's pending event forward to t (clamped to now) with wake
// reason pr. It is a no-op unless t is strictly earlier than the event's
// current time. Synchronization primitives and external drivers use it to
// wake parked processes.
func (e *Environment) Activate(h *Handle, t Time, pr Priority) error {
	if h == nil || h.env != e {
		return fmt.Errorf("activate %v: %w", h, ErrUnknownProcess)
	}
	moved, err := e.registry.Activate(h.id, t, pr)
	if err != nil {
		return fmt.Errorf("activate %s: %w", h, err)
	}
	if moved {
		logrus.Tracef("[t %s] activated %s at %s reason=%d", e.now, h, h.NextTime(), pr)
	}
	return nil
}

// Close releases resources held by processes, such as task goroutines.
func (e *Environment) Close() {
	for _, h := range e.processes {
		if c, ok := h.proc.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
