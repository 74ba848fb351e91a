package sim

import (
	"fmt"

	"github.com/procsim/procsim/sim/pheap"
)

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() Time
}

// Registry binds every live process to exactly one pending event and keeps a
// global min-structure over those events.
//
// Invariant: a process has at most one event in the registry. Rescheduling
// moves the existing event in place and never adds a second entry.
//
// Thread-safety: NOT thread-safe. Owned by a single Environment.
type Registry struct {
	tol   Tolerance
	clock TimeTeller
	heap  *pheap.Heap[Event]
	slots map[ProcessID]*pheap.Node[Event]
}

// NewRegistry creates an empty registry. Times earlier than clock's current
// time are clamped up to it.
func NewRegistry(clock TimeTeller, tol Tolerance) *Registry {
	r := &Registry{
		tol:   tol,
		clock: clock,
		slots: make(map[ProcessID]*pheap.Node[Event]),
	}
	r.heap = pheap.New(func(a, b Event) bool { return a.Before(b, r.tol) })
	return r
}

// Len returns the number of scheduled events.
func (r *Registry) Len() int {
	return r.heap.Len()
}

// Has reports whether pid currently has an event.
func (r *Registry) Has(pid ProcessID) bool {
	_, ok := r.slots[pid]
	return ok
}

func (r *Registry) clamp(t Time) Time {
	if now := r.clock.CurrentTime(); t < now {
		return now
	}
	return t
}

// Schedule inserts the single event for pid. It fails with
// ErrAlreadyScheduled if pid already has one.
func (r *Registry) Schedule(pid ProcessID, t Time, pr Priority) error {
	if _, ok := r.slots[pid]; ok {
		return fmt.Errorf("schedule p%d at %s: %w", pid, t, ErrAlreadyScheduled)
	}
	ev := Event{Time: r.clamp(t), Priority: pr, Process: pid}
	r.slots[pid] = r.heap.Push(ev)
	return nil
}

// Activate moves pid's event to t if t is strictly earlier than the current
// event time; the event then carries pr as its wake reason. Otherwise the
// registry is unchanged. It reports whether the event moved.
func (r *Registry) Activate(pid ProcessID, t Time, pr Priority) (bool, error) {
	node, ok := r.slots[pid]
	if !ok {
		return false, fmt.Errorf("activate p%d at %s: %w", pid, t, ErrNotScheduled)
	}
	t = r.clamp(t)
	cur := node.Value()
	if !r.tol.Less(t, cur.Time) {
		return false, nil
	}
	r.heap.DecreaseKey(node, Event{Time: t, Priority: pr, Process: pid})
	return true, nil
}

// PeekEarliest returns the globally earliest event without removing it.
func (r *Registry) PeekEarliest() (Event, bool) {
	return r.heap.Peek()
}

// PopEarliest removes and returns the globally earliest event. The owning
// process has no event afterwards until it is scheduled again.
func (r *Registry) PopEarliest() (Event, bool) {
	node := r.heap.PopNode()
	if node == nil {
		return Event{}, false
	}
	ev := node.Value()
	delete(r.slots, ev.Process)
	return ev, true
}

// TimeOf returns pid's scheduled time, or InfinityTime when it has none.
func (r *Registry) TimeOf(pid ProcessID) Time {
	node, ok := r.slots[pid]
	if !ok {
		return InfinityTime
	}
	return node.Value().Time
}

// EventOf returns pid's scheduled event.
func (r *Registry) EventOf(pid ProcessID) (Event, bool) {
	node, ok := r.slots[pid]
	if !ok {
		return Event{}, false
	}
	return node.Value(), true
}
