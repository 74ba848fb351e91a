package locks

import (
	"errors"

	"github.com/procsim/procsim/sim"
)

// WaitEvent is a one-shot, non-sticky event. Set wakes the processes waiting
// at that moment and forgets it happened: a process that waits after a Set
// blocks until the next Set.
type WaitEvent struct {
	// Reason is the wake reason delivered by Set.
	Reason sim.Priority

	waiters WaitQueue
}

// Condition is the name the producer/consumer workloads use for a WaitEvent.
type Condition = WaitEvent

// NewWaitEvent creates a WaitEvent with no waiters.
func NewWaitEvent() *WaitEvent {
	return &WaitEvent{Reason: sim.TimeReached}
}

// Waiting returns the number of blocked processes.
func (e *WaitEvent) Waiting() int { return e.waiters.Len() }

// Wait always queues p; p must park.
func (e *WaitEvent) Wait(p *sim.Handle) sim.WaitRequest {
	e.waiters.Enqueue(p)
	return sim.Park
}

// Set wakes every current waiter at the current time and empties the queue.
func (e *WaitEvent) Set() error {
	return wakeAll(e.waiters.DrainAll(), e.Reason)
}

// Latch is the level-triggered counterpart of WaitEvent. Once set it stays
// set, and Wait passes straight through until Clear.
type Latch struct {
	// Reason is the wake reason delivered by Set and by pass-through waits.
	Reason sim.Priority

	set     bool
	waiters WaitQueue
}

// NewLatch creates a cleared latch.
func NewLatch() *Latch {
	return &Latch{Reason: sim.TimeReached}
}

// IsSet reports whether the latch is set.
func (l *Latch) IsSet() bool { return l.set }

// Waiting returns the number of blocked processes.
func (l *Latch) Waiting() int { return l.waiters.Len() }

// Wait lets p proceed now if the latch is set; otherwise p is queued and
// must park.
func (l *Latch) Wait(p *sim.Handle) sim.WaitRequest {
	if l.set {
		return sim.At(p.Now(), l.Reason)
	}
	l.waiters.Enqueue(p)
	return sim.Park
}

// Set sets the latch and wakes every waiter.
func (l *Latch) Set() error {
	l.set = true
	return wakeAll(l.waiters.DrainAll(), l.Reason)
}

// Clear resets the latch so later waits block again.
func (l *Latch) Clear() {
	l.set = false
}

func wakeAll(ps []*sim.Handle, reason sim.Priority) error {
	var errs []error
	for _, p := range ps {
		if err := p.Activate(p.Now(), reason); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
