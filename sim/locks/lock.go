// Package locks provides synchronization primitives for simulated processes.
//
// Every primitive is a small state machine over a FIFO WaitQueue. None of
// them block a goroutine: Acquire and Wait return the sim.WaitRequest the
// caller should yield. A caller that may proceed gets a request for the
// current time; a caller that must block is enqueued and gets sim.Park.
// Blocked processes are woken later through sim.Handle.Activate at the
// current time, with the primitive's Reason as their wake reason.
//
// Thread-safety: NOT thread-safe. The kernel runs one process at a time, so
// primitives are only ever mutated from inside a single resumption.
package locks

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim"
)

var (
	// ErrNotHeld means a lock was released while nobody held it.
	ErrNotHeld = errors.New("lock not held")
	// ErrNotOwner means a lock was released by a process that does not hold it.
	ErrNotOwner = errors.New("lock held by another process")
)

// holder is the owner bookkeeping shared by Lock and RLock.
type holder struct {
	// Reason is the wake reason delivered to a process when it is granted the
	// lock, whether immediately or after waiting.
	Reason sim.Priority

	owner   *sim.Handle
	waiters WaitQueue
}

// Owner returns the holding process, or nil.
func (h *holder) Owner() *sim.Handle { return h.owner }

// Locked reports whether the lock is held.
func (h *holder) Locked() bool { return h.owner != nil }

// Waiting returns the number of blocked processes.
func (h *holder) Waiting() int { return h.waiters.Len() }

func (h *holder) checkOwner(p *sim.Handle) error {
	if h.owner == nil {
		return fmt.Errorf("release by %v: %w", p, ErrNotHeld)
	}
	if h.owner != p {
		return fmt.Errorf("release by %v, held by %s: %w", p, h.owner, ErrNotOwner)
	}
	return nil
}

// handOff passes ownership to the longest waiter that can still be woken, or
// leaves the lock free. Waiters whose activation fails are dropped and their
// errors returned.
func (h *holder) handOff() error {
	h.owner = nil
	var errs []error
	for next := h.waiters.Dequeue(); next != nil; next = h.waiters.Dequeue() {
		if err := next.Activate(next.Now(), h.Reason); err != nil {
			errs = append(errs, err)
			continue
		}
		h.owner = next
		logrus.Tracef("[t %s] lock handed to %s", next.Now(), next)
		break
	}
	return errors.Join(errs...)
}

// Lock is an exclusive, non-reentrant lock. Waiters are granted ownership in
// arrival order.
type Lock struct {
	holder
}

// NewLock creates an unheld lock that wakes waiters with sim.TimeReached.
func NewLock() *Lock {
	return &Lock{holder{Reason: sim.TimeReached}}
}

// Acquire takes the lock for p if it is free; otherwise p is queued and must
// park. Acquiring a lock p already holds would deadlock and panics.
func (l *Lock) Acquire(p *sim.Handle) sim.WaitRequest {
	if l.owner == nil {
		l.owner = p
		return sim.At(p.Now(), l.Reason)
	}
	if l.owner == p {
		panic(fmt.Sprintf("Lock.Acquire: %s already holds the lock", p))
	}
	l.waiters.Enqueue(p)
	return sim.Park
}

// Release gives up p's ownership and hands the lock to the next waiter.
func (l *Lock) Release(p *sim.Handle) error {
	if err := l.checkOwner(p); err != nil {
		return err
	}
	return l.handOff()
}

// RLock is a reentrant lock: the owner may acquire it again, and it is handed
// on only after as many releases as acquires.
type RLock struct {
	holder
	depth int
}

// NewRLock creates an unheld reentrant lock.
func NewRLock() *RLock {
	return &RLock{holder: holder{Reason: sim.TimeReached}}
}

// Depth returns how many times the owner holds the lock.
func (l *RLock) Depth() int { return l.depth }

// Acquire takes the lock for p, or deepens p's hold if it already owns it;
// otherwise p is queued and must park.
func (l *RLock) Acquire(p *sim.Handle) sim.WaitRequest {
	switch l.owner {
	case nil:
		l.owner = p
		l.depth = 1
	case p:
		l.depth++
	default:
		l.waiters.Enqueue(p)
		return sim.Park
	}
	return sim.At(p.Now(), l.Reason)
}

// Release undoes one Acquire by p. The last release hands the lock on.
func (l *RLock) Release(p *sim.Handle) error {
	if err := l.checkOwner(p); err != nil {
		return err
	}
	l.depth--
	if l.depth > 0 {
		return nil
	}
	err := l.handOff()
	if l.owner != nil {
		l.depth = 1
	}
	return err
}
