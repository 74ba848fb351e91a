package locks

import (
	"errors"
	"fmt"

	"github.com/procsim/procsim/sim"
)

// Semaphore is a counting semaphore. A release with waiters present hands the
// unit straight to the longest waiter without touching the count.
type Semaphore struct {
	// Reason is the wake reason delivered to a process that is granted a unit.
	Reason sim.Priority

	count   int
	waiters WaitQueue
}

// NewSemaphore creates a semaphore holding n units.
func NewSemaphore(n int) *Semaphore {
	if n < 0 {
		panic(fmt.Sprintf("NewSemaphore: negative count %d", n))
	}
	return &Semaphore{Reason: sim.TimeReached, count: n}
}

// Count returns the number of free units.
func (s *Semaphore) Count() int { return s.count }

// Waiting returns the number of blocked processes.
func (s *Semaphore) Waiting() int { return s.waiters.Len() }

// Acquire takes a unit for p if one is free; otherwise p is queued and must
// park.
func (s *Semaphore) Acquire(p *sim.Handle) sim.WaitRequest {
	if s.count > 0 {
		s.count--
		return sim.At(p.Now(), s.Reason)
	}
	s.waiters.Enqueue(p)
	return sim.Park
}

// Release returns a unit, waking the longest waiter that can still be woken.
// Waiters whose activation fails are dropped; if none is left the unit goes
// back to the count.
func (s *Semaphore) Release() error {
	var errs []error
	for next := s.waiters.Dequeue(); next != nil; next = s.waiters.Dequeue() {
		err := next.Activate(next.Now(), s.Reason)
		if err == nil {
			return errors.Join(errs...)
		}
		errs = append(errs, err)
	}
	s.count++
	return errors.Join(errs...)
}
