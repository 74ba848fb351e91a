// Implements the WaitQueue shared by every primitive: the FIFO of processes
// parked on it, woken strictly in arrival order.

package locks

import (
	"strings"

	"github.com/procsim/procsim/sim"
)

// WaitQueue represents a FIFO queue of processes blocked on a primitive.
type WaitQueue struct {
	queue []*sim.Handle
}

// Enqueue adds a process to the back of the wait queue.
func (wq *WaitQueue) Enqueue(p *sim.Handle) {
	if p == nil {
		panic("Enqueue: process must not be nil")
	}
	wq.queue = append(wq.queue, p)
}

// Len returns the number of processes in the queue.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Peek returns the process at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Peek() *sim.Handle {
	if len(wq.queue) == 0 {
		return nil
	}
	return wq.queue[0]
}

// Dequeue removes the process at the front of the queue.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Dequeue() *sim.Handle {
	if len(wq.queue) == 0 {
		return nil
	}
	p := wq.queue[0]
	wq.queue[0] = nil
	wq.queue = wq.queue[1:]
	return p
}

// DrainAll empties the queue and returns its former contents in order.
func (wq *WaitQueue) DrainAll() []*sim.Handle {
	all := wq.queue
	wq.queue = nil
	return all
}

// Contains reports whether p is waiting in the queue.
func (wq *WaitQueue) Contains(p *sim.Handle) bool {
	for _, q := range wq.queue {
		if q == p {
			return true
		}
	}
	return false
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, p := range wq.queue {
		sb.WriteString(p.String())
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
