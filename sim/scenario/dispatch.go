package scenario

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/sim/pheap"
)

// ErrUnknownLoad means a load id was never created or was already reaped.
var ErrUnknownLoad = errors.New("unknown load")

// Load is a unit of work assigned to a worker by the Dispatcher.
type Load struct {
	ID       int
	Work     sim.Time
	Worker   *Worker
	Arrival  sim.Time
	Start    sim.Time
	End      sim.Time
	Finished bool
}

// Worker is a process that serves its queue of loads one at a time and
// parks when the queue is empty. It is a plain state machine rather than a
// Task: every resumption either completes the load in service or starts
// the next one.
type Worker struct {
	ID int

	handle  *sim.Handle
	queue   []*Load
	current *Load
}

// Handle returns the worker's process handle.
func (w *Worker) Handle() *sim.Handle { return w.handle }

// Backlog returns the number of loads waiting or in service.
func (w *Worker) Backlog() int {
	n := len(w.queue)
	if w.current != nil {
		n++
	}
	return n
}

// Resume implements sim.Process. A worker is only ever woken early while
// parked, so a wake-up with a load in service always means it is done.
func (w *Worker) Resume(wk sim.Wakeup) (sim.WaitRequest, error) {
	if w.current != nil {
		w.current.End = wk.Time
		w.current.Finished = true
		logrus.Debugf("[t %s] worker %d finishes load %d", wk.Time, w.ID, w.current.ID)
		w.current = nil
	}
	if len(w.queue) == 0 {
		return sim.Park, nil
	}
	w.current = w.queue[0]
	w.queue = w.queue[1:]
	w.current.Start = wk.Time
	logrus.Debugf("[t %s] worker %d starts load %d", wk.Time, w.ID, w.current.ID)
	return sim.At(wk.Time+w.current.Work, ReasonTaskDone), nil
}

// Dispatcher lets an external driver with its own clock hand loads to a
// pool of simulated workers. Each call advances the simulation to the
// driver's time and reports when the affected worker next needs attention,
// so the driver knows when to poll again.
type Dispatcher struct {
	env     *sim.Environment
	rng     *rand.Rand
	workers []*Worker
	loads   map[int]*Load
	nextID  int
}

// NewDispatcher registers n workers with env. The caller starts env.
func NewDispatcher(env *sim.Environment, n int, rng *rand.Rand) *Dispatcher {
	d := &Dispatcher{
		env:   env,
		rng:   rng,
		loads: make(map[int]*Load),
	}
	for i := 0; i < n; i++ {
		w := &Worker{ID: i}
		w.handle = env.Register(fmt.Sprintf("worker_%d", i), w)
		d.workers = append(d.workers, w)
	}
	return d
}

// Workers returns the worker pool.
func (d *Dispatcher) Workers() []*Worker { return d.workers }

// Pending returns the number of loads not yet reaped by CheckDone.
func (d *Dispatcher) Pending() int { return len(d.loads) }

// CreateLoad registers a load needing work time units and returns its id.
func (d *Dispatcher) CreateLoad(work sim.Time) int {
	l := &Load{ID: d.nextID, Work: work}
	d.nextID++
	d.loads[l.ID] = l
	return l.ID
}

// Load returns the load with the given id, or nil.
func (d *Dispatcher) Load(id int) *Load { return d.loads[id] }

// Process assigns the load to a random worker at time t, runs the
// simulation up to t and returns the worker's next event time.
func (d *Dispatcher) Process(t sim.Time, id int) (sim.Time, error) {
	l, ok := d.loads[id]
	if !ok {
		return 0, fmt.Errorf("process load %d: %w", id, ErrUnknownLoad)
	}
	w := d.workers[d.rng.Intn(len(d.workers))]
	l.Worker = w
	l.Arrival = t
	w.queue = append(w.queue, l)
	if w.handle.IsParked() {
		if err := w.handle.Activate(t, ReasonAssign); err != nil {
			return 0, err
		}
	}
	return d.env.RunUntil(t, w.handle)
}

// CheckDone runs the simulation up to t and reports whether the load has
// finished. A finished load is reaped. Otherwise the returned time is when
// its worker next wakes.
func (d *Dispatcher) CheckDone(t sim.Time, id int) (sim.Time, bool, error) {
	l, ok := d.loads[id]
	if !ok {
		return 0, false, fmt.Errorf("check load %d: %w", id, ErrUnknownLoad)
	}
	if l.Worker == nil {
		return 0, false, fmt.Errorf("check load %d: not yet processed", id)
	}
	next, err := d.env.RunUntil(t, l.Worker.handle)
	if err != nil {
		return 0, false, err
	}
	if l.Finished {
		delete(d.loads, id)
		return next, true, nil
	}
	return next, false, nil
}

// poll is a driver reminder to check on a load at a given time.
type poll struct {
	at   sim.Time
	load int
}

// pollTime is when the driver should look at a load again. A parked worker
// reports InfinityTime, which means the load already finished by now.
func pollTime(next, now sim.Time) sim.Time {
	if next >= sim.InfinityTime {
		return now
	}
	return max(next, now)
}

// runDispatch plays the external driver: loads arrive on the driver's clock,
// and the driver polls each one at the time the dispatcher says its worker
// next wakes, until every load is reaped.
func runDispatch(env *sim.Environment, cfg *Config, rng *PartitionedRNG, res *Result) error {
	dc := cfg.Dispatch
	draws := rng.ForSubsystem(SubsystemDispatch)
	d := NewDispatcher(env, dc.Workers, draws)
	if err := env.Start(); err != nil {
		return err
	}

	var arrivals []sim.Time
	var ids []int
	var t sim.Time
	for i := 0; i < dc.Loads; i++ {
		t += sim.Time(dc.Interarrival.Draw(draws))
		arrivals = append(arrivals, t)
		ids = append(ids, d.CreateLoad(sim.Time(dc.Work.Draw(draws))))
	}
	loads := make(map[int]*Load, len(ids))
	for _, id := range ids {
		loads[id] = d.Load(id)
	}

	polls := pheap.New(func(a, b poll) bool { return a.at < b.at })
	for len(arrivals) > 0 || polls.Len() > 0 {
		p, hasPoll := polls.Peek()
		if len(arrivals) > 0 && (!hasPoll || arrivals[0] <= p.at) {
			at, id := arrivals[0], ids[0]
			arrivals, ids = arrivals[1:], ids[1:]
			next, err := d.Process(at, id)
			if err != nil {
				return err
			}
			polls.Push(poll{at: pollTime(next, at), load: id})
			res.Counters["assigned"]++
			continue
		}

		polls.Pop()
		next, done, err := d.CheckDone(p.at, p.load)
		if err != nil {
			return err
		}
		res.Counters["polls"]++
		if !done {
			polls.Push(poll{at: pollTime(next, p.at), load: p.load})
			continue
		}
		l := loads[p.load]
		res.Completions = append(res.Completions, Completion{
			Name:    fmt.Sprintf("load_%d", l.ID),
			Worker:  l.Worker.handle.Name(),
			Arrival: l.Arrival,
			Start:   l.Start,
			End:     l.End,
		})
	}
	res.Counters["completed"] = len(res.Completions)
	return nil
}
