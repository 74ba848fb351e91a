package sim

import "fmt"

// TaskOption configures a Task.
type TaskOption func(*Task)

// Forever restarts the body each time it returns nil, so a body describing
// one round of work runs round after round.
func Forever() TaskOption {
	return func(t *Task) {
		t.forever = true
	}
}

type taskStep struct {
	req WaitRequest
	err error
}

type taskUnwind struct{}

// Task runs a linear body as a Process. The body runs on its own goroutine
// but control is handed back and forth over unbuffered channels, so the body
// and the environment never run at the same time. Every Yielder call is the
// body's single suspension point for that step.
type Task struct {
	body    func(y *Yielder) error
	forever bool

	resume chan Wakeup
	yield  chan taskStep
	exited chan struct{}

	started  bool
	finished bool
	closed   bool

	y *Yielder
}

// NewTask wraps body as a Process. Prefer Spawn, which also registers the
// task and binds its handle.
func NewTask(body func(y *Yielder) error, opts ...TaskOption) *Task {
	t := &Task{
		body:   body,
		resume: make(chan Wakeup),
		yield:  make(chan taskStep),
		exited: make(chan struct{}),
	}
	t.y = &Yielder{task: t}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Spawn registers body as a task named name and returns its handle.
func Spawn(env *Environment, name string, body func(y *Yielder) error, opts ...TaskOption) *Handle {
	t := NewTask(body, opts...)
	h := env.Register(name, t)
	t.y.self = h
	return h
}

// Resume hands control to the body until its next wait.
func (t *Task) Resume(w Wakeup) (WaitRequest, error) {
	if t.closed {
		return WaitRequest{}, ErrTaskClosed
	}
	if t.finished {
		return WaitRequest{}, ErrProcessDone
	}
	if !t.started {
		t.started = true
		go t.run(w)
	} else {
		t.resume <- w
	}

	step := <-t.yield
	if step.err != nil {
		t.finished = true
	}
	return step.req, step.err
}

func (t *Task) run(first Wakeup) {
	defer close(t.exited)
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(taskUnwind); ok {
				return
			}
			t.yield <- taskStep{err: fmt.Errorf("panic in task: %v", r)}
		}
	}()

	t.y.wake = first
	for {
		if err := t.body(t.y); err != nil {
			t.yield <- taskStep{err: err}
			return
		}
		if !t.forever {
			t.yield <- taskStep{err: ErrProcessDone}
			return
		}
	}
}

// Close unwinds a suspended body, running its deferred calls, and waits for
// its goroutine to exit. It is safe to call more than once.
func (t *Task) Close() {
	if t.closed {
		return
	}
	t.closed = true
	if !t.started || t.finished {
		return
	}
	close(t.resume)
	<-t.exited
}

// Yielder is the body's view of the simulation.
type Yielder struct {
	task *Task
	self *Handle
	wake Wakeup
}

// Self returns the task's handle. It is nil for a task registered with
// Environment.Register instead of Spawn.
func (y *Yielder) Self() *Handle { return y.self }

// Now returns the time of the latest resumption.
func (y *Yielder) Now() Time { return y.wake.Time }

// Wakeup returns the latest resumption, including its wake reason.
func (y *Yielder) Wakeup() Wakeup { return y.wake }

// Wait suspends the body until the environment resumes it for req, or
// earlier if someone activates it.
func (y *Yielder) Wait(req WaitRequest) Wakeup {
	y.task.yield <- taskStep{req: req}
	w, ok := <-y.task.resume
	if !ok {
		panic(taskUnwind{})
	}
	y.wake = w
	return w
}

// Sleep waits for d units of simulated time with reason TimePassed.
func (y *Yielder) Sleep(d Time) Wakeup {
	return y.Wait(At(y.wake.Time+d, TimePassed))
}

// Park waits until someone activates the task.
func (y *Yielder) Park() Wakeup {
	return y.Wait(Park)
}
