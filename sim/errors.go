package sim

import "errors"

var (
	// ErrProcessDone is returned by a process's Resume when its logic is
	// exhausted. It is the normal termination signal, not a failure.
	ErrProcessDone = errors.New("process done")

	// ErrAlreadyScheduled means a second event was requested for a process
	// that already has one.
	ErrAlreadyScheduled = errors.New("process already has a scheduled event")
	// ErrNotScheduled means an activation targeted a process with no event.
	ErrNotScheduled = errors.New("process has no scheduled event")
	// ErrUnknownProcess means the handle does not belong to this environment.
	ErrUnknownProcess = errors.New("unknown process")
	// ErrDeadlineInPast means RunUntil was asked to go backwards in time.
	ErrDeadlineInPast = errors.New("deadline is before current time")
	// ErrNotStarted means RunUntil was called before Start.
	ErrNotStarted = errors.New("environment not started")
	// ErrAlreadyStarted means Start was called twice.
	ErrAlreadyStarted = errors.New("environment already started")
	// ErrReentrantRun means RunUntil was called from inside a resumption.
	ErrReentrantRun = errors.New("run called from inside a running process")
	// ErrTaskClosed is returned when a closed task is resumed.
	ErrTaskClosed = errors.New("task closed")
)
