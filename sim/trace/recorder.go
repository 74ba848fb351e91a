package trace

import "github.com/procsim/procsim/sim"

// Recorder is a sim.Hook that appends an EventRecord to a Trace after every
// resumption.
type Recorder struct {
	trace *Trace
}

// Attach creates a Recorder for env and registers it as a hook. The trace is
// keyed by the environment's run id.
func Attach(env *sim.Environment, level Level) *Recorder {
	r := &Recorder{trace: NewTrace(env.ID(), level)}
	if level == LevelEvents {
		env.AcceptHook(r)
	}
	return r
}

// Trace returns the records collected so far.
func (r *Recorder) Trace() *Trace {
	return r.trace
}

// Func implements sim.Hook.
func (r *Recorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent || ctx.Process == nil {
		return
	}
	r.trace.Record(EventRecord{
		Time:      float64(ctx.Now),
		ProcessID: uint64(ctx.Item.Process),
		Process:   ctx.Process.Name(),
		Reason:    int(ctx.Item.Priority),
		Next:      float64(ctx.Process.NextTime()),
		Done:      ctx.Process.IsDone(),
	})
}
