package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ticker wakes every period and records the times it was resumed at.
func ticker(period Time, seen *[]Time) ProcessFunc {
	return func(w Wakeup) (WaitRequest, error) {
		if !w.First {
			*seen = append(*seen, w.Time)
		}
		return At(w.Time+period, TimePassed), nil
	}
}

// parker parks forever and records every wake-up it gets.
func parker(seen *[]Wakeup) ProcessFunc {
	return func(w Wakeup) (WaitRequest, error) {
		if !w.First {
			*seen = append(*seen, w)
		}
		return Park, nil
	}
}

func TestEnvironment_Start_PrimesEveryProcessOnce(t *testing.T) {
	// GIVEN two registered processes
	env := NewEnvironment()
	var wakes []Wakeup
	record := ProcessFunc(func(w Wakeup) (WaitRequest, error) {
		wakes = append(wakes, w)
		return At(5, TimeReached), nil
	})
	a := env.Register("a", record)
	b := env.Register("b", record)
	assert.Equal(t, 0, env.Pending())

	// WHEN the environment is started
	require.NoError(t, env.Start())

	// THEN each was resumed once with First set and is now scheduled
	require.Len(t, wakes, 2)
	for _, w := range wakes {
		assert.True(t, w.First)
		assert.Equal(t, Time(0), w.Time)
	}
	assert.Equal(t, Time(5), a.NextTime())
	assert.Equal(t, Time(5), b.NextTime())
	assert.Equal(t, 2, env.Pending())
	assert.ErrorIs(t, env.Start(), ErrAlreadyStarted)
}

func TestEnvironment_RunUntil_UsageFaults(t *testing.T) {
	env := NewEnvironment()
	_, err := env.RunUntil(10, nil)
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, env.Start())
	_, err = env.RunUntil(10, nil)
	require.NoError(t, err)

	_, err = env.RunUntil(5, nil)
	assert.ErrorIs(t, err, ErrDeadlineInPast)
	assert.Equal(t, Time(10), env.CurrentTime())

	// a deadline within tolerance of now is not in the past
	_, err = env.RunUntil(9.9995, nil)
	assert.NoError(t, err)
	assert.Equal(t, Time(10), env.CurrentTime())

	other := NewEnvironment()
	foreign := other.Register("x", parker(new([]Wakeup)))
	_, err = env.RunUntil(20, foreign)
	assert.ErrorIs(t, err, ErrUnknownProcess)
}

func TestEnvironment_RunUntil_DeliversPriorityAsWakeReason(t *testing.T) {
	env := NewEnvironment()
	var got []Priority
	step := 0
	env.Register("p", ProcessFunc(func(w Wakeup) (WaitRequest, error) {
		if !w.First {
			got = append(got, w.Reason)
		}
		step++
		switch step {
		case 1:
			return At(1, 42), nil
		case 2:
			return At(2, -7), nil
		default:
			return WaitRequest{}, ErrProcessDone
		}
	}))
	require.NoError(t, env.Start())

	_, err := env.RunUntil(100, nil)

	require.NoError(t, err)
	assert.Equal(t, []Priority{42, -7}, got)
}

func TestEnvironment_RunUntil_OrdersByTimeThenPriority(t *testing.T) {
	env := NewEnvironment()
	var order []string
	mk := func(name string, at Time, pr Priority) ProcessFunc {
		return func(w Wakeup) (WaitRequest, error) {
			if w.First {
				return At(at, pr), nil
			}
			order = append(order, name)
			return WaitRequest{}, ErrProcessDone
		}
	}
	env.Register("late", mk("late", 3, PriorityMin))
	env.Register("low", mk("low", 2, 5))
	env.Register("high", mk("high", 2.0004, 1))
	env.Register("first", mk("first", 1, PriorityMax-1))
	require.NoError(t, env.Start())

	_, err := env.RunUntil(10, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "high", "low", "late"}, order)
}

func TestEnvironment_Termination_IsNotRescheduled(t *testing.T) {
	env := NewEnvironment()
	calls := 0
	h := env.Register("once", ProcessFunc(func(w Wakeup) (WaitRequest, error) {
		calls++
		if w.First {
			return At(1, TimePassed), nil
		}
		return WaitRequest{}, ErrProcessDone
	}))
	require.NoError(t, env.Start())

	next, err := env.RunUntil(10, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, h.IsDone())
	assert.Equal(t, InfinityTime, h.NextTime())
	assert.Equal(t, InfinityTime, next)
	assert.ErrorIs(t, h.Activate(10, TimeReached), ErrNotScheduled)
}

func TestEnvironment_ProcessErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	env := NewEnvironment()
	env.Register("bad", ProcessFunc(func(w Wakeup) (WaitRequest, error) {
		if w.First {
			return At(3, TimePassed), nil
		}
		return WaitRequest{}, boom
	}))
	require.NoError(t, env.Start())

	_, err := env.RunUntil(10, nil)

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad(p1)")
	assert.Equal(t, Time(3), env.CurrentTime())
}

func TestEnvironment_CurrentTimeIsMonotonic(t *testing.T) {
	// GIVEN processes ticking at incommensurate periods
	env := NewEnvironment()
	var a, b []Time
	env.Register("a", ticker(0.7, &a))
	env.Register("b", ticker(1.3, &b))
	require.NoError(t, env.Start())

	// WHEN RunUntil is called with non-decreasing deadlines
	prev := env.CurrentTime()
	for _, d := range []Time{0, 0.5, 0.5, 3, 3.0001, 7.2, 20} {
		_, err := env.RunUntil(d, nil)
		require.NoError(t, err)

		// THEN current time never decreases and lands on the deadline
		assert.GreaterOrEqual(t, float64(env.CurrentTime()), float64(prev))
		assert.True(t, env.Tolerance().Equal(d, env.CurrentTime()) || env.CurrentTime() > d)
		prev = env.CurrentTime()
	}
	for i := 1; i < len(a); i++ {
		assert.Less(t, float64(a[i-1]), float64(a[i]))
	}
	assert.Len(t, b, 15)
}

func TestEnvironment_RunUntil_FocusReturnsOwnNextTime(t *testing.T) {
	// GIVEN a busy ticker and a process W whose next event is after the deadline
	env := NewEnvironment()
	var ticks []Time
	env.Register("ticker", ticker(1, &ticks))
	w := env.Register("w", ProcessFunc(func(wk Wakeup) (WaitRequest, error) {
		return At(50, TimeReached), nil
	}))
	require.NoError(t, env.Start())

	// WHEN running to 10 with W in focus
	next, err := env.RunUntil(10, w)

	// THEN all global events up to 10 ran, yet the result is W's own time
	require.NoError(t, err)
	assert.Len(t, ticks, 10)
	assert.Equal(t, Time(10), env.CurrentTime())
	assert.Equal(t, Time(50), next)

	// and without focus the global next time is returned
	next, err = env.RunUntil(10, nil)
	require.NoError(t, err)
	assert.Equal(t, Time(11), next)
}

func TestEnvironment_RunUntil_FocusParkedReturnsInfinity(t *testing.T) {
	env := NewEnvironment()
	var ticks []Time
	env.Register("ticker", ticker(1, &ticks))
	w := env.Register("w", parker(new([]Wakeup)))
	require.NoError(t, env.Start())

	next, err := env.RunUntil(3, w)

	require.NoError(t, err)
	assert.Equal(t, InfinityTime, next)
	assert.True(t, w.IsParked())
}

func TestEnvironment_ParkedProcessesAreNeverResumedByTime(t *testing.T) {
	env := NewEnvironment()
	var wakes []Wakeup
	h := env.Register("idle", parker(&wakes))
	require.NoError(t, env.Start())

	next, err := env.RunUntil(InfinityTime, nil)

	require.NoError(t, err)
	assert.Empty(t, wakes)
	assert.True(t, h.IsParked())
	assert.Equal(t, InfinityTime, next)
}

func TestEnvironment_Activate_WakesParkedProcess(t *testing.T) {
	// GIVEN a parked worker
	env := NewEnvironment()
	var wakes []Wakeup
	worker := env.Register("worker", parker(&wakes))
	require.NoError(t, env.Start())
	_, err := env.RunUntil(5, nil)
	require.NoError(t, err)

	// WHEN an external driver activates it in the past with reason 10
	require.NoError(t, env.Activate(worker, 2, 10))
	assert.False(t, worker.IsParked())
	assert.Equal(t, Time(5), worker.NextTime())

	// a later activation does not move it back
	require.NoError(t, worker.Activate(8, 11))
	assert.Equal(t, Time(5), worker.NextTime())

	next, err := env.RunUntil(5, worker)

	// THEN it runs at the current time with the activation's reason
	require.NoError(t, err)
	require.Len(t, wakes, 1)
	assert.Equal(t, Wakeup{Time: 5, Reason: 10}, wakes[0])
	assert.Equal(t, InfinityTime, next)
	assert.ErrorIs(t, env.Activate(nil, 1, 1), ErrUnknownProcess)
}

func TestEnvironment_Hooks_WrapEveryResumption(t *testing.T) {
	ctrl := gomock.NewController(t)
	hook := NewMockHook(ctrl)

	env := NewEnvironment()
	var ticks []Time
	p := env.Register("ticker", ticker(2, &ticks))
	env.AcceptHook(hook)
	require.NoError(t, env.Start())

	var positions []*HookPos
	hook.EXPECT().Func(gomock.Any()).Times(6).Do(func(ctx HookCtx) {
		positions = append(positions, ctx.Pos)
		assert.Same(t, env, ctx.Domain)
		assert.Same(t, p, ctx.Process)
		assert.Equal(t, ctx.Now, ctx.Item.Time)
		if ctx.Pos == HookPosAfterEvent {
			assert.Equal(t, ctx.Now, ticks[len(ticks)-1])
		}
	})

	_, err := env.RunUntil(6, nil)

	require.NoError(t, err)
	assert.Equal(t, []*HookPos{
		HookPosBeforeEvent, HookPosAfterEvent,
		HookPosBeforeEvent, HookPosAfterEvent,
		HookPosBeforeEvent, HookPosAfterEvent,
	}, positions)
	assert.Equal(t, 1, env.NumHooks())
}

func TestEnvironment_LateRegistration_PrimedAtNow(t *testing.T) {
	env := NewEnvironment()
	var ticks []Time
	env.Register("ticker", ticker(1, &ticks))
	require.NoError(t, env.Start())
	_, err := env.RunUntil(4, nil)
	require.NoError(t, err)

	var wakes []Wakeup
	late := env.Register("", ProcessFunc(func(w Wakeup) (WaitRequest, error) {
		wakes = append(wakes, w)
		return Park, nil
	}))
	assert.Equal(t, "p2", late.Name())
	assert.Equal(t, Time(4), late.NextTime())

	_, err = env.RunUntil(4, nil)

	require.NoError(t, err)
	require.Len(t, wakes, 1)
	assert.True(t, wakes[0].First)
	assert.Equal(t, Time(4), wakes[0].Time)
	assert.True(t, late.IsParked())
}

func TestEnvironment_Run_StopsWhenOnlyParkedRemain(t *testing.T) {
	env := NewEnvironment()
	n := 0
	env.Register("countdown", ProcessFunc(func(w Wakeup) (WaitRequest, error) {
		n++
		if n > 3 {
			return Park, nil
		}
		return At(w.Time+2.5, TimePassed), nil
	}))

	require.NoError(t, env.Run())

	assert.Equal(t, 4, n)
	assert.Equal(t, Time(7.5), env.CurrentTime())
}

func TestEnvironment_Run_WithStopTime(t *testing.T) {
	env := NewEnvironment(WithStopTime(10), WithTolerance(1e-6))
	var ticks []Time
	env.Register("ticker", ticker(3, &ticks))

	require.NoError(t, env.Run())

	assert.Equal(t, []Time{3, 6, 9}, ticks)
	assert.Equal(t, Time(10), env.CurrentTime())
	assert.Equal(t, Tolerance(1e-6), env.Tolerance())
}

func TestEnvironment_RunUntil_FromInsideProcessFails(t *testing.T) {
	env := NewEnvironment()
	var inner error
	env.Register("nested", ProcessFunc(func(w Wakeup) (WaitRequest, error) {
		if w.First {
			return At(1, TimePassed), nil
		}
		_, inner = env.RunUntil(5, nil)
		return WaitRequest{}, ErrProcessDone
	}))
	require.NoError(t, env.Start())

	_, err := env.RunUntil(2, nil)

	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrReentrantRun)
}

func TestEnvironment_IDIsUniquePerRun(t *testing.T) {
	a := NewEnvironment()
	b := NewEnvironment()
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
