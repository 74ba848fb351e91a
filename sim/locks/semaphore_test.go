package locks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/sim"
)

func TestNewSemaphore_NegativePanics(t *testing.T) {
	assert.Panics(t, func() { NewSemaphore(-1) })
}

func TestSemaphore_ReleasesThenAcquires_NeverBlock(t *testing.T) {
	// GIVEN an empty semaphore released N times
	const n = 7
	_, ps := parkedProcs(t, n)
	s := NewSemaphore(0)
	for i := 0; i < n; i++ {
		require.NoError(t, s.Release())
	}
	assert.Equal(t, n, s.Count())

	// WHEN N processes acquire
	// THEN none of them blocks and the count is back to zero
	for _, p := range ps {
		assert.False(t, s.Acquire(p).IsPark(), "%s blocked", p)
	}
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, 0, s.Waiting())
}

func TestSemaphore_ReleaseWithWaiter_HandsOffWithoutCounting(t *testing.T) {
	_, ps := parkedProcs(t, 3)
	s := NewSemaphore(1)
	s.Reason = 4

	assert.False(t, s.Acquire(ps[0]).IsPark())
	assert.True(t, s.Acquire(ps[1]).IsPark())
	assert.True(t, s.Acquire(ps[2]).IsPark())

	require.NoError(t, s.Release())
	assert.Equal(t, 0, s.Count(), "unit went to the waiter")
	assert.False(t, ps[1].IsParked())
	assert.True(t, ps[2].IsParked())

	require.NoError(t, s.Release())
	require.NoError(t, s.Release())
	assert.Equal(t, 1, s.Count())
	assert.False(t, ps[2].IsParked())
}

func TestSemaphore_UnitsConserved(t *testing.T) {
	// GIVEN a semaphore with 2 units and 5 processes contending
	_, ps := parkedProcs(t, 5)
	s := NewSemaphore(2)
	holding := 0
	for _, p := range ps {
		if !s.Acquire(p).IsPark() {
			holding++
		}
	}
	assert.Equal(t, 2, holding)
	assert.Equal(t, 3, s.Waiting())

	// WHEN every unit is released five times over
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Release())
	}

	// THEN free units plus granted units equal the initial units plus releases
	granted := 2 + 3
	assert.Equal(t, 2+5, s.Count()+granted)
}

func TestSemaphore_ProducerConsumerWithConditions(t *testing.T) {
	// GIVEN a consumer waiting on a semaphore and two producers that each
	// hand over 5 tasks, waiting on a per-task condition for completion
	env := sim.NewEnvironment()
	type job struct {
		name string
		done *Condition
	}
	var queue []job
	sem := NewSemaphore(0)
	var completed []string

	sim.Spawn(env, "consumer", func(y *sim.Yielder) error {
		y.Wait(sem.Acquire(y.Self()))
		j := queue[0]
		queue = queue[1:]
		y.Sleep(10)
		completed = append(completed, j.name)
		return j.done.Set()
	}, sim.Forever())
	produced := map[string]int{}
	for _, name := range []string{"a", "b"} {
		sim.Spawn(env, name, func(y *sim.Yielder) error {
			for i := 0; i < 5; i++ {
				c := NewWaitEvent()
				queue = append(queue, job{name: y.Self().Name(), done: c})
				if err := sem.Release(); err != nil {
					return err
				}
				y.Wait(c.Wait(y.Self()))
				produced[y.Self().Name()]++
			}
			return nil
		})
	}
	defer env.Close()

	// WHEN the simulation runs to quiescence
	require.NoError(t, env.Run())

	// THEN all 10 tasks completed back to back, none dropped
	assert.Len(t, completed, 10)
	assert.Equal(t, map[string]int{"a": 5, "b": 5}, produced)
	assert.Equal(t, sim.Time(100), env.CurrentTime())
	assert.Equal(t, 0, sem.Count())
}

func TestSemaphore_Release_DeadWaiterDoesNotLoseUnit(t *testing.T) {
	// GIVEN an empty semaphore whose only waiter has finished
	ps, done := withFinished(t, 1)
	s := NewSemaphore(0)
	assert.True(t, s.Acquire(done).IsPark())

	// WHEN a unit is released
	err := s.Release()

	// THEN the wake failure is reported and the unit is kept for the next taker
	assert.ErrorIs(t, err, sim.ErrNotScheduled)
	assert.Equal(t, 1, s.Count())
	assert.False(t, s.Acquire(ps[0]).IsPark())
}
