package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/sim"
)

func TestRecorder_RecordsEveryFiredEvent(t *testing.T) {
	// GIVEN a process that wakes at 5 and 10 and then terminates
	env := sim.NewEnvironment()
	sim.Spawn(env, "worker", func(y *sim.Yielder) error {
		y.Sleep(5)
		y.Sleep(5)
		return nil
	})
	rec := Attach(env, LevelEvents)
	defer env.Close()

	// WHEN the run completes
	require.NoError(t, env.Run())

	// THEN both wake-ups are recorded in order with the run id
	tr := rec.Trace()
	assert.Equal(t, env.ID(), tr.RunID)
	require.Equal(t, 2, tr.Len())
	assert.Equal(t, 5.0, tr.Events[0].Time)
	assert.Equal(t, "worker", tr.Events[0].Process)
	assert.Equal(t, int(sim.TimePassed), tr.Events[0].Reason)
	assert.Equal(t, 10.0, tr.Events[0].Next)
	assert.False(t, tr.Events[0].Done)
	assert.Equal(t, 10.0, tr.Events[1].Time)
	assert.True(t, tr.Events[1].Done)
}

func TestRecorder_LevelNone_NotAttached(t *testing.T) {
	env := sim.NewEnvironment()
	rec := Attach(env, LevelNone)

	assert.Equal(t, 0, env.NumHooks())
	assert.Equal(t, 0, rec.Trace().Len())
}
