package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTolerance_NearEqualValuesAreNeitherLess(t *testing.T) {
	tol := DefaultTolerance
	a := Time(0.1 + 0.2)
	b := Time(0.3)

	assert.True(t, tol.Equal(a, b))
	assert.False(t, tol.Less(a, b))
	assert.False(t, tol.Less(b, a))
	assert.True(t, tol.LessEq(a, b))
	assert.True(t, tol.LessEq(b, a))
}

func TestTolerance_RepeatedAdditionStaysEqual(t *testing.T) {
	// GIVEN 0.1 added a thousand times
	var acc Time
	for i := 0; i < 1000; i++ {
		acc += 0.1
	}

	// THEN it compares equal to 100 even though the float differs
	assert.NotEqual(t, Time(100), acc)
	assert.True(t, DefaultTolerance.Equal(acc, 100))
}

func TestTolerance_DistinctValuesOrder(t *testing.T) {
	tol := DefaultTolerance
	assert.True(t, tol.Less(1, 1.01))
	assert.False(t, tol.Less(1.01, 1))
	assert.False(t, tol.LessEq(1.01, 1))
}

func TestEvent_Before_TimeThenPriority(t *testing.T) {
	tol := DefaultTolerance
	early := Event{Time: 1, Priority: 10}
	late := Event{Time: 2, Priority: -10}
	assert.True(t, early.Before(late, tol))
	assert.False(t, late.Before(early, tol))

	// equal time within tolerance falls back to priority
	a := Event{Time: 5.0004, Priority: 1}
	b := Event{Time: 5, Priority: 2}
	assert.True(t, a.Before(b, tol))
	assert.False(t, b.Before(a, tol))

	// equal time and priority are unordered
	c := Event{Time: 5, Priority: 1, Process: 9}
	assert.False(t, a.Before(c, tol))
	assert.False(t, c.Before(a, tol))
}

func TestWaitRequest_Park(t *testing.T) {
	assert.True(t, Park.IsPark())
	assert.Equal(t, PriorityMax, Park.Priority)
	assert.False(t, At(10, TimePassed).IsPark())
	assert.Equal(t, "inf", InfinityTime.String())
	assert.Equal(t, "1.500", Time(1.5).String())
}
