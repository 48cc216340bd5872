package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestClockTicks_StartsAtZero(t *testing.T) {
	c := &stubClock{now: time.Unix(1000, 0)}
	src := NewClockTicks(c)

	tk := src.Start()
	first := tk.Next()
	assert.Equal(t, 0, first.Frame)
	assert.Equal(t, time.Duration(0), first.Elapsed)

	c.advance(16 * time.Millisecond)
	second := tk.Next()
	assert.Equal(t, 1, second.Frame)
	assert.Equal(t, 16*time.Millisecond, second.Elapsed)
}

func TestClockTicks_RestartPerPhase(t *testing.T) {
	c := &stubClock{now: time.Unix(1000, 0)}
	src := NewClockTicks(c)

	tk := src.Start()
	c.advance(5 * time.Second)
	assert.Equal(t, 5*time.Second, tk.Next().Elapsed)

	tk = src.Start()
	next := tk.Next()
	assert.Equal(t, 0, next.Frame)
	assert.Equal(t, time.Duration(0), next.Elapsed)
}

func TestClockTicks_NeverDecreases(t *testing.T) {
	c := &stubClock{now: time.Unix(1000, 0)}
	tk := NewClockTicks(c).Start()

	c.advance(time.Second)
	assert.Equal(t, time.Second, tk.Next().Elapsed)

	c.advance(-500 * time.Millisecond)
	assert.Equal(t, time.Second, tk.Next().Elapsed, "elapsed must not go backwards")

	c.advance(-time.Hour)
	assert.Equal(t, time.Second, tk.Next().Elapsed, "elapsed must not go negative")
}

func TestClockTicks_NilClockUsesSystem(t *testing.T) {
	tk := NewClockTicks(nil).Start()
	a := tk.Next()
	b := tk.Next()
	assert.GreaterOrEqual(t, a.Elapsed, time.Duration(0))
	assert.GreaterOrEqual(t, b.Elapsed, a.Elapsed)
}

func TestStepTicks(t *testing.T) {
	src := StepTicks{Interval: 100 * time.Millisecond}
	tk := src.Start()
	for i := 0; i < 5; i++ {
		tick := tk.Next()
		assert.Equal(t, i, tick.Frame)
		assert.Equal(t, time.Duration(i)*100*time.Millisecond, tick.Elapsed)
	}

	assert.Equal(t, time.Duration(0), src.Start().Next().Elapsed)
}
