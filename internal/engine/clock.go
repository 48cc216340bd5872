package engine

import "time"

// Clock reads wall time. Implementations must include a monotonic reading
// so that Sub is unaffected by wall clock adjustments.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current time with its monotonic reading.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Tick is one render frame within a phase.
type Tick struct {
	// Frame counts ticks since the phase started, starting at 0.
	Frame int
	// Elapsed is time since the phase started. Never negative and never
	// decreasing within one Ticker.
	Elapsed time.Duration
}

// Ticker yields the ticks of one phase. The sequence is unbounded; the
// scheduler stops pulling when the phase exits.
type Ticker interface {
	Next() Tick
}

// TickSource starts a fresh Ticker for each phase (and for the gate).
// Elapsed time of the new Ticker starts at zero.
type TickSource interface {
	Start() Ticker
}

// ClockTicks derives ticks from a Clock. The display flip paces the loop,
// so ClockTicks only measures time; it never sleeps.
type ClockTicks struct {
	clock Clock
}

// NewClockTicks creates a tick source reading the given clock.
// A nil clock selects SystemClock.
func NewClockTicks(c Clock) *ClockTicks {
	if c == nil {
		c = SystemClock{}
	}
	return &ClockTicks{clock: c}
}

// Start resets the phase clock.
func (s *ClockTicks) Start() Ticker {
	return &clockTicker{clock: s.clock, start: s.clock.Now()}
}

type clockTicker struct {
	clock Clock
	start time.Time
	frame int
	last  time.Duration
}

func (t *clockTicker) Next() Tick {
	elapsed := t.clock.Now().Sub(t.start)
	if elapsed < t.last {
		elapsed = t.last
	}
	t.last = elapsed

	tick := Tick{Frame: t.frame, Elapsed: elapsed}
	t.frame++
	return tick
}

// StepTicks is a synthetic tick source advancing a fixed interval per frame.
// Frame n reports Elapsed = n * Interval, so runs are fully deterministic.
type StepTicks struct {
	Interval time.Duration
}

// Start returns a ticker beginning at zero.
func (s StepTicks) Start() Ticker {
	return &stepTicker{interval: s.Interval}
}

type stepTicker struct {
	interval time.Duration
	frame    int
}

func (t *stepTicker) Next() Tick {
	tick := Tick{Frame: t.frame, Elapsed: time.Duration(t.frame) * t.interval}
	t.frame++
	return tick
}
