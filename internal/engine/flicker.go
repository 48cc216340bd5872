package engine

import (
	"math"
	"math/big"
	"time"
)

// maxIntegerHz bounds the integer fast path so 2*hz*elapsed fits in int64
// for any elapsed time below about 2.9 years.
const maxIntegerHz = 50

// StimulusOn reports whether the flicker stimulus is in the on state at the
// given time since phase start.
//
// The wave is phase-locked to the phase clock: it is on while
// t mod (1/f) < 1/(2f), which is when floor(2*f*t) is even. The product is
// evaluated exactly, so half-period edges that fall on a tick are resolved
// the same way for every frequency. It is always on at elapsed == 0.
// Without a frequency the stimulus is always off.
func StimulusOn(elapsed time.Duration, hz float64) bool {
	if elapsed < 0 || !(hz > 0) || math.IsInf(hz, 0) {
		return false
	}
	return halfPeriods(elapsed, hz)%2 == 0
}

// halfPeriods returns floor(2*hz*elapsed) with elapsed in seconds.
func halfPeriods(elapsed time.Duration, hz float64) int64 {
	if hz <= maxIntegerHz && hz == math.Trunc(hz) {
		return 2 * int64(hz) * int64(elapsed) / int64(time.Second)
	}

	// hz is a float64, so its exact value is a dyadic rational.
	x := new(big.Rat).SetFloat64(hz)
	x.Mul(x, big.NewRat(int64(elapsed), int64(time.Second)))
	x.Mul(x, big.NewRat(2, 1))
	n := new(big.Int).Quo(x.Num(), x.Denom())
	// Only the parity matters.
	return int64(n.Bit(0))
}
