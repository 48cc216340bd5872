package engine

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// squareWave evaluates t mod (1/f) < 1/(2f) in exact rationals.
func squareWave(elapsed time.Duration, hz float64) bool {
	t := big.NewRat(int64(elapsed), int64(time.Second))
	period := new(big.Rat).Inv(new(big.Rat).SetFloat64(hz))

	cycles := new(big.Rat).Quo(t, period)
	whole := new(big.Int).Quo(cycles.Num(), cycles.Denom())
	phase := new(big.Rat).Sub(t, new(big.Rat).Mul(new(big.Rat).SetInt(whole), period))

	half := new(big.Rat).Quo(period, big.NewRat(2, 1))
	return phase.Cmp(half) < 0
}

func TestStimulusOn_AlwaysOnAtStart(t *testing.T) {
	for _, hz := range []float64{0.5, 1, 5, 7, 12.5, 60, 120} {
		assert.True(t, StimulusOn(0, hz), "hz=%v", hz)
	}
}

func TestStimulusOn_NoFrequencyAlwaysOff(t *testing.T) {
	for ms := 0; ms <= 30000; ms += 7 {
		assert.False(t, StimulusOn(time.Duration(ms)*time.Millisecond, 0))
	}
	assert.False(t, StimulusOn(time.Second, -3))
	assert.False(t, StimulusOn(time.Second, math.Inf(1)))
	assert.False(t, StimulusOn(time.Second, math.NaN()))
}

func TestStimulusOn_FiveHz(t *testing.T) {
	tests := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{50 * time.Millisecond, true},
		{99 * time.Millisecond, true},
		{100 * time.Millisecond, false},
		{150 * time.Millisecond, false},
		{199 * time.Millisecond, false},
		{200 * time.Millisecond, true},
		{300 * time.Millisecond, false},
		{29*time.Second + 950*time.Millisecond, false},
		{29*time.Second + 850*time.Millisecond, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StimulusOn(tt.at, 5), "at %s", tt.at)
	}
}

// 1/7 s is not a whole number of nanoseconds, so the edges below only come
// out right when the product 7*t is evaluated exactly.
func TestStimulusOn_SevenHzEdges(t *testing.T) {
	tests := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{100 * time.Millisecond, false},
		{300 * time.Millisecond, true},
		{500 * time.Millisecond, false},
		{time.Second, true},
		{1500 * time.Millisecond, false},
		{2 * time.Second, true},
		{29*time.Second + 500*time.Millisecond, false},
		{142857142 * time.Nanosecond, false},
		{142857143 * time.Nanosecond, true},
		{71428571 * time.Nanosecond, true},
		{71428572 * time.Nanosecond, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StimulusOn(tt.at, 7), "at %s", tt.at)
	}
}

func TestStimulusOn_FractionalFrequency(t *testing.T) {
	tests := []struct {
		at   time.Duration
		want bool
	}{
		{20 * time.Millisecond, true},
		{39 * time.Millisecond, true},
		{40 * time.Millisecond, false},
		{79 * time.Millisecond, false},
		{80 * time.Millisecond, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StimulusOn(tt.at, 12.5), "at %s", tt.at)
	}
}

func TestStimulusOn_MatchesSquareWave(t *testing.T) {
	grids := []time.Duration{time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond}
	for _, hz := range []float64{3, 5, 7, 9, 11, 12.5, 13} {
		for _, step := range grids {
			for at := time.Duration(0); at < 30*time.Second; at += step {
				if !assert.Equal(t, squareWave(at, hz), StimulusOn(at, hz), "hz=%v t=%s", hz, at) {
					return
				}
			}
		}
	}
}

func TestStimulusOn_MatchesSquareWaveNearEdges(t *testing.T) {
	for _, hz := range []float64{3, 7, 9, 11, 13} {
		for k := int64(0); k < int64(60*hz); k++ {
			// k-th half-period edge, rounded down to a nanosecond.
			edge := time.Duration(k * int64(time.Second) / int64(2*hz))
			for d := -100 * time.Nanosecond; d <= 100*time.Nanosecond; d += 7 * time.Nanosecond {
				at := edge + d
				if at < 0 {
					continue
				}
				if !assert.Equal(t, squareWave(at, hz), StimulusOn(at, hz), "hz=%v t=%s", hz, at) {
					return
				}
			}
		}
	}
}

func TestStimulusOn_HalfDutyCycle(t *testing.T) {
	on := 0
	const frames = 6000
	for i := 0; i < frames; i++ {
		if StimulusOn(time.Duration(i)*time.Millisecond, 7) {
			on++
		}
	}
	assert.InDelta(t, frames/2, on, 10)
}

func TestStimulusOn_NegativeElapsed(t *testing.T) {
	assert.False(t, StimulusOn(-time.Millisecond, 5))
}
