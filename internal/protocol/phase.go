package protocol

import (
	"fmt"
	"time"
)

// Phase is one timed segment of a session.
//
// FlickerHz of zero means the phase shows no flicker: the stimulus is held in
// the off state for the whole phase.
type Phase struct {
	StartCode int32
	EndCode   int32
	Label     string
	Duration  time.Duration
	FlickerHz float64
}

// Flickers reports whether the phase renders a flicker stimulus.
func (p Phase) Flickers() bool {
	return p.FlickerHz > 0
}

// String returns a compact description used in logs.
func (p Phase) String() string {
	if p.Flickers() {
		return fmt.Sprintf("%s [%d/%d, %s, %gHz]", p.Label, p.StartCode, p.EndCode, p.Duration, p.FlickerHz)
	}
	return fmt.Sprintf("%s [%d/%d, %s]", p.Label, p.StartCode, p.EndCode, p.Duration)
}

// Gate is the pre-run countdown shown before the first phase.
// No markers are emitted while the gate is displayed.
type Gate struct {
	Message  string
	Duration time.Duration
}
