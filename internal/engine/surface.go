package engine

import (
	"time"

	"github.com/roach88/ssvep/internal/protocol"
)

// Fill is the binary palette of the flicker stimulus.
type Fill int

const (
	FillOff Fill = iota
	FillOn
)

func (f Fill) String() string {
	if f == FillOn {
		return "on"
	}
	return "off"
}

// Rect is the centred stimulus rectangle.
type Rect struct {
	Width  int
	Height int
	Fill   Fill
}

// Text is a centred line of text.
type Text struct {
	Content string
	Height  int
}

// Surface is the presentation target.
//
// Flip presents the drawn frame and blocks until the next frame may be drawn.
// Close releases the surface; the scheduler calls it at most once.
type Surface interface {
	DrawRect(r Rect)
	DrawText(t Text)
	Flip()
	Close() error
}

// InputSource returns the keys pressed since the previous Poll.
// Poll must not block.
type InputSource interface {
	Poll() []string
}

// Emitter pushes a marker code to the telemetry stream.
// Emit is fire-and-forget: delivery failures are not reported to the caller.
type Emitter interface {
	Emit(code int32)
}

// GateIndex is the phase index reported to observers for gate ticks.
const GateIndex = -1

// Observer receives scheduler state transitions. Callbacks run on the
// scheduler goroutine, between the steps of a tick, and must not block.
type Observer interface {
	GateEntered(g protocol.Gate)
	GateExited(outcome GateOutcome, elapsed time.Duration)
	PhaseEntered(index int, p protocol.Phase)
	Tick(index int, tick Tick, on bool)
	PhaseExited(index int, p protocol.Phase, reason ExitReason, elapsed time.Duration)
}

// NopObserver ignores every callback. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) GateEntered(protocol.Gate)                                   {}
func (NopObserver) GateExited(GateOutcome, time.Duration)                       {}
func (NopObserver) PhaseEntered(int, protocol.Phase)                            {}
func (NopObserver) Tick(int, Tick, bool)                                        {}
func (NopObserver) PhaseExited(int, protocol.Phase, ExitReason, time.Duration) {}
