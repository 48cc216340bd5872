package testutil

import (
	"time"

	"github.com/roach88/ssvep/internal/engine"
	"github.com/roach88/ssvep/internal/protocol"
)

var (
	_ engine.InputSource = (*ScriptedInput)(nil)
	_ engine.Observer    = (*ScriptedInput)(nil)
)

// KeyPress is one scripted key: it is delivered on the first poll in phase
// Phase (engine.GateIndex for the ready gate) whose tick elapsed is >= At.
type KeyPress struct {
	Phase int
	At    time.Duration
	Key   string
}

// ScriptedInput replays key presses against phase time.
//
// It must be registered as an observer of the same scheduler it feeds, so it
// knows which phase and tick the next Poll belongs to. Presses for a phase
// that exits before their time are never delivered.
type ScriptedInput struct {
	engine.NopObserver

	presses   []KeyPress
	delivered []bool
	phase     int
	elapsed   time.Duration
	active    bool
}

// NewScriptedInput creates an input that delivers presses in order.
func NewScriptedInput(presses ...KeyPress) *ScriptedInput {
	return &ScriptedInput{
		presses:   presses,
		delivered: make([]bool, len(presses)),
	}
}

func (in *ScriptedInput) GateEntered(protocol.Gate) {
	in.enter(engine.GateIndex)
}

func (in *ScriptedInput) PhaseEntered(index int, _ protocol.Phase) {
	in.enter(index)
}

func (in *ScriptedInput) Tick(index int, tick engine.Tick, _ bool) {
	in.phase = index
	in.elapsed = tick.Elapsed
	in.active = true
}

func (in *ScriptedInput) enter(index int) {
	in.phase = index
	in.elapsed = 0
	in.active = false
}

// Poll returns the due presses for the current phase.
func (in *ScriptedInput) Poll() []string {
	if !in.active {
		return nil
	}
	var keys []string
	for i, p := range in.presses {
		if in.delivered[i] || p.Phase != in.phase || p.At > in.elapsed {
			continue
		}
		in.delivered[i] = true
		keys = append(keys, p.Key)
	}
	return keys
}

// Pending returns the presses that were never delivered.
func (in *ScriptedInput) Pending() []KeyPress {
	var out []KeyPress
	for i, p := range in.presses {
		if !in.delivered[i] {
			out = append(out, p)
		}
	}
	return out
}
