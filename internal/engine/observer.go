package engine

import (
	"time"

	"github.com/roach88/ssvep/internal/protocol"
)

// Observers fans callbacks out to several observers in order.
func Observers(obs ...Observer) Observer {
	return multiObserver(obs)
}

type multiObserver []Observer

func (m multiObserver) GateEntered(g protocol.Gate) {
	for _, o := range m {
		o.GateEntered(g)
	}
}

func (m multiObserver) GateExited(outcome GateOutcome, elapsed time.Duration) {
	for _, o := range m {
		o.GateExited(outcome, elapsed)
	}
}

func (m multiObserver) PhaseEntered(index int, p protocol.Phase) {
	for _, o := range m {
		o.PhaseEntered(index, p)
	}
}

func (m multiObserver) Tick(index int, tick Tick, on bool) {
	for _, o := range m {
		o.Tick(index, tick, on)
	}
}

func (m multiObserver) PhaseExited(index int, p protocol.Phase, reason ExitReason, elapsed time.Duration) {
	for _, o := range m {
		o.PhaseExited(index, p, reason, elapsed)
	}
}
