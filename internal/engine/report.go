package engine

import "time"

// ExitReason records why a phase left RUNNING.
type ExitReason string

const (
	ExitElapsed  ExitReason = "elapsed"
	ExitAdvanced ExitReason = "advanced"
	ExitAborted  ExitReason = "aborted"
)

// GateOutcome records how the ready gate ended.
type GateOutcome string

const (
	GateNotShown GateOutcome = "none"
	GateElapsed  GateOutcome = "elapsed"
	GateSkipped  GateOutcome = "skipped"
	GateAborted  GateOutcome = "aborted"
)

// PhaseReport summarizes one executed phase.
type PhaseReport struct {
	Index     int           `json:"index"`
	Label     string        `json:"label"`
	StartCode int32         `json:"start_code"`
	EndCode   int32         `json:"end_code"`
	Reason    ExitReason    `json:"reason"`
	Frames    int           `json:"frames"`
	OnFrames  int           `json:"on_frames"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// Report summarizes a session. Phases lists only phases that were entered.
type Report struct {
	Gate    GateOutcome   `json:"gate"`
	Phases  []PhaseReport `json:"phases"`
	Aborted bool          `json:"aborted"`
}

// Completed reports whether every planned phase ran and the run was not
// aborted.
func (r *Report) Completed(planned int) bool {
	return !r.Aborted && len(r.Phases) == planned
}

// MarkerCodes returns the start/end codes in emission order.
func (r *Report) MarkerCodes() []int32 {
	codes := make([]int32, 0, 2*len(r.Phases))
	for _, p := range r.Phases {
		codes = append(codes, p.StartCode, p.EndCode)
	}
	return codes
}
