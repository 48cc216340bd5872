package harness

import "github.com/roach88/ssvep/internal/engine"

// Trace event types.
const (
	EventGateEnter  = "gate_enter"
	EventGateExit   = "gate_exit"
	EventPhaseEnter = "phase_enter"
	EventPhaseExit  = "phase_exit"
	EventMarker     = "marker"
	EventKey        = "key"
)

// TraceEvent is one entry of a scenario trace. Which fields are meaningful
// depends on Type.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"type"`
	Phase     int    `json:"phase"`
	Label     string `json:"label,omitempty"`
	Code      int32  `json:"code,omitempty"`
	Key       string `json:"key,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Frames    int    `json:"frames,omitempty"`
	OnFrames  int    `json:"on_frames,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace contains gate, phase, key and marker events in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Markers is the code sequence received by the outlet.
	Markers []int32 `json:"markers"`

	// Report is the scheduler's run report.
	Report *engine.Report `json:"report"`

	// Frames is the number of presented frames, gate included.
	Frames int `json:"frames"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Markers: []int32{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
