package store

import "time"

// Run outcomes.
const (
	OutcomeRunning   = "running"
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
	OutcomeFailed    = "failed"
)

// Run is one recorded session.
type Run struct {
	ID         string     `json:"id"`
	StreamName string     `json:"stream_name"`
	SourceID   string     `json:"source_id"`
	Planned    int        `json:"planned_phases"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Outcome    string     `json:"outcome"`
}

// MarkerRecord is one journaled marker.
type MarkerRecord struct {
	RunID     string        `json:"run_id"`
	Seq       int64         `json:"seq"`
	Code      int32         `json:"code"`
	Offset    time.Duration `json:"offset_ns"`
	Delivered bool          `json:"delivered"`
	Error     string        `json:"error,omitempty"`
}
