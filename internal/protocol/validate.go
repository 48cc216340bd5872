package protocol

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError reports the first invalid phase in a list.
type ValidationError struct {
	Index   int
	Label   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("gate: %s", e.Message)
	}
	return fmt.Sprintf("phase[%d] %q: %s", e.Index, e.Label, e.Message)
}

// ErrEmptyRun is returned by Validate for a run with no phases.
var ErrEmptyRun = errors.New("run has no phases")

// Validate checks every phase in order and returns the first problem found.
func Validate(phases []Phase) error {
	if len(phases) == 0 {
		return ErrEmptyRun
	}
	for i, p := range phases {
		if err := validatePhase(p); err != "" {
			return &ValidationError{Index: i, Label: p.Label, Message: err}
		}
	}
	return nil
}

// ValidateGate checks the gate definition.
func ValidateGate(g Gate) error {
	if g.Duration < 0 {
		return &ValidationError{Index: -1, Message: fmt.Sprintf("negative duration %s", g.Duration)}
	}
	return nil
}

func validatePhase(p Phase) string {
	switch {
	case p.StartCode <= 0:
		return fmt.Sprintf("start code must be positive, got %d", p.StartCode)
	case p.EndCode <= 0:
		return fmt.Sprintf("end code must be positive, got %d", p.EndCode)
	case p.StartCode == p.EndCode:
		return fmt.Sprintf("start and end code are both %d", p.StartCode)
	case p.Duration < 0:
		return fmt.Sprintf("negative duration %s", p.Duration)
	case p.FlickerHz < 0 || math.IsNaN(p.FlickerHz) || math.IsInf(p.FlickerHz, 0):
		return fmt.Sprintf("invalid flicker frequency %v", p.FlickerHz)
	}
	return ""
}
