package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ssvep/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes the emitted markers to help debug the failure.
type AssertionError struct {
	Type     string  // Assertion type for categorization
	Expected string  // Human-readable expected outcome
	Actual   string  // Human-readable actual outcome
	Markers  []int32 // Emitted markers for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "  Markers: %v", e.Markers)

	return buf.String()
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertMarkerSequence:
		return assertMarkerSequence(r, a)
	case AssertMarkerCount:
		return assertMarkerCount(r, a)
	case AssertAborted:
		return assertAborted(r, a)
	case AssertExitReason:
		return assertExitReason(r, a)
	case AssertFlickerFrames:
		return assertFlickerFrames(r, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertMarkerSequence checks the outlet received exactly the given codes.
func assertMarkerSequence(r *Result, a Assertion) error {
	if slices.Equal(r.Markers, a.Codes) {
		return nil
	}
	return &AssertionError{
		Type:     AssertMarkerSequence,
		Expected: fmt.Sprintf("%v", a.Codes),
		Actual:   fmt.Sprintf("%v", r.Markers),
		Markers:  r.Markers,
	}
}

// assertMarkerCount checks one code was emitted exactly Count times.
func assertMarkerCount(r *Result, a Assertion) error {
	n := 0
	for _, c := range r.Markers {
		if c == a.Code {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertMarkerCount,
		Expected: fmt.Sprintf("code %d emitted %d times", a.Code, a.Count),
		Actual:   fmt.Sprintf("emitted %d times", n),
		Markers:  r.Markers,
	}
}

func assertAborted(r *Result, a Assertion) error {
	if r.Report.Aborted == *a.Expect {
		return nil
	}
	return &AssertionError{
		Type:     AssertAborted,
		Expected: fmt.Sprintf("aborted=%t", *a.Expect),
		Actual:   fmt.Sprintf("aborted=%t", r.Report.Aborted),
		Markers:  r.Markers,
	}
}

func assertExitReason(r *Result, a Assertion) error {
	pr, err := phaseReport(r, a)
	if err != nil {
		return err
	}
	if pr.Reason == engine.ExitReason(a.Reason) {
		return nil
	}
	return &AssertionError{
		Type:     AssertExitReason,
		Expected: fmt.Sprintf("phase %d exit %s", a.Phase, a.Reason),
		Actual:   fmt.Sprintf("phase %d exit %s", a.Phase, pr.Reason),
		Markers:  r.Markers,
	}
}

func assertFlickerFrames(r *Result, a Assertion) error {
	pr, err := phaseReport(r, a)
	if err != nil {
		return err
	}
	if pr.OnFrames == a.On {
		return nil
	}
	return &AssertionError{
		Type:     AssertFlickerFrames,
		Expected: fmt.Sprintf("phase %d on for %d frames", a.Phase, a.On),
		Actual:   fmt.Sprintf("on for %d of %d frames", pr.OnFrames, pr.Frames),
		Markers:  r.Markers,
	}
}

// phaseReport finds the report of the asserted phase. A phase that never
// started fails the assertion.
func phaseReport(r *Result, a Assertion) (engine.PhaseReport, error) {
	for _, pr := range r.Report.Phases {
		if pr.Index == a.Phase {
			return pr, nil
		}
	}
	return engine.PhaseReport{}, &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("phase %d to run", a.Phase),
		Actual:   fmt.Sprintf("%d phases ran", len(r.Report.Phases)),
		Markers:  r.Markers,
	}
}
