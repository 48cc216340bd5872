package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where golden traces live, relative to the test package.
const GoldenDir = "testdata/golden"

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any, keeping only
// the fields that are meaningful for each event type.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq":  ev.Seq,
			"type": ev.Type,
		}
		switch ev.Type {
		case EventGateEnter, EventPhaseEnter:
			m["phase"] = ev.Phase
			m["label"] = ev.Label
		case EventGateExit:
			m["phase"] = ev.Phase
			m["outcome"] = ev.Outcome
			m["elapsed_ms"] = ev.ElapsedMS
		case EventPhaseExit:
			m["phase"] = ev.Phase
			m["outcome"] = ev.Outcome
			m["frames"] = ev.Frames
			m["on_frames"] = ev.OnFrames
			m["elapsed_ms"] = ev.ElapsedMS
		case EventMarker:
			m["code"] = ev.Code
			m["elapsed_ms"] = ev.ElapsedMS
			if ev.Label != "" {
				m["label"] = ev.Label
			}
		case EventKey:
			m["phase"] = ev.Phase
			m["key"] = ev.Key
			m["elapsed_ms"] = ev.ElapsedMS
		}
		traceList[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// Snapshot returns the canonical JSON trace of a result.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	return MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
