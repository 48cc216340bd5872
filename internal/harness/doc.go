// Package harness runs stimulation sessions as deterministic scenarios.
//
// A scenario drives the real scheduler with synthetic frame ticks and
// scripted operator keys, then checks assertions against the emitted
// markers and the run report.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: abort_in_flicker
//	description: "Escape during 5 Hz stimulation ends the run"
//	frame_interval: 100ms
//	gate:
//	  duration: 300ms
//	default_run: true
//	input:
//	  - phase: 1
//	    at: 1s
//	    key: escape
//	assertions:
//	  - type: marker_sequence
//	    codes: [3, 13, 2, 12]
//	  - type: aborted
//	    expect: true
//
// Instead of default_run a scenario may list phases explicitly:
//
//	phases:
//	  - label: "5 Hz Stimulation"
//	    start_code: 2
//	    end_code: 12
//	    duration: 1s
//	    flicker_hz: 5
//
// Input phase -1 addresses the ready gate. A key is delivered on the first
// frame of its phase whose elapsed time is at or after "at".
//
// # Assertion Types
//
//   - marker_sequence: the exact list of emitted codes
//   - marker_count: how many times one code was emitted
//   - aborted: whether the operator aborted the session
//   - exit_reason: why a phase ended (elapsed, advanced, aborted)
//   - flicker_frames: how many frames of a phase showed the stimulus on
//
// # Deterministic Testing
//
// Every scenario runs with:
//   - a StepTicks source advancing frame_interval per frame
//   - a manual clock advanced on every flip, so marker offsets are exact
//   - a logical sequence counter for trace ordering
//   - an in-memory SQLite journal, checked against the outlet after the run
//
// Identical scenarios therefore produce byte-identical traces, which are
// compared against golden files in testdata/golden.
package harness
