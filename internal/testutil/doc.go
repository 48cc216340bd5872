// Package testutil provides deterministic collaborators for driving the
// scheduler in tests: a manual clock, a logical sequence counter, a surface
// that records every frame, and operator input scripted against phase time.
package testutil
