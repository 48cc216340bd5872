// Package protocol defines the fixed SSVEP session protocol.
//
// A session is an ordered list of Phase values preceded by a ready Gate.
// Phases are plain values: the scheduler receives a slice, copies it, and
// consumes each phase exactly once per run.
//
// # Marker Codes
//
// The code table is a compatibility contract with downstream analysis and
// must not change:
//
//	Phase                   Start  End
//	Static image / Ending     1     11
//	SSVEP 5 Hz                2     12
//	Rest                      3     13
//	SSVEP 7 Hz                4     14
//	(reserved)                -     99
//
// # Default Run
//
// DefaultRun returns Rest, 5 Hz, Rest, 7 Hz, Rest, Ending at 30 seconds each,
// and DefaultGate returns the 7 second "Ready go....." countdown. Changing the
// order or timings is a code change, not configuration.
package protocol
