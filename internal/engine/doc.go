// Package engine implements the SSVEP phase scheduler.
//
// The scheduler walks an ordered list of protocol.Phase values. Each phase
// goes through three states:
//
//	ENTERED  emit start marker, restart the tick source
//	RUNNING  render/poll loop, one iteration per display frame
//	EXITED   emit end marker
//
// ENTERED and EXITED are instantaneous. RUNNING ends when the phase duration
// elapses, when the operator advances, or when the operator aborts.
//
// ARCHITECTURE:
//
// Single-Threaded Tick Loop:
// One goroutine samples the tick, computes the flicker state, renders,
// flips the surface and polls operator input, in that order, every frame.
// Surface.Flip is the only blocking call, so the tick rate is the display
// refresh rate. There are no sleeps, locks or timers in this package.
//
// Per-Tick Algorithm:
// 1. Ticker.Next() returns elapsed time since phase entry
// 2. StimulusOn(elapsed, hz) selects the on/off fill
// 3. Stimulus rect and label are drawn, then Surface.Flip()
// 4. InputSource.Poll() keys are resolved to one Command
// 5. Abort: end marker, close surface, stop the run
// 6. Advance: end marker, continue with the next phase
// 7. elapsed >= duration: end marker, continue with the next phase
//
// INVARIANTS:
//
// Marker Pairing:
// Every phase that is entered emits exactly one start marker and exactly one
// end marker, and no phase is entered before the previous one has exited.
// The aborted phase still emits its end marker so recordings stay balanced.
//
// Abort Precedence:
// When a single poll returns both advance and abort keys, abort wins.
//
// Cancellation:
// There is no context or cancellation token. Abort is the only way to stop a
// run early, and it is observed at frame granularity.
package engine
