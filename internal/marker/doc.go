// Package marker emits integer event markers on the telemetry stream.
//
// The Emitter is fire-and-forget: it pushes a single-sample [code] to an
// Outlet, logs the send with its offset from the emitter epoch, and never
// reports failure to the caller. Push errors are logged and, when a Journal
// is attached, recorded alongside the event so a run can be audited later.
//
// The stream identity is fixed for compatibility with existing recorders:
//
//	name: PsychoPyMarkers  type: Markers  channels: 1  format: int32
//
// Only the source id is configurable.
//
// WSOutlet serves the stream over WebSocket. Each connection first receives a
// JSON header describing the stream, then one JSON array per sample:
//
//	{"type":"stream_header","stream":{"name":"PsychoPyMarkers",...}}
//	[3]
//	[13]
//
// There are no sequence numbers or acknowledgements. Consumers order samples
// by arrival.
package marker
