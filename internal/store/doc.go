// Package store provides the SQLite marker journal.
//
// The journal is the optional delivery-confirmation log for the marker
// stream. Each session is a run; each emitted marker is a row recording the
// code, its offset from the emitter epoch, and whether the outlet accepted
// it. The journal is write-only during a session and never feeds back into
// scheduling.
//
// # Tables
//
//   - runs: one row per session (id, stream identity, outcome)
//   - markers: append-only, keyed by (run_id, seq)
//
// # Ordering
//
// Markers are ordered by the journal's logical seq, assigned in emission
// order. Wall clock columns (started_at, finished_at) are informational and
// never used for ordering. All marker queries use ORDER BY seq ASC.
//
// # Connection
//
// Pragmas are passed as go-sqlite3 DSN parameters so that every pooled
// connection gets them: WAL journaling, synchronous=NORMAL, a 5 second busy
// timeout and foreign key enforcement. PRAGMA user_version counts applied
// migrations; a journal written by a newer build is rejected.
package store
