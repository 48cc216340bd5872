package store

import (
	"context"
	"log/slog"

	"github.com/roach88/ssvep/internal/marker"
)

var _ marker.Journal = (*Journal)(nil)

// Journal records a single run's markers. It assigns seq in call order and
// is used from the scheduler goroutine only.
//
// Write failures are logged and dropped: the journal must never disturb the
// marker stream it is auditing.
type Journal struct {
	store  *Store
	runID  string
	seq    int64
	logger *slog.Logger
}

// Journal returns a marker journal for an existing run.
func (s *Store) Journal(runID string, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{store: s, runID: runID, logger: logger}
}

// RunID returns the journaled run.
func (j *Journal) RunID() string {
	return j.runID
}

// Record implements marker.Journal.
func (j *Journal) Record(ev marker.Event, pushErr error) {
	j.seq++
	rec := MarkerRecord{
		RunID:     j.runID,
		Seq:       j.seq,
		Code:      ev.Code,
		Offset:    ev.Timestamp,
		Delivered: pushErr == nil,
	}
	if pushErr != nil {
		rec.Error = pushErr.Error()
	}
	if err := j.store.WriteMarker(context.Background(), rec); err != nil {
		j.logger.Error("journal write failed", "run", j.runID, "seq", rec.Seq, "code", ev.Code, "error", err)
	}
}
