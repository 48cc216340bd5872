package store

import (
	"context"
	"fmt"
	"time"
)

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.Outcome == "" {
		run.Outcome = OutcomeRunning
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, stream_name, source_id, planned, started_at, outcome)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StreamName,
		run.SourceID,
		run.Planned,
		run.StartedAt.UnixMilli(),
		run.Outcome,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run.
// Returns ErrRunNotFound if the run does not exist.
func (s *Store) FinishRun(ctx context.Context, id, outcome string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET outcome = ?, finished_at = ? WHERE id = ?
	`, outcome, at.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// WriteMarker inserts a marker record.
// Uses ON CONFLICT DO NOTHING for idempotency - a duplicate (run_id, seq)
// is silently ignored. The run must exist (foreign key constraint).
func (s *Store) WriteMarker(ctx context.Context, m MarkerRecord) error {
	delivered := 0
	if m.Delivered {
		delivered = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markers (run_id, seq, code, offset_ns, delivered, error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		m.RunID,
		m.Seq,
		m.Code,
		int64(m.Offset),
		delivered,
		m.Error,
	)
	if err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}
