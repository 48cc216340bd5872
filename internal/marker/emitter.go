package marker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/ssvep/internal/engine"
)

// Outlet is the outbound telemetry channel. Push sends one sample and must
// not block indefinitely.
type Outlet interface {
	Push(sample []int32) error
}

// Journal records each emitted marker with its delivery outcome.
// pushErr is nil when the outlet accepted the sample.
type Journal interface {
	Record(ev Event, pushErr error)
}

var _ engine.Emitter = (*Emitter)(nil)

// Stats counts emitted markers.
type Stats struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Emitter stamps markers and pushes them to an Outlet.
// It is used from the scheduler goroutine only.
type Emitter struct {
	outlet  Outlet
	clock   engine.Clock
	epoch   time.Time
	journal Journal
	logger  *slog.Logger
	stats   Stats
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithClock sets the clock used for timestamps. Default: engine.SystemClock.
func WithClock(c engine.Clock) EmitterOption {
	return func(e *Emitter) {
		e.clock = c
	}
}

// WithJournal attaches a delivery journal.
func WithJournal(j Journal) EmitterOption {
	return func(e *Emitter) {
		e.journal = j
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EmitterOption {
	return func(e *Emitter) {
		e.logger = l
	}
}

// NewEmitter creates an emitter whose epoch is the current clock reading.
func NewEmitter(outlet Outlet, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		outlet: outlet,
		clock:  engine.SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.epoch = e.clock.Now()
	return e
}

// Emit pushes code as a single-sample marker. Failures are logged and
// journaled but never returned.
func (e *Emitter) Emit(code int32) {
	ev := Event{Code: code, Timestamp: e.clock.Now().Sub(e.epoch)}

	err := e.outlet.Push([]int32{code})
	if err != nil {
		e.stats.Failed++
		e.logger.Warn("marker push failed", "code", code, "error", err)
	} else {
		e.stats.Sent++
	}
	e.logger.Info("trigger sent", "code", code, "at", fmt.Sprintf("%.2fs", ev.Seconds()))

	if e.journal != nil {
		e.journal.Record(ev, err)
	}
}

// Stats returns emission counters.
func (e *Emitter) Stats() Stats {
	return e.stats
}

// Journals fans Record out to several journals in order.
func Journals(js ...Journal) Journal {
	return multiJournal(js)
}

type multiJournal []Journal

func (m multiJournal) Record(ev Event, pushErr error) {
	for _, j := range m {
		j.Record(ev, pushErr)
	}
}
