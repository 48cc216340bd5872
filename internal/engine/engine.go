package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/ssvep/internal/protocol"
)

// Scheduler drives a session on one goroutine.
//
// Thread-safety model:
//   - Gate(), Run(), Session(): must be called from exactly one goroutine
//   - collaborators are only touched from that goroutine
//
// A Scheduler owns its Surface: the surface is closed when a run ends for
// any reason, including a protocol that fails validation. A scheduler
// cannot be reused afterwards.
type Scheduler struct {
	surface  Surface
	input    InputSource
	ticks    TickSource
	emitter  Emitter
	keys     KeyMap
	observer Observer
	logger   *slog.Logger

	closed bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithKeyMap replaces the default return/escape bindings.
func WithKeyMap(m KeyMap) Option {
	return func(s *Scheduler) {
		s.keys = m
	}
}

// WithObserver registers a state transition observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// New creates a Scheduler. All four collaborators are required; a missing
// surface is a fatal startup failure.
func New(surface Surface, input InputSource, ticks TickSource, emitter Emitter, opts ...Option) (*Scheduler, error) {
	switch {
	case surface == nil:
		return nil, missing(ErrCodeNoSurface, "presentation surface")
	case input == nil:
		return nil, missing(ErrCodeNoInput, "input source")
	case ticks == nil:
		return nil, missing(ErrCodeNoTicks, "tick source")
	case emitter == nil:
		return nil, missing(ErrCodeNoEmitter, "marker emitter")
	}

	s := &Scheduler{
		surface:  surface,
		input:    input,
		ticks:    ticks,
		emitter:  emitter,
		keys:     DefaultKeyMap(),
		observer: NopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Session shows the ready gate and then runs the phases.
//
// If the operator aborts during the gate, the surface is closed and the
// returned report has Gate == GateAborted and no phases: no marker is
// emitted.
func (s *Scheduler) Session(gate protocol.Gate, phases []protocol.Phase) (*Report, error) {
	if s.closed {
		return nil, errReused()
	}
	if err := protocol.ValidateGate(gate); err != nil {
		return nil, s.reject(err)
	}
	if err := protocol.Validate(phases); err != nil {
		return nil, s.reject(err)
	}

	outcome, err := s.Gate(gate)
	if err != nil {
		return nil, err
	}
	if outcome == GateAborted {
		return &Report{Gate: outcome, Phases: []PhaseReport{}, Aborted: true}, nil
	}

	report, err := s.Run(phases)
	if err != nil {
		return nil, err
	}
	report.Gate = outcome
	return report, nil
}

// Gate displays the ready message until its countdown elapses or the
// operator advances or aborts. Abort closes the surface.
func (s *Scheduler) Gate(g protocol.Gate) (GateOutcome, error) {
	if s.closed {
		return GateNotShown, errReused()
	}
	if err := protocol.ValidateGate(g); err != nil {
		return GateNotShown, s.reject(err)
	}

	s.logger.Info("ready gate", "message", g.Message, "duration", g.Duration)
	s.observer.GateEntered(g)

	ticker := s.ticks.Start()
	var (
		outcome GateOutcome
		elapsed time.Duration
	)
	for outcome == "" {
		tick := ticker.Next()
		elapsed = tick.Elapsed
		s.observer.Tick(GateIndex, tick, false)

		s.surface.DrawText(Text{Content: g.Message, Height: protocol.GateTextHeight})
		s.surface.Flip()

		switch s.keys.Resolve(s.input.Poll()) {
		case CommandAbort:
			outcome = GateAborted
		case CommandAdvance:
			outcome = GateSkipped
		default:
			if tick.Elapsed >= g.Duration {
				outcome = GateElapsed
			}
		}
	}

	s.observer.GateExited(outcome, elapsed)
	s.logger.Info("ready gate finished", "outcome", outcome, "elapsed", elapsed)

	if outcome == GateAborted {
		s.release()
	}
	return outcome, nil
}

// Run executes the phases in order and closes the surface when done.
//
// Run returns an error only for an invalid phase list or a reused
// scheduler. An invalid phase list also closes the surface. Operator abort
// is not an error: it is reported through Report.Aborted.
func (s *Scheduler) Run(phases []protocol.Phase) (*Report, error) {
	if s.closed {
		return nil, errReused()
	}
	if err := protocol.Validate(phases); err != nil {
		return nil, s.reject(err)
	}

	// Copy so the caller cannot reorder phases mid-run.
	run := make([]protocol.Phase, len(phases))
	copy(run, phases)

	report := &Report{Gate: GateNotShown, Phases: make([]PhaseReport, 0, len(run))}
	defer s.release()

	for i, p := range run {
		pr := s.runPhase(i, p)
		report.Phases = append(report.Phases, pr)
		if pr.Reason == ExitAborted {
			report.Aborted = true
			s.logger.Warn("run aborted by operator", "phase", p.Label, "remaining", len(run)-i-1)
			break
		}
	}

	return report, nil
}

// runPhase executes ENTERED → RUNNING → EXITED for one phase. The end
// marker is emitted exactly once, after the loop, for every exit reason.
func (s *Scheduler) runPhase(index int, p protocol.Phase) PhaseReport {
	s.emitter.Emit(p.StartCode)
	ticker := s.ticks.Start()
	s.observer.PhaseEntered(index, p)
	s.logger.Info("phase started", "index", index, "label", p.Label, "start_code", p.StartCode)

	pr := PhaseReport{
		Index:     index,
		Label:     p.Label,
		StartCode: p.StartCode,
		EndCode:   p.EndCode,
	}

	for pr.Reason == "" {
		tick := ticker.Next()
		on := StimulusOn(tick.Elapsed, p.FlickerHz)
		s.observer.Tick(index, tick, on)

		s.render(p.Label, on)

		pr.Frames++
		if on {
			pr.OnFrames++
		}
		pr.Elapsed = tick.Elapsed

		switch s.keys.Resolve(s.input.Poll()) {
		case CommandAbort:
			pr.Reason = ExitAborted
		case CommandAdvance:
			pr.Reason = ExitAdvanced
		default:
			if tick.Elapsed >= p.Duration {
				pr.Reason = ExitElapsed
			}
		}
	}

	s.emitter.Emit(p.EndCode)
	s.observer.PhaseExited(index, p, pr.Reason, pr.Elapsed)
	s.logger.Info("phase ended",
		"index", index,
		"label", p.Label,
		"end_code", p.EndCode,
		"reason", pr.Reason,
		"elapsed", pr.Elapsed,
		"frames", pr.Frames,
	)
	return pr
}

func (s *Scheduler) render(label string, on bool) {
	fill := FillOff
	if on {
		fill = FillOn
	}
	s.surface.DrawRect(Rect{Width: protocol.StimulusWidth, Height: protocol.StimulusHeight, Fill: fill})
	s.surface.DrawText(Text{Content: label, Height: protocol.LabelTextHeight})
	s.surface.Flip()
}

// reject closes the surface for a protocol that failed validation.
func (s *Scheduler) reject(err error) *RuntimeError {
	s.release()
	return newProtocolError(err)
}

// release closes the surface once.
func (s *Scheduler) release() {
	if s.closed {
		return
	}
	s.closed = true
	if err := s.surface.Close(); err != nil {
		s.logger.Error("closing surface", "error", err)
	}
}
