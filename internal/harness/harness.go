package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/ssvep/internal/engine"
	"github.com/roach88/ssvep/internal/marker"
	"github.com/roach88/ssvep/internal/protocol"
	"github.com/roach88/ssvep/internal/store"
	"github.com/roach88/ssvep/internal/testutil"
)

// Epoch is the manual clock reading at the start of every scenario.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness records one scenario execution. It is the scheduler's observer,
// the emitter's journal and the input source's tap at the same time, so
// every trace entry is sequenced from one goroutine.
type Harness struct {
	seq    *testutil.Sequence
	clock  *testutil.ManualClock
	input  *testutil.ScriptedInput
	result *Result
	logger *slog.Logger

	phase    int
	elapsed  time.Duration
	frames   int
	onFrames int
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory journal. An error is
// returned only when the scenario cannot be executed; failed assertions
// are reported through Result.
//
// Execution flow:
//  1. Build the gate, phases and scripted input
//  2. Wire scheduler, emitter, recording surface and journal
//  3. Run the session (gate first when configured)
//  4. Cross-check the journal against the outlet
//  5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	interval, err := scenario.Interval()
	if err != nil {
		return nil, err
	}
	phases, err := scenario.BuildPhases()
	if err != nil {
		return nil, err
	}
	presses, err := buildPresses(scenario.Input)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		seq:    testutil.NewSequence(),
		clock:  testutil.NewManualClock(Epoch),
		input:  testutil.NewScriptedInput(presses...),
		result: NewResult(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		phase:  engine.GateIndex,
	}

	ctx := context.Background()
	runID := scenario.Name
	if err := st.BeginRun(ctx, store.Run{
		ID:         runID,
		StreamName: marker.StreamName,
		SourceID:   marker.DefaultSource,
		Planned:    len(phases),
		StartedAt:  h.clock.Now(),
	}); err != nil {
		return nil, err
	}

	surface := testutil.NewRecordingSurface()
	surface.OnFlip(func(int) { h.clock.Advance(interval) })

	outlet := marker.NewMemoryOutlet()
	emitter := marker.NewEmitter(outlet,
		marker.WithClock(h.clock),
		marker.WithJournal(marker.Journals(st.Journal(runID, h.logger), h)),
		marker.WithLogger(h.logger),
	)

	sched, err := engine.New(surface, h, engine.StepTicks{Interval: interval}, emitter,
		engine.WithObserver(engine.Observers(h.input, h)),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, err
	}

	var report *engine.Report
	if scenario.Gate != nil {
		gate, err := scenario.BuildGate()
		if err != nil {
			return nil, err
		}
		report, err = sched.Session(gate, phases)
		if err != nil {
			return nil, err
		}
	} else {
		report, err = sched.Run(phases)
		if err != nil {
			return nil, err
		}
	}

	result := h.result
	result.Report = report
	result.Markers = outlet.Codes()
	result.Frames = len(surface.Frames())

	if n := surface.Closes(); n != 1 {
		result.AddError(fmt.Sprintf("surface closed %d times, want 1", n))
	}

	outcome := store.OutcomeCompleted
	if report.Aborted {
		outcome = store.OutcomeAborted
	}
	if err := st.FinishRun(ctx, runID, outcome, h.clock.Now()); err != nil {
		return nil, err
	}
	if err := h.checkJournal(ctx, st, runID, result.Markers); err != nil {
		return nil, err
	}

	for _, a := range scenario.Assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

func buildPresses(steps []InputStep) ([]testutil.KeyPress, error) {
	presses := make([]testutil.KeyPress, 0, len(steps))
	for i, in := range steps {
		at, err := parseDuration(fmt.Sprintf("input[%d].at", i), in.At)
		if err != nil {
			return nil, err
		}
		presses = append(presses, testutil.KeyPress{Phase: in.Phase, At: at, Key: in.Key})
	}
	return presses, nil
}

// checkJournal verifies every marker the outlet received was journaled, in
// order and marked delivered.
func (h *Harness) checkJournal(ctx context.Context, st *store.Store, runID string, sent []int32) error {
	recs, err := st.ReadMarkers(ctx, runID)
	if err != nil {
		return err
	}
	journaled := make([]int32, 0, len(recs))
	for _, r := range recs {
		if !r.Delivered {
			h.result.AddError(fmt.Sprintf("journal: marker seq %d not delivered: %s", r.Seq, r.Error))
		}
		journaled = append(journaled, r.Code)
	}
	if !slices.Equal(journaled, sent) {
		h.result.AddError(fmt.Sprintf("journal: recorded %v, outlet received %v", journaled, sent))
	}
	return nil
}

func (h *Harness) add(ev TraceEvent) {
	ev.Seq = h.seq.Next()
	h.result.Trace = append(h.result.Trace, ev)
}

// Poll forwards the scripted input and traces every delivered key.
func (h *Harness) Poll() []string {
	keys := h.input.Poll()
	for _, k := range keys {
		h.add(TraceEvent{Type: EventKey, Phase: h.phase, Key: k, ElapsedMS: h.elapsed.Milliseconds()})
	}
	return keys
}

// Record implements marker.Journal.
func (h *Harness) Record(ev marker.Event, pushErr error) {
	h.add(TraceEvent{Type: EventMarker, Code: ev.Code, Label: protocol.CodeName(ev.Code), ElapsedMS: ev.Timestamp.Milliseconds()})
}

func (h *Harness) GateEntered(g protocol.Gate) {
	h.phase = engine.GateIndex
	h.elapsed = 0
	h.add(TraceEvent{Type: EventGateEnter, Phase: engine.GateIndex, Label: g.Message})
}

func (h *Harness) GateExited(outcome engine.GateOutcome, elapsed time.Duration) {
	h.add(TraceEvent{Type: EventGateExit, Phase: engine.GateIndex, Outcome: string(outcome), ElapsedMS: elapsed.Milliseconds()})
}

func (h *Harness) PhaseEntered(index int, p protocol.Phase) {
	h.phase = index
	h.elapsed = 0
	h.frames = 0
	h.onFrames = 0
	h.add(TraceEvent{Type: EventPhaseEnter, Phase: index, Label: p.Label})
}

func (h *Harness) Tick(index int, tick engine.Tick, on bool) {
	h.elapsed = tick.Elapsed
	if index == engine.GateIndex {
		return
	}
	h.frames++
	if on {
		h.onFrames++
	}
}

func (h *Harness) PhaseExited(index int, p protocol.Phase, reason engine.ExitReason, elapsed time.Duration) {
	h.add(TraceEvent{
		Type:      EventPhaseExit,
		Phase:     index,
		Outcome:   string(reason),
		Frames:    h.frames,
		OnFrames:  h.onFrames,
		ElapsedMS: elapsed.Milliseconds(),
	})
}
