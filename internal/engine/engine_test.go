package engine

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ssvep/internal/protocol"
)

// eventLog records emits and surface closes in one ordered list.
type eventLog struct {
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

type stubEmitter struct {
	log   *eventLog
	codes []int32
}

func (e *stubEmitter) Emit(code int32) {
	e.codes = append(e.codes, code)
	e.log.add("emit:%d", code)
}

type frame struct {
	fill  Fill
	rect  bool
	texts []string
}

type stubSurface struct {
	log     *eventLog
	frames  []frame
	pending frame
	closes  int
}

func (s *stubSurface) DrawRect(r Rect) {
	s.pending.rect = true
	s.pending.fill = r.Fill
}

func (s *stubSurface) DrawText(t Text) {
	s.pending.texts = append(s.pending.texts, t.Content)
}

func (s *stubSurface) Flip() {
	s.frames = append(s.frames, s.pending)
	s.pending = frame{}
}

func (s *stubSurface) Close() error {
	s.closes++
	s.log.add("close")
	return nil
}

// scriptedInput returns keys by poll number, counted across gate and phases.
type scriptedInput struct {
	batches map[int][]string
	polls   int
}

func (in *scriptedInput) Poll() []string {
	keys := in.batches[in.polls]
	in.polls++
	return keys
}

type fixture struct {
	log     *eventLog
	emitter *stubEmitter
	surface *stubSurface
	input   *scriptedInput
	sched   *Scheduler
}

func newFixture(t *testing.T, interval time.Duration, batches map[int][]string, opts ...Option) *fixture {
	t.Helper()
	log := &eventLog{}
	f := &fixture{
		log:     log,
		emitter: &stubEmitter{log: log},
		surface: &stubSurface{log: log},
		input:   &scriptedInput{batches: batches},
	}
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	sched, err := New(f.surface, f.input, StepTicks{Interval: interval}, f.emitter, opts...)
	require.NoError(t, err)
	f.sched = sched
	return f
}

// assertPaired checks that markers form non-interleaved start/end pairs
// matching the phases in the report.
func assertPaired(t *testing.T, codes []int32, report *Report) {
	t.Helper()
	require.Len(t, codes, 2*len(report.Phases), "one start and one end per entered phase")
	for i, p := range report.Phases {
		assert.Equal(t, p.StartCode, codes[2*i], "phase %d start", i)
		assert.Equal(t, p.EndCode, codes[2*i+1], "phase %d end", i)
	}
}

func TestScheduler_New_MissingCollaborators(t *testing.T) {
	surface := &stubSurface{log: &eventLog{}}
	input := &scriptedInput{}
	ticks := StepTicks{Interval: time.Millisecond}
	emitter := &stubEmitter{log: &eventLog{}}

	tests := []struct {
		name string
		call func() (*Scheduler, error)
		code RuntimeErrorCode
	}{
		{"surface", func() (*Scheduler, error) { return New(nil, input, ticks, emitter) }, ErrCodeNoSurface},
		{"input", func() (*Scheduler, error) { return New(surface, nil, ticks, emitter) }, ErrCodeNoInput},
		{"ticks", func() (*Scheduler, error) { return New(surface, input, nil, emitter) }, ErrCodeNoTicks},
		{"emitter", func() (*Scheduler, error) { return New(surface, input, ticks, nil) }, ErrCodeNoEmitter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.call()
			assert.Nil(t, s)
			var re *RuntimeError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.code, re.Code)
		})
	}
}

func TestScheduler_DefaultRunMarkerSequence(t *testing.T) {
	f := newFixture(t, time.Second, nil)

	report, err := f.sched.Run(protocol.DefaultRun())
	require.NoError(t, err)

	assert.Equal(t, []int32{3, 13, 2, 12, 3, 13, 4, 14, 3, 13, 1, 11}, f.emitter.codes)
	assert.Equal(t, f.emitter.codes, report.MarkerCodes())
	assert.True(t, report.Completed(6))
	assert.False(t, report.Aborted)
	assert.Equal(t, GateNotShown, report.Gate)

	for _, p := range report.Phases {
		assert.Equal(t, ExitElapsed, p.Reason, p.Label)
		assert.Equal(t, 31, p.Frames, "frames at t=0..30s")
		assert.Equal(t, 30*time.Second, p.Elapsed)
	}
	assert.Equal(t, 1, f.surface.closes)
}

func TestScheduler_SessionWithGate(t *testing.T) {
	f := newFixture(t, time.Second, nil)

	report, err := f.sched.Session(protocol.DefaultGate(), protocol.DefaultRun())
	require.NoError(t, err)

	assert.Equal(t, GateElapsed, report.Gate)
	assert.Equal(t, []int32{3, 13, 2, 12, 3, 13, 4, 14, 3, 13, 1, 11}, f.emitter.codes)

	// Gate frames show only the ready message.
	for _, fr := range f.surface.frames[:8] {
		assert.False(t, fr.rect)
		assert.Equal(t, []string{"Ready go....."}, fr.texts)
	}
	assert.Equal(t, []string{"Rest Phase"}, f.surface.frames[8].texts)
}

func TestScheduler_GateAbortEmitsNothing(t *testing.T) {
	f := newFixture(t, time.Second, map[int][]string{2: {"escape"}})

	report, err := f.sched.Session(protocol.DefaultGate(), protocol.DefaultRun())
	require.NoError(t, err)

	assert.Equal(t, GateAborted, report.Gate)
	assert.True(t, report.Aborted)
	assert.Empty(t, report.Phases)
	assert.Empty(t, f.emitter.codes)
	assert.Equal(t, []string{"close"}, f.log.events)
	assert.Len(t, f.surface.frames, 3)
}

func TestScheduler_GateAdvanceSkipsCountdown(t *testing.T) {
	f := newFixture(t, time.Second, map[int][]string{0: {"return"}})

	report, err := f.sched.Session(protocol.DefaultGate(), []protocol.Phase{protocol.Rest(time.Second)})
	require.NoError(t, err)

	assert.Equal(t, GateSkipped, report.Gate)
	assert.Equal(t, []int32{3, 13}, f.emitter.codes)
	// One gate frame, then two phase frames (t=0s, t=1s).
	assert.Len(t, f.surface.frames, 3)
}

func TestScheduler_AbortDuringPhase(t *testing.T) {
	// Phase 0 (1s at 100ms) polls 0..10; abort on the 4th frame of phase 1.
	f := newFixture(t, 100*time.Millisecond, map[int][]string{14: {"escape"}})

	phases := []protocol.Phase{
		protocol.Rest(time.Second),
		protocol.SSVEP5(time.Second),
		protocol.Rest(time.Second),
	}
	report, err := f.sched.Run(phases)
	require.NoError(t, err)

	assert.True(t, report.Aborted)
	require.Len(t, report.Phases, 2)
	assert.Equal(t, ExitElapsed, report.Phases[0].Reason)
	assert.Equal(t, ExitAborted, report.Phases[1].Reason)
	assert.Equal(t, 300*time.Millisecond, report.Phases[1].Elapsed)

	assert.Equal(t, []string{"emit:3", "emit:13", "emit:2", "emit:12", "close"}, f.log.events)
	assertPaired(t, f.emitter.codes, report)
	assert.False(t, report.Completed(3))
}

func TestScheduler_AbortOnFirstFrame(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond, map[int][]string{0: {"escape"}})

	report, err := f.sched.Run(protocol.DefaultRun())
	require.NoError(t, err)

	assert.Equal(t, []int32{3, 13}, f.emitter.codes)
	assert.Equal(t, 1, report.Phases[0].Frames)
	assert.Equal(t, 1, f.surface.closes)
}

func TestScheduler_AdvanceMovesToNextPhase(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond, map[int][]string{2: {"return"}})

	phases := []protocol.Phase{protocol.Rest(time.Second), protocol.SSVEP7(200 * time.Millisecond)}
	report, err := f.sched.Run(phases)
	require.NoError(t, err)

	assert.False(t, report.Aborted)
	require.Len(t, report.Phases, 2)
	assert.Equal(t, ExitAdvanced, report.Phases[0].Reason)
	assert.Equal(t, 3, report.Phases[0].Frames)
	assert.Equal(t, ExitElapsed, report.Phases[1].Reason)
	assert.Equal(t, []string{"emit:3", "emit:13", "emit:4", "emit:14", "close"}, f.log.events)
}

func TestScheduler_AdvanceOnLastPhaseEndsRun(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond, map[int][]string{1: {"return"}})

	report, err := f.sched.Run([]protocol.Phase{protocol.Ending(time.Minute)})
	require.NoError(t, err)

	assert.True(t, report.Completed(1))
	assert.Equal(t, ExitAdvanced, report.Phases[0].Reason)
	assert.Equal(t, []int32{1, 11}, f.emitter.codes)
}

func TestScheduler_AbortTakesPrecedence(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond, map[int][]string{0: {"return", "escape", "return"}})

	report, err := f.sched.Run(protocol.DefaultRun())
	require.NoError(t, err)

	assert.True(t, report.Aborted)
	assert.Equal(t, []int32{3, 13}, f.emitter.codes)
}

func TestScheduler_UnknownKeysIgnored(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond, map[int][]string{0: {"space"}, 1: {"a", "left"}})

	report, err := f.sched.Run([]protocol.Phase{protocol.Rest(300 * time.Millisecond)})
	require.NoError(t, err)

	assert.Equal(t, ExitElapsed, report.Phases[0].Reason)
	assert.Equal(t, 4, report.Phases[0].Frames)
}

func TestScheduler_DurationExit(t *testing.T) {
	tests := []struct {
		duration time.Duration
		frames   int
		elapsed  time.Duration
	}{
		{0, 1, 0},
		{250 * time.Millisecond, 4, 300 * time.Millisecond},
		{300 * time.Millisecond, 4, 300 * time.Millisecond},
		{301 * time.Millisecond, 5, 400 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.duration.String(), func(t *testing.T) {
			f := newFixture(t, 100*time.Millisecond, nil)
			report, err := f.sched.Run([]protocol.Phase{protocol.Rest(tt.duration)})
			require.NoError(t, err)

			p := report.Phases[0]
			assert.Equal(t, ExitElapsed, p.Reason)
			assert.Equal(t, tt.frames, p.Frames)
			assert.Equal(t, tt.elapsed, p.Elapsed)
			assert.GreaterOrEqual(t, p.Elapsed, tt.duration)
		})
	}
}

func TestScheduler_FlickerFrames(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond, nil)

	report, err := f.sched.Run([]protocol.Phase{protocol.SSVEP5(400 * time.Millisecond)})
	require.NoError(t, err)

	var fills []Fill
	for _, fr := range f.surface.frames {
		require.True(t, fr.rect)
		assert.Equal(t, []string{"5 Hz Stimulation"}, fr.texts)
		fills = append(fills, fr.fill)
	}
	assert.Equal(t, []Fill{
		FillOn, FillOn, FillOff, FillOff,
		FillOn, FillOn, FillOff, FillOff,
		FillOn,
	}, fills)
	assert.Equal(t, 5, report.Phases[0].OnFrames)
}

func TestScheduler_SevenHzFlickerFrames(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond, nil)

	report, err := f.sched.Run([]protocol.Phase{protocol.SSVEP7(time.Second)})
	require.NoError(t, err)

	var fills []Fill
	for _, fr := range f.surface.frames {
		fills = append(fills, fr.fill)
	}
	// floor(14t) even at t = 0, 0.1, ... 1.0s.
	assert.Equal(t, []Fill{
		FillOn, FillOff, FillOn, FillOn, FillOff, FillOff,
		FillOn, FillOff, FillOff, FillOn, FillOn,
	}, fills)
	assert.Equal(t, 11, report.Phases[0].Frames)
	assert.Equal(t, 6, report.Phases[0].OnFrames)
}

func TestScheduler_RestStaysOff(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond, nil)

	report, err := f.sched.Run([]protocol.Phase{protocol.Rest(time.Second)})
	require.NoError(t, err)

	for _, fr := range f.surface.frames {
		assert.Equal(t, FillOff, fr.fill)
	}
	assert.Equal(t, 0, report.Phases[0].OnFrames)
}

func TestScheduler_InvalidProtocol(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *Scheduler) error
	}{
		{"negative phase duration", func(s *Scheduler) error {
			_, err := s.Run([]protocol.Phase{protocol.Rest(-time.Second)})
			return err
		}},
		{"empty run", func(s *Scheduler) error {
			_, err := s.Run(nil)
			return err
		}},
		{"negative gate in session", func(s *Scheduler) error {
			_, err := s.Session(protocol.Gate{Duration: -1}, protocol.DefaultRun())
			return err
		}},
		{"invalid phases in session", func(s *Scheduler) error {
			_, err := s.Session(protocol.DefaultGate(), []protocol.Phase{{StartCode: 3, Label: "Rest Phase"}})
			return err
		}},
		{"negative gate", func(s *Scheduler) error {
			_, err := s.Gate(protocol.Gate{Duration: -1})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, time.Second, nil)

			err := tt.run(f.sched)
			require.Error(t, err)
			assert.True(t, IsProtocolError(err))
			assert.Equal(t, []string{"close"}, f.log.events, "surface released, nothing emitted")
			assert.Empty(t, f.surface.frames)

			_, err = f.sched.Run(protocol.DefaultRun())
			var re *RuntimeError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, ErrCodeReused, re.Code)
			assert.Equal(t, 1, f.surface.closes)
		})
	}
}

func TestScheduler_InvalidProtocolEmptyRunError(t *testing.T) {
	f := newFixture(t, time.Second, nil)

	_, err := f.sched.Run(nil)
	assert.ErrorIs(t, err, protocol.ErrEmptyRun)
}

func TestScheduler_NotReusable(t *testing.T) {
	f := newFixture(t, time.Second, nil)

	_, err := f.sched.Run([]protocol.Phase{protocol.Rest(0)})
	require.NoError(t, err)

	_, err = f.sched.Run([]protocol.Phase{protocol.Rest(0)})
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeReused, re.Code)
	assert.Equal(t, 1, f.surface.closes)
}

func TestScheduler_CustomKeyMap(t *testing.T) {
	keys := KeyMap{"space": CommandAdvance, "q": CommandAbort}
	f := newFixture(t, 100*time.Millisecond, map[int][]string{0: {"escape"}, 1: {"space"}, 3: {"q"}}, WithKeyMap(keys))

	report, err := f.sched.Run([]protocol.Phase{protocol.Rest(time.Minute), protocol.Rest(time.Minute)})
	require.NoError(t, err)

	require.Len(t, report.Phases, 2)
	assert.Equal(t, ExitAdvanced, report.Phases[0].Reason)
	assert.Equal(t, 2, report.Phases[0].Frames)
	assert.Equal(t, ExitAborted, report.Phases[1].Reason)
}

type recordingObserver struct {
	NopObserver
	events []string
}

func (o *recordingObserver) GateEntered(g protocol.Gate) {
	o.events = append(o.events, "gate")
}

func (o *recordingObserver) GateExited(outcome GateOutcome, _ time.Duration) {
	o.events = append(o.events, "gate:"+string(outcome))
}

func (o *recordingObserver) PhaseEntered(index int, p protocol.Phase) {
	o.events = append(o.events, fmt.Sprintf("enter:%d", index))
}

func (o *recordingObserver) PhaseExited(index int, p protocol.Phase, reason ExitReason, _ time.Duration) {
	o.events = append(o.events, fmt.Sprintf("exit:%d:%s", index, reason))
}

func TestScheduler_ObserverTransitions(t *testing.T) {
	obs := &recordingObserver{}
	f := newFixture(t, 100*time.Millisecond, map[int][]string{3: {"return"}}, WithObserver(obs))

	_, err := f.sched.Session(protocol.Gate{Message: "go", Duration: 200 * time.Millisecond},
		[]protocol.Phase{protocol.Rest(time.Second), protocol.Ending(0)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"gate", "gate:elapsed",
		"enter:0", "exit:0:advanced",
		"enter:1", "exit:1:elapsed",
	}, obs.events)
}

func TestScheduler_PairingUnderRandomInput(t *testing.T) {
	// Deterministic sweep over single-key scripts at every poll position.
	phases := []protocol.Phase{
		protocol.Rest(300 * time.Millisecond),
		protocol.SSVEP5(300 * time.Millisecond),
		protocol.Rest(300 * time.Millisecond),
		protocol.SSVEP7(300 * time.Millisecond),
	}
	for _, key := range []string{"return", "escape"} {
		for at := 0; at < 20; at++ {
			f := newFixture(t, 100*time.Millisecond, map[int][]string{at: {key}})
			report, err := f.sched.Run(phases)
			require.NoError(t, err)

			assertPaired(t, f.emitter.codes, report)
			assert.Equal(t, 1, f.surface.closes)
			assert.Equal(t, "close", f.log.events[len(f.log.events)-1])
			if report.Aborted {
				last := report.Phases[len(report.Phases)-1]
				assert.Equal(t, ExitAborted, last.Reason)
			}
		}
	}
}
