package testutil

import (
	"sync"

	"github.com/roach88/ssvep/internal/engine"
)

var _ engine.Surface = (*RecordingSurface)(nil)

// Frame is one presented frame: everything drawn since the previous Flip.
type Frame struct {
	Rects []engine.Rect
	Texts []engine.Text
}

// Fill returns the fill of the first rectangle, or FillOff if none was drawn.
func (f Frame) Fill() engine.Fill {
	if len(f.Rects) == 0 {
		return engine.FillOff
	}
	return f.Rects[0].Fill
}

// Label returns the content of the first text, or "".
func (f Frame) Label() string {
	if len(f.Texts) == 0 {
		return ""
	}
	return f.Texts[0].Content
}

// RecordingSurface keeps every presented frame in memory.
type RecordingSurface struct {
	mu      sync.Mutex
	pending Frame
	frames  []Frame
	closes  int
	onFlip  func(n int)
}

// NewRecordingSurface creates an empty recording surface.
func NewRecordingSurface() *RecordingSurface {
	return &RecordingSurface{}
}

// OnFlip registers fn to be called after each Flip with the frame count.
func (s *RecordingSurface) OnFlip(fn func(n int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFlip = fn
}

func (s *RecordingSurface) DrawRect(r engine.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Rects = append(s.pending.Rects, r)
}

func (s *RecordingSurface) DrawText(t engine.Text) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Texts = append(s.pending.Texts, t)
}

func (s *RecordingSurface) Flip() {
	s.mu.Lock()
	s.frames = append(s.frames, s.pending)
	s.pending = Frame{}
	n := len(s.frames)
	fn := s.onFlip
	s.mu.Unlock()

	if fn != nil {
		fn(n)
	}
}

func (s *RecordingSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Frames returns a copy of the presented frames.
func (s *RecordingSurface) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Closes returns how many times Close was called.
func (s *RecordingSurface) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}
