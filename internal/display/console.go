package display

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/ssvep/internal/engine"
)

var _ engine.Surface = (*Console)(nil)

// ErrNoRefresh is returned by NewConsole for a non-positive refresh rate.
var ErrNoRefresh = errors.New("refresh rate must be positive")

// Console is a text surface. Only frame changes are written, so a flicker
// phase produces one line update per half period rather than per frame.
type Console struct {
	w        io.Writer
	interval time.Duration
	ticker   *time.Ticker

	fill    engine.Fill
	hasRect bool
	texts   []string

	last   string
	frames int
	closed bool
}

// NewConsole creates a console surface flipping at refreshHz.
func NewConsole(w io.Writer, refreshHz float64) (*Console, error) {
	if refreshHz <= 0 {
		return nil, ErrNoRefresh
	}
	interval := time.Duration(float64(time.Second) / refreshHz)
	if interval <= 0 {
		interval = time.Nanosecond
	}
	return &Console{
		w:        w,
		interval: interval,
		ticker:   time.NewTicker(interval),
	}, nil
}

// Interval returns the frame interval.
func (c *Console) Interval() time.Duration {
	return c.interval
}

// Frames returns the number of presented frames.
func (c *Console) Frames() int {
	return c.frames
}

func (c *Console) DrawRect(r engine.Rect) {
	c.hasRect = true
	c.fill = r.Fill
}

func (c *Console) DrawText(t engine.Text) {
	c.texts = append(c.texts, t.Content)
}

// Flip writes the frame if it differs from the previous one, then waits for
// the next frame boundary.
func (c *Console) Flip() {
	if c.closed {
		return
	}
	line := c.compose()
	if line != c.last {
		fmt.Fprintf(c.w, "\r%-48s", line)
		c.last = line
	}
	c.hasRect = false
	c.texts = c.texts[:0]
	c.frames++

	<-c.ticker.C
}

// Close stops the frame ticker and ends the status line.
func (c *Console) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.ticker.Stop()
	if c.last != "" {
		fmt.Fprintln(c.w)
	}
	return nil
}

func (c *Console) compose() string {
	text := strings.Join(c.texts, " | ")
	if !c.hasRect {
		return text
	}
	block := "[        ]"
	if c.fill == engine.FillOn {
		block = "[########]"
	}
	return block + " " + text
}
