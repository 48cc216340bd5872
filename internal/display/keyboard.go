package display

import (
	"bufio"
	"io"
	"strings"

	"github.com/roach88/ssvep/internal/engine"
)

var _ engine.InputSource = (*Keyboard)(nil)

const keyBuffer = 64

// Keyboard reads lines from a reader on its own goroutine and queues them as
// key identifiers:
//
//	empty line          -> "return"
//	q, esc, escape      -> "escape"
//	anything else       -> the trimmed, lower-cased line
//
// Keys arriving while the queue is full are dropped.
type Keyboard struct {
	keys chan string
	done chan struct{}
}

// NewKeyboard starts reading r. A nil reader yields a keyboard that only
// receives injected keys.
func NewKeyboard(r io.Reader) *Keyboard {
	k := &Keyboard{
		keys: make(chan string, keyBuffer),
		done: make(chan struct{}),
	}
	if r == nil {
		close(k.done)
		return k
	}
	go k.read(r)
	return k
}

func (k *Keyboard) read(r io.Reader) {
	defer close(k.done)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		k.Inject(KeyForLine(sc.Text()))
	}
}

// Inject queues a key as if it had been typed.
func (k *Keyboard) Inject(key string) {
	select {
	case k.keys <- key:
	default:
	}
}

// Poll drains every queued key without blocking.
func (k *Keyboard) Poll() []string {
	var keys []string
	for {
		select {
		case key := <-k.keys:
			keys = append(keys, key)
		default:
			return keys
		}
	}
}

// Done is closed when the reader reaches EOF.
func (k *Keyboard) Done() <-chan struct{} {
	return k.done
}

// KeyForLine maps one input line to a key identifier.
func KeyForLine(line string) string {
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "":
		return engine.KeyAdvance
	case "q", "esc", "escape":
		return engine.KeyAbort
	}
	return line
}
