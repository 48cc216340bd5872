package marker

import "sync"

// MemoryOutlet keeps pushed samples in memory. Safe for concurrent use.
type MemoryOutlet struct {
	mu      sync.Mutex
	samples [][]int32
	err     error
}

// NewMemoryOutlet creates an empty outlet.
func NewMemoryOutlet() *MemoryOutlet {
	return &MemoryOutlet{}
}

// FailWith makes subsequent pushes return err without recording the
// sample. Pass nil to restore normal behavior.
func (o *MemoryOutlet) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// Push records a copy of the sample.
func (o *MemoryOutlet) Push(sample []int32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.samples = append(o.samples, append([]int32(nil), sample...))
	return nil
}

// Codes returns the first channel of every recorded sample, in push order.
func (o *MemoryOutlet) Codes() []int32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	codes := make([]int32, 0, len(o.samples))
	for _, s := range o.samples {
		if len(s) > 0 {
			codes = append(codes, s[0])
		}
	}
	return codes
}

// Samples returns copies of all recorded samples.
func (o *MemoryOutlet) Samples() [][]int32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([][]int32, len(o.samples))
	for i, s := range o.samples {
		out[i] = append([]int32(nil), s...)
	}
	return out
}
