// ABOUTME: Audio clock advanced explicitly instead of by a device
// ABOUTME: Used by tests and offline click-track rendering
package output

import (
	"math"
	"sync"
	"time"
)

// ManualClock renders the mixer only when told to
type ManualClock struct {
	*Mixer

	mu     sync.Mutex
	closed bool
	record bool
	out    []float32
}

// NewManualClock creates a clock at sampleRate. With record set every
// rendered frame is kept and returned by Recording.
func NewManualClock(sampleRate int, record bool) *ManualClock {
	return &ManualClock{Mixer: NewMixer(sampleRate), record: record}
}

// Advance renders d worth of frames
func (c *ManualClock) Advance(d time.Duration) {
	c.AdvanceFrames(int(math.Round(d.Seconds() * float64(c.SampleRate()))))
}

// AdvanceFrames renders n frames
func (c *ManualClock) AdvanceFrames(n int) {
	if n <= 0 {
		return
	}
	buf := make([]float32, n)
	c.Render(buf)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record {
		c.out = append(c.out, buf...)
	}
}

// Recording returns every frame rendered so far
func (c *ManualClock) Recording() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float32, len(c.out))
	copy(out, c.out)
	return out
}

// Close marks the clock closed
func (c *ManualClock) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called
func (c *ManualClock) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
