// ABOUTME: Fixed-size ring of the most recent samples
// ABOUTME: Written by device callbacks, read by analysis ticks
package audio

import "sync"

// Window keeps the last Size samples of a stream. Writers and readers may
// run on different goroutines.
type Window struct {
	mu     sync.Mutex
	buf    []float64
	pos    int
	filled int
	total  uint64
}

// NewWindow creates a window holding size samples
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{buf: make([]float64, size)}
}

// Size returns the capacity
func (w *Window) Size() int {
	return len(w.buf)
}

// Write appends samples, overwriting the oldest ones
func (w *Window) Write(samples []float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(samples) >= len(w.buf) {
		copy(w.buf, samples[len(samples)-len(w.buf):])
		w.pos = 0
		w.filled = len(w.buf)
		w.total += uint64(len(samples))
		return
	}

	for _, s := range samples {
		w.buf[w.pos] = s
		w.pos = (w.pos + 1) % len(w.buf)
	}
	w.filled += len(samples)
	if w.filled > len(w.buf) {
		w.filled = len(w.buf)
	}
	w.total += uint64(len(samples))
}

// Snapshot copies the window oldest-first into dst, which must be Size
// long. Slots not yet written are zero.
func (w *Window) Snapshot(dst []float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := copy(dst, w.buf[w.pos:])
	copy(dst[n:], w.buf[:w.pos])
}

// Filled returns how many valid samples the window holds
func (w *Window) Filled() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filled
}

// Total returns the number of samples ever written
func (w *Window) Total() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total
}

// Reset clears the window
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.buf {
		w.buf[i] = 0
	}
	w.pos = 0
	w.filled = 0
	w.total = 0
}
