// ABOUTME: Scheduled tick capability for cooperative analysis loops
// ABOUTME: One pending callback at a time, cancellable synchronously
package tick

import (
	"sync"
	"time"
)

// Scheduler runs a single pending callback at the next tick.
// Callbacks usually call ScheduleNext again to keep a loop going.
type Scheduler interface {
	// ScheduleNext arranges for fn to run once at the next tick,
	// replacing any callback that is still pending.
	ScheduleNext(fn func(now time.Time))
	// Cancel drops the pending callback. Once it returns no callback
	// scheduled before the call will start or still be running.
	Cancel()
}

// Timer schedules callbacks on an OS timer at a fixed interval
type Timer struct {
	interval time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64

	// held while a callback executes so Cancel can wait it out
	running sync.Mutex
}

// NewTimer creates a timer scheduler. DisplayRate approximates a screen
// refresh callback and is what the tuner uses.
func NewTimer(interval time.Duration) *Timer {
	return &Timer{interval: interval}
}

// DisplayRate is the interval of a 60Hz display refresh
const DisplayRate = time.Second / 60

// ScheduleNext arms the timer
func (t *Timer) ScheduleNext(fn func(now time.Time)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.interval, func() {
		t.fire(gen, fn)
	})
}

func (t *Timer) fire(gen uint64, fn func(time.Time)) {
	t.running.Lock()
	defer t.running.Unlock()

	t.mu.Lock()
	stale := gen != t.gen
	t.mu.Unlock()
	if stale {
		return
	}

	fn(time.Now())
}

// Cancel stops the pending callback and waits for one in flight.
// It must not be called from inside a callback.
func (t *Timer) Cancel() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.mu.Unlock()

	t.running.Lock()
	t.running.Unlock()
}

// Manual is a Scheduler driven by an explicit clock, for tests
type Manual struct {
	interval time.Duration

	mu      sync.Mutex
	now     time.Time
	pending func(time.Time)
	due     time.Time
	fired   int
}

// NewManual creates a manual scheduler starting at start
func NewManual(start time.Time, interval time.Duration) *Manual {
	return &Manual{now: start, interval: interval}
}

// ScheduleNext queues fn for now+interval
func (m *Manual) ScheduleNext(fn func(now time.Time)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = fn
	m.due = m.now.Add(m.interval)
}

// Cancel drops the pending callback
func (m *Manual) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
}

// Advance moves the clock forward by d, running every callback that
// comes due on the way in order
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	end := m.now.Add(d)
	for m.pending != nil && !m.due.After(end) {
		fn := m.pending
		m.pending = nil
		m.now = m.due
		m.fired++
		now := m.now
		m.mu.Unlock()
		fn(now)
		m.mu.Lock()
	}
	m.now = end
	m.mu.Unlock()
}

// Step advances exactly one interval
func (m *Manual) Step() {
	m.Advance(m.interval)
}

// Now returns the manual clock time
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending reports whether a callback is queued
func (m *Manual) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// Fired returns how many callbacks have run
func (m *Manual) Fired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fired
}
