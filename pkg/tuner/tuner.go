// ABOUTME: Tuner controller owning the capture source and analysis loop
// ABOUTME: Start/Stop lifecycle, live setters and reading subscriptions
package tuner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/fretwork/fretwork-go/pkg/audio/capture"
	"github.com/fretwork/fretwork-go/pkg/notes"
	"github.com/fretwork/fretwork-go/pkg/pitch"
	"github.com/fretwork/fretwork-go/pkg/tick"
)

// spectrumWindow is the tail of each frame used for the level meter
const spectrumWindow = 4096

// Tuner pulls frames on every tick and publishes stable readings
type Tuner struct {
	cfg      Config
	source   capture.Source
	sched    tick.Scheduler
	detector *pitch.Detector

	// serializes Start and Stop
	lifecycle sync.Mutex

	mu          sync.Mutex
	state       *State
	running     bool
	session     uint64
	cancel      context.CancelFunc
	mode        Mode
	selected    string
	reading     Reading
	hasReading  bool
	level       float64
	spectrum    []float64
	lastSkip    SkipReason
	errMsg      string
	subscribers []func(Reading)

	stats Stats
}

// Stats counts tick outcomes since the tuner was created
type Stats struct {
	Ticks     int64
	Published int64
	Silent    int64
	Unstable  int64
	OutOfBand int64
	Throttled int64
}

// New creates a stopped tuner in auto mode with E2 selected
func New(cfg Config, source capture.Source, sched tick.Scheduler) *Tuner {
	return &Tuner{
		cfg:      cfg,
		source:   source,
		sched:    sched,
		detector: pitch.NewDetector(cfg.Pitch),
		selected: notes.Standard[0].Name,
	}
}

// Start acquires the capture source and begins ticking. On failure the
// tuner stays stopped, Err holds a user-facing message and the error is
// returned. Cancelling ctx stops the tuner.
func (t *Tuner) Start(ctx context.Context) error {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	if err := t.source.Open(t.cfg.Capture); err != nil {
		t.source.Close()

		msg := err.Error()
		var dae *capture.DeviceAccessError
		if errors.As(err, &dae) {
			msg = dae.Message()
		}
		t.mu.Lock()
		t.errMsg = msg
		t.mu.Unlock()

		log.Printf("Tuner start failed: %v", err)
		return fmt.Errorf("failed to open audio input: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.session++
	session := t.session
	t.errMsg = ""
	t.state = NewState(t.cfg)
	t.running = true
	t.cancel = cancel
	t.hasReading = false
	t.reading = Reading{}
	t.sched.ScheduleNext(t.tick)
	t.mu.Unlock()

	// a later session must survive this one's context ending
	go func() {
		<-runCtx.Done()
		t.stop(session)
	}()

	log.Printf("Tuner started (mode=%s)", t.Mode())
	return nil
}

// Stop cancels the pending tick and releases the capture source. No tick
// runs after Stop returns. Safe to call when already stopped.
func (t *Tuner) Stop() {
	t.stop(0)
}

// stop ends the running session. A nonzero session only stops that one.
func (t *Tuner) stop(session uint64) {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	t.mu.Lock()
	if !t.running || (session != 0 && session != t.session) {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.state = nil
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	t.sched.Cancel()
	cancel()
	if err := t.source.Close(); err != nil {
		log.Printf("Warning: capture close error: %v", err)
	}
	log.Printf("Tuner stopped")
}

func (t *Tuner) tick(now time.Time) {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}

	frame, err := t.source.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// end of a recording; stop without waiting on our own tick
			t.finishLocked()
			t.mu.Unlock()
			return
		}
		log.Printf("Tuner read error: %v", err)
		t.sched.ScheduleNext(t.tick)
		t.mu.Unlock()
		return
	}

	t.stats.Ticks++
	t.level = pitch.RMS(frame.Samples)
	if t.cfg.SpectrumBands > 0 {
		tail := frame.Samples
		if len(tail) > spectrumWindow {
			tail = tail[len(tail)-spectrumWindow:]
		}
		t.spectrum = pitch.Bands(pitch.Spectrum(tail, t.cfg.Capture.MinDecibels, t.cfg.Capture.MaxDecibels), t.cfg.SpectrumBands)
	}

	est := t.detector.Estimate(frame.Samples, float64(frame.SampleRate))
	reading, skip := t.state.Step(est, t.mode, t.selected, now)
	t.lastSkip = skip
	t.count(skip)

	var subs []func(Reading)
	if skip == SkipNone {
		t.reading = reading
		t.hasReading = true
		subs = append(subs, t.subscribers...)
	}

	t.sched.ScheduleNext(t.tick)
	t.mu.Unlock()

	for _, fn := range subs {
		fn(reading)
	}
}

// finishLocked stops from inside a tick; the caller holds t.mu
func (t *Tuner) finishLocked() {
	t.running = false
	t.state = nil
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if err := t.source.Close(); err != nil {
		log.Printf("Warning: capture close error: %v", err)
	}
	log.Printf("Tuner input ended")
}

func (t *Tuner) count(skip SkipReason) {
	switch skip {
	case SkipNone:
		t.stats.Published++
	case SkipSilent:
		t.stats.Silent++
	case SkipUnstable:
		t.stats.Unstable++
	case SkipOutOfBand:
		t.stats.OutOfBand++
	case SkipThrottled:
		t.stats.Throttled++
	}
}

// SetMode switches between auto and manual from the next tick
func (t *Tuner) SetMode(mode Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = mode
}

// Mode returns the current mode
func (t *Tuner) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// SetSelectedString picks the manual mode target, e.g. "A2"
func (t *Tuner) SetSelectedString(name string) error {
	n, ok := notes.ByName(name)
	if !ok {
		return fmt.Errorf("unknown string: %s", name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = n.Name
	return nil
}

// SelectedString returns the manual mode target
func (t *Tuner) SelectedString() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selected
}

// Reading returns the last published reading
func (t *Tuner) Reading() (Reading, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reading, t.hasReading
}

// Level returns the RMS of the latest frame
func (t *Tuner) Level() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.level
}

// Spectrum returns the latest level meter bands in [0,1]
func (t *Tuner) Spectrum() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]float64, len(t.spectrum))
	copy(out, t.spectrum)
	return out
}

// Err returns the user-facing message of the last failed Start
func (t *Tuner) Err() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMsg
}

// Running reports whether the analysis loop is active
func (t *Tuner) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// LastSkip returns why the latest tick did not publish
func (t *Tuner) LastSkip() SkipReason {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSkip
}

// Stats returns tick counters
func (t *Tuner) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Subscribe registers fn for every published reading. Callbacks run on
// the tick goroutine and must not block.
func (t *Tuner) Subscribe(fn func(Reading)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, fn)
}
