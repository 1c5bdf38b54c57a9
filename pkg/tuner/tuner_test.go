// ABOUTME: Tests for the tuner controller lifecycle and analysis loop
// ABOUTME: Driven by a manual scheduler with fake and synthetic sources
package tuner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fretwork/fretwork-go/pkg/audio"
	"github.com/fretwork/fretwork-go/pkg/audio/capture"
	"github.com/fretwork/fretwork-go/pkg/audio/encode"
	"github.com/fretwork/fretwork-go/pkg/tick"
)

// fakeSource records calls and serves silence
type fakeSource struct {
	mu      sync.Mutex
	openErr error
	cfg     capture.Config
	opened  int
	closed  int
	reads   int
	open    bool
}

func (f *fakeSource) Open(cfg capture.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
	f.opened++
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	return nil
}

func (f *fakeSource) Read() (audio.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if !f.open {
		return audio.Frame{}, capture.ErrNotOpen
	}
	return audio.Frame{Samples: make([]float64, f.cfg.FrameSize), SampleRate: f.cfg.SampleRate}, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	f.open = false
	return nil
}

func (f *fakeSource) counts() (opened, closed, reads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened, f.closed, f.reads
}

func newManual() *tick.Manual {
	return tick.NewManual(time.Unix(1700000000, 0), tick.DisplayRate)
}

func TestStartRequestsCaptureConfig(t *testing.T) {
	src := &fakeSource{}
	tu := New(DefaultConfig(), src, newManual())

	if err := tu.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer tu.Stop()

	want := capture.DefaultConfig()
	if src.cfg != want {
		t.Errorf("expected capture config %+v, got %+v", want, src.cfg)
	}
	if !tu.Running() {
		t.Error("expected tuner to be running")
	}
}

func TestTunerPublishesStableReading(t *testing.T) {
	sched := newManual()
	tone := capture.NewTone(110, 0.5, 0)
	tu := New(DefaultConfig(), tone, sched)

	var got []Reading
	tu.Subscribe(func(r Reading) { got = append(got, r) })

	if err := tu.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer tu.Stop()

	sched.Step()
	sched.Step()
	if _, ok := tu.Reading(); ok {
		t.Fatal("expected no reading before the pitch settles")
	}
	if tu.LastSkip() != SkipUnstable {
		t.Errorf("expected unstable skip, got %s", tu.LastSkip())
	}

	sched.Step()
	r, ok := tu.Reading()
	if !ok {
		t.Fatalf("expected a reading on the third tick, last skip %s", tu.LastSkip())
	}
	if r.Note != "A2" || r.Cents != 0 || !r.IsStable || r.TargetFreq != 110 {
		t.Errorf("unexpected reading: %+v", r)
	}
	if len(got) != 1 || got[0] != r {
		t.Errorf("expected one subscriber call with %+v, got %+v", r, got)
	}

	if lvl := tu.Level(); lvl < 0.34 || lvl > 0.37 {
		t.Errorf("expected level ~0.354, got %f", lvl)
	}
	if bands := tu.Spectrum(); len(bands) != DefaultConfig().SpectrumBands {
		t.Errorf("expected %d spectrum bands, got %d", DefaultConfig().SpectrumBands, len(bands))
	}

	s := tu.Stats()
	if s.Ticks != 3 || s.Published != 1 || s.Unstable != 2 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestTunerStartFailure(t *testing.T) {
	denied := &capture.DeviceAccessError{Reason: capture.ReasonPermissionDenied, Err: errors.New("denied by user")}
	src := &fakeSource{openErr: denied}
	sched := newManual()
	tu := New(DefaultConfig(), src, sched)

	err := tu.Start(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var dae *capture.DeviceAccessError
	if !errors.As(err, &dae) || dae.Reason != capture.ReasonPermissionDenied {
		t.Errorf("expected permission denied error, got %v", err)
	}
	if tu.Running() {
		t.Error("expected tuner to stay stopped")
	}
	if tu.Err() != denied.Message() {
		t.Errorf("expected user message %q, got %q", denied.Message(), tu.Err())
	}
	if _, closed, _ := src.counts(); closed != 1 {
		t.Errorf("expected source closed once, got %d", closed)
	}
	if sched.Pending() {
		t.Error("expected no tick scheduled")
	}

	src.mu.Lock()
	src.openErr = nil
	src.mu.Unlock()
	if err := tu.Start(context.Background()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	defer tu.Stop()
	if tu.Err() != "" {
		t.Errorf("expected error cleared, got %q", tu.Err())
	}
}

func TestTunerStartFailurePlainError(t *testing.T) {
	src := &fakeSource{openErr: errors.New("boom")}
	tu := New(DefaultConfig(), src, newManual())

	if err := tu.Start(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if tu.Err() != "boom" {
		t.Errorf("expected raw message, got %q", tu.Err())
	}
}

func TestTunerStop(t *testing.T) {
	src := &fakeSource{}
	sched := newManual()
	tu := New(DefaultConfig(), src, sched)

	if err := tu.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	sched.Step()

	tu.Stop()
	tu.Stop()

	_, closed, reads := src.counts()
	if closed != 1 {
		t.Errorf("expected one close, got %d", closed)
	}
	if sched.Pending() {
		t.Error("expected pending tick cancelled")
	}

	sched.Advance(time.Second)
	if _, _, after := src.counts(); after != reads {
		t.Errorf("expected no reads after Stop, got %d more", after-reads)
	}
	if tu.Running() {
		t.Error("expected stopped")
	}
}

func TestTunerStopBeforeStart(t *testing.T) {
	src := &fakeSource{}
	tu := New(DefaultConfig(), src, newManual())
	tu.Stop()
	if _, closed, _ := src.counts(); closed != 0 {
		t.Errorf("expected no close, got %d", closed)
	}
}

func TestTunerContextCancel(t *testing.T) {
	src := &fakeSource{}
	tu := New(DefaultConfig(), src, newManual())

	ctx, cancel := context.WithCancel(context.Background())
	if err := tu.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for tu.Running() {
		if time.Now().After(deadline) {
			t.Fatal("tuner did not stop after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, closed, _ := src.counts(); closed != 1 {
		t.Errorf("expected source closed, got %d", closed)
	}
}

func TestTunerRestartCycles(t *testing.T) {
	src := &fakeSource{}
	sched := newManual()
	tu := New(DefaultConfig(), src, sched)

	for i := 0; i < 20; i++ {
		if err := tu.Start(context.Background()); err != nil {
			t.Fatalf("cycle %d: Start failed: %v", i, err)
		}
		tu.Stop()
		if err := tu.Start(context.Background()); err != nil {
			t.Fatalf("cycle %d: restart failed: %v", i, err)
		}

		// give the previous session's context watcher time to run
		time.Sleep(5 * time.Millisecond)
		if !tu.Running() {
			t.Fatalf("cycle %d: restarted tuner was stopped", i)
		}

		_, _, before := src.counts()
		sched.Step()
		if _, _, after := src.counts(); after != before+1 {
			t.Fatalf("cycle %d: expected ticks to resume, got %d reads", i, after-before)
		}
		tu.Stop()
	}

	opened, closed, _ := src.counts()
	if opened != 40 || closed != 40 {
		t.Errorf("expected 40 opens and 40 closes, got %d and %d", opened, closed)
	}
}

func TestTunerRestartAfterContextCancel(t *testing.T) {
	src := &fakeSource{}
	sched := newManual()
	tu := New(DefaultConfig(), src, sched)

	ctx, cancel := context.WithCancel(context.Background())
	if err := tu.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for tu.Running() {
		if time.Now().After(deadline) {
			t.Fatal("tuner did not stop after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := tu.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	defer tu.Stop()

	time.Sleep(10 * time.Millisecond)
	if !tu.Running() {
		t.Fatal("expected restarted tuner to keep running")
	}
	sched.Step()
	if _, _, reads := src.counts(); reads != 1 {
		t.Errorf("expected one read after restart, got %d", reads)
	}
}

func TestTunerSilenceNeverPublishes(t *testing.T) {
	sched := newManual()
	tu := New(DefaultConfig(), &fakeSource{}, sched)
	if err := tu.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer tu.Stop()

	for i := 0; i < 10; i++ {
		sched.Step()
	}
	if _, ok := tu.Reading(); ok {
		t.Error("expected no reading from silence")
	}
	if s := tu.Stats(); s.Silent != 10 {
		t.Errorf("expected 10 silent ticks, got %+v", s)
	}
	if tu.Level() != 0 {
		t.Errorf("expected zero level, got %f", tu.Level())
	}
}

func TestTunerManualModeTakesEffectNextTick(t *testing.T) {
	sched := newManual()
	tone := capture.NewTone(110, 0.5, 0)
	tu := New(DefaultConfig(), tone, sched)
	if err := tu.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer tu.Stop()

	for i := 0; i < 3; i++ {
		sched.Step()
	}
	if r, _ := tu.Reading(); r.Note != "A2" {
		t.Fatalf("expected A2 in auto mode, got %+v", r)
	}

	tu.SetMode(ModeManual)
	if err := tu.SetSelectedString("d3"); err != nil {
		t.Fatalf("SetSelectedString failed: %v", err)
	}
	if tu.SelectedString() != "D3" {
		t.Errorf("expected D3, got %s", tu.SelectedString())
	}

	// 110Hz is 500 cents under D3, beyond the manual gate
	sched.Step()
	if tu.LastSkip() != SkipOutOfBand {
		t.Errorf("expected out of band in manual mode, got %s", tu.LastSkip())
	}

	if err := tu.SetSelectedString("A2"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		sched.Step()
	}
	r, _ := tu.Reading()
	if r.Note != "A2" || tu.Mode() != ModeManual {
		t.Errorf("expected manual A2 reading, got %+v", r)
	}
}

func TestTunerUnknownString(t *testing.T) {
	tu := New(DefaultConfig(), &fakeSource{}, newManual())
	if err := tu.SetSelectedString("C4"); err == nil {
		t.Error("expected error for unknown string")
	}
	if tu.SelectedString() != "E2" {
		t.Errorf("expected default E2, got %s", tu.SelectedString())
	}
}

func TestTunerStopsAtEndOfFile(t *testing.T) {
	samples := make([]float64, 22050)
	path := filepath.Join(t.TempDir(), "short.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := encode.WriteWAV(f, samples, 44100, 16); err != nil {
		t.Fatal(err)
	}
	f.Close()

	sched := newManual()
	tu := New(DefaultConfig(), capture.NewFile(path, 0, false), sched)
	if err := tu.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	sched.Step() // the only full-file frame
	sched.Step() // past the end
	if tu.Running() {
		t.Error("expected tuner to stop at end of file")
	}
	if sched.Pending() {
		t.Error("expected no further tick")
	}
	tu.Stop()
}
