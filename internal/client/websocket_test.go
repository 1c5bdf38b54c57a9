// ABOUTME: Tests for the display client
// ABOUTME: Runs a real publisher over httptest and checks routing and controls
package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fretwork/fretwork-go/internal/publish"
	"github.com/fretwork/fretwork-go/pkg/metronome"
	"github.com/fretwork/fretwork-go/pkg/tuner"
)

type controls struct {
	mu      sync.Mutex
	mode    tuner.Mode
	bpm     int
	beats   int
	running bool
	calls   chan string
}

func (c *controls) SetMode(mode tuner.Mode) {
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
	c.calls <- "mode"
}

func (c *controls) SetSelectedString(string) error {
	c.calls <- "string"
	return nil
}

func (c *controls) SetBPM(bpm int) {
	c.mu.Lock()
	c.bpm = bpm
	c.mu.Unlock()
	c.calls <- "bpm"
}

func (c *controls) SetBeatsPerBar(beats int) {
	c.mu.Lock()
	c.beats = beats
	c.mu.Unlock()
	c.calls <- "beats"
}

func (c *controls) SetMetronomeRunning(running bool) error {
	c.mu.Lock()
	c.running = running
	c.mu.Unlock()
	c.calls <- "metronome"
	return nil
}

func setup(t *testing.T, ctrl publish.Controls) (*publish.Publisher, *Client) {
	t.Helper()
	p := publish.New(publish.Config{Name: "practice"}, ctrl)
	srv := httptest.NewServer(p.Handler())
	t.Cleanup(srv.Close)

	c := NewClient(Config{URL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(c.Close)

	deadline := time.Now().Add(2 * time.Second)
	for p.SubscriberCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("publisher never registered the client")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return p, c
}

func TestNewClient(t *testing.T) {
	c := NewClient(Config{URL: "ws://localhost:8931/ws"})
	if c == nil {
		t.Fatal("expected client to be created")
	}
	if c.config.HandshakeTimeout != 5*time.Second {
		t.Errorf("expected default handshake timeout, got %v", c.config.HandshakeTimeout)
	}
	if c.IsConnected() {
		t.Error("expected new client to be disconnected")
	}
	if err := c.SetBPM(100); err == nil {
		t.Error("expected send before connect to fail")
	}
}

func TestConnectReadsHello(t *testing.T) {
	_, c := setup(t, nil)

	if h := c.Hello(); h.Name != "practice" || h.ID == "" {
		t.Errorf("unexpected hello: %+v", h)
	}
	if !c.IsConnected() {
		t.Error("expected client to be connected")
	}

	select {
	case s := <-c.Statuses:
		if s.Tuner != nil {
			t.Errorf("expected no reading in initial status, got %+v", s.Tuner)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status")
	}
}

func TestRoutesBroadcasts(t *testing.T) {
	p, c := setup(t, nil)

	p.PublishTuner(tuner.Reading{Pitch: 110, Note: "A2", TargetFreq: 110, IsStable: true})
	p.PublishMetronome(metronome.Status{BPM: 90, TimeSignature: "3/4", IsRunning: true})
	p.PublishBeat(metronome.Beat{Index: 3, Accent: true, Time: 1.5})

	select {
	case r := <-c.Readings:
		if r.Note != "A2" || r.Pitch != 110 {
			t.Errorf("unexpected reading: %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reading")
	}

	select {
	case s := <-c.Metronome:
		if s.BPM != 90 || s.TimeSignature != "3/4" || !s.IsRunning {
			t.Errorf("unexpected metronome status: %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for metronome status")
	}

	select {
	case b := <-c.Beats:
		if b.Index != 3 || !b.Accent {
			t.Errorf("unexpected beat: %+v", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for beat")
	}
}

func TestControlsReachPublisher(t *testing.T) {
	ctrl := &controls{calls: make(chan string, 8)}
	_, c := setup(t, ctrl)

	wait := func(want string) {
		t.Helper()
		select {
		case got := <-ctrl.calls:
			if got != want {
				t.Fatalf("expected %s call, got %s", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s call", want)
		}
	}

	if err := c.SetMode(tuner.ModeManual); err != nil {
		t.Fatal(err)
	}
	wait("mode")
	if err := c.SetBPM(300); err != nil {
		t.Fatal(err)
	}
	wait("bpm")
	if err := c.SetTimeSignature(3); err != nil {
		t.Fatal(err)
	}
	wait("beats")
	if err := c.SetMetronomeRunning(true); err != nil {
		t.Fatal(err)
	}
	wait("metronome")

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if ctrl.mode != tuner.ModeManual {
		t.Errorf("expected manual mode, got %v", ctrl.mode)
	}
	if ctrl.bpm != metronome.MaxBPM {
		t.Errorf("expected bpm clamped to %d, got %d", metronome.MaxBPM, ctrl.bpm)
	}
	if ctrl.beats != 3 || !ctrl.running {
		t.Errorf("unexpected controls state: beats=%d running=%v", ctrl.beats, ctrl.running)
	}
}

func TestRejectedControlReportsError(t *testing.T) {
	_, c := setup(t, nil)

	if err := c.SetBPM(100); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-c.Errors:
		if !strings.Contains(msg, "disabled") {
			t.Errorf("expected controls disabled error, got %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	_, c := setup(t, nil)
	c.Close()
	c.Close()
	if c.IsConnected() {
		t.Error("expected client to be disconnected")
	}
}
