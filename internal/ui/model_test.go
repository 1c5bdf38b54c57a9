// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests key handling, control requests and panel updates
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fretwork/fretwork-go/pkg/metronome"
	"github.com/fretwork/fretwork-go/pkg/tuner"
)

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func drain(ctrl *Controls) []Request {
	var out []Request
	for {
		select {
		case r := <-ctrl.Requests:
			out = append(out, r)
		default:
			return out
		}
	}
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil, "test")

	if model.mode != tuner.ModeAuto {
		t.Error("expected auto mode initially")
	}
	if model.selected != "E2" {
		t.Errorf("expected E2 selected, got %s", model.selected)
	}
	if model.bpm != 120 || model.beatsPerBar != 4 {
		t.Errorf("expected 120 bpm 4/4, got %d %d", model.bpm, model.beatsPerBar)
	}
}

func TestStringKeys(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"1", "E4"},
		{"2", "B3"},
		{"3", "G3"},
		{"4", "D3"},
		{"5", "A2"},
		{"6", "E2"},
	}

	for _, tt := range tests {
		ctrl := NewControls()
		m := press(NewModel(ctrl, "test"), tt.key)
		if m.mode != tuner.ModeManual || m.selected != tt.want {
			t.Errorf("key %s: expected manual %s, got %v %s", tt.key, tt.want, m.mode, m.selected)
		}

		reqs := drain(ctrl)
		if len(reqs) != 2 || reqs[0].Kind != RequestMode || reqs[1].Kind != RequestString || reqs[1].String != tt.want {
			t.Errorf("key %s: unexpected requests %+v", tt.key, reqs)
		}
	}
}

func TestAutoKey(t *testing.T) {
	ctrl := NewControls()
	m := press(NewModel(ctrl, "test"), "3", "a")
	if m.mode != tuner.ModeAuto {
		t.Error("expected auto mode")
	}
	reqs := drain(ctrl)
	last := reqs[len(reqs)-1]
	if last.Kind != RequestMode || last.Mode != tuner.ModeAuto {
		t.Errorf("unexpected request %+v", last)
	}
}

func TestBPMKeysClamp(t *testing.T) {
	ctrl := NewControls()
	m := NewModel(ctrl, "test")
	m.bpm = 235

	m = press(m, "+", "+")
	if m.bpm != 240 {
		t.Errorf("expected bpm clamped to 240, got %d", m.bpm)
	}

	m.bpm = 45
	m = press(m, "-", "-")
	if m.bpm != 40 {
		t.Errorf("expected bpm clamped to 40, got %d", m.bpm)
	}

	reqs := drain(ctrl)
	if len(reqs) != 4 || reqs[3].Kind != RequestBPM || reqs[3].BPM != 40 {
		t.Errorf("unexpected requests %+v", reqs)
	}
}

func TestTimeSignatureCycle(t *testing.T) {
	m := NewModel(nil, "test")
	want := []int{6, 2, 3, 4}
	for _, w := range want {
		m = press(m, "t")
		if m.beatsPerBar != w {
			t.Errorf("expected %d beats, got %d", w, m.beatsPerBar)
		}
	}
}

func TestToggles(t *testing.T) {
	ctrl := NewControls()
	m := press(NewModel(ctrl, "test"), " ", "s")

	if !m.running {
		t.Error("expected metronome toggled on")
	}
	reqs := drain(ctrl)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %+v", reqs)
	}
	if reqs[0].Kind != RequestMetronome || !reqs[0].Running {
		t.Errorf("unexpected metronome request %+v", reqs[0])
	}
	if reqs[1].Kind != RequestTuner || !reqs[1].Running {
		t.Errorf("expected tuner start request, got %+v", reqs[1])
	}
}

func TestQuitSignals(t *testing.T) {
	ctrl := NewControls()
	_, cmd := NewModel(ctrl, "test").Update(key("q"))
	if cmd == nil {
		t.Error("expected quit command")
	}
	select {
	case <-ctrl.Quit:
	default:
		t.Error("expected quit signal")
	}
}

func TestTunerMsg(t *testing.T) {
	m := NewModel(nil, "test")
	next, _ := m.Update(TunerMsg{
		Reading:  &tuner.Reading{Note: "A2", Cents: 12.5, Pitch: 110.8, TargetFreq: 110, IsStable: true},
		Level:    0.2,
		Running:  true,
		Mode:     tuner.ModeManual,
		Selected: "A2",
	})
	m = next.(Model)
	if !m.hasReading || m.reading.Note != "A2" || m.selected != "A2" {
		t.Errorf("unexpected tuner state: %+v", m.reading)
	}

	next, _ = m.Update(TunerMsg{Running: false, Err: "Microphone access was denied."})
	m = next.(Model)
	if m.hasReading {
		t.Error("expected reading cleared when stopped")
	}
	if m.errMsg == "" {
		t.Error("expected error message")
	}
}

func TestMetronomeAndBeatMsgs(t *testing.T) {
	m := NewModel(nil, "test")
	next, _ := m.Update(MetronomeMsg(metronome.Status{BPM: 90, TimeSignature: "3/4", IsRunning: true}))
	m = next.(Model)
	if m.bpm != 90 || m.beatsPerBar != 3 || !m.running {
		t.Errorf("unexpected metronome state: %d %d %v", m.bpm, m.beatsPerBar, m.running)
	}

	next, cmd := m.Update(BeatMsg(metronome.Beat{Index: 3, Accent: true}))
	m = next.(Model)
	if !m.flashing || !m.accent || cmd == nil {
		t.Error("expected accent flash with a timer")
	}

	// a stale timer does not end a newer flash
	stale := flashOffMsg{id: m.flashID - 1}
	next, _ = m.Update(stale)
	m = next.(Model)
	if !m.flashing {
		t.Error("expected flash kept")
	}
	next, _ = m.Update(flashOffMsg{id: m.flashID})
	if next.(Model).flashing {
		t.Error("expected flash off")
	}
}

func TestView(t *testing.T) {
	m := NewModel(nil, "studio")
	if m.View() != "Loading..." {
		t.Error("expected loading view before size is known")
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)
	next, _ = m.Update(TunerMsg{Reading: &tuner.Reading{Note: "D3", Cents: 0, Pitch: 146.8, TargetFreq: 146.83}, Running: true, Spectrum: []float64{0, 0.5, 1}})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"studio", "D3", "146.80 Hz", "bpm"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestRenderNeedle(t *testing.T) {
	if got := renderNeedle(0, 5); got != "--▼--" {
		t.Errorf("expected centred needle, got %q", got)
	}
	if got := renderNeedle(-80, 5); got != "▼-|--" {
		t.Errorf("expected pinned left needle, got %q", got)
	}
	if got := renderNeedle(50, 5); got != "--|-▼" {
		t.Errorf("expected right needle, got %q", got)
	}
}

func TestLevelPercent(t *testing.T) {
	if levelPercent(0) != 0 || levelPercent(1) != 100 || levelPercent(2) != 100 {
		t.Error("unexpected meter limits")
	}
	if p := levelPercent(0.001); p != 0 {
		t.Errorf("expected -60dB to read 0, got %d", p)
	}
}
