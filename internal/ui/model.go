// ABOUTME: Bubbletea model for the tuner and metronome TUI
// ABOUTME: Defines display state, key handling and rendering
package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fretwork/fretwork-go/pkg/metronome"
	"github.com/fretwork/fretwork-go/pkg/notes"
	"github.com/fretwork/fretwork-go/pkg/tuner"
)

// flashDuration is how long a beat lights the metronome panel
const flashDuration = 120 * time.Millisecond

// needleRange is the cents span shown either side of the needle centre
const needleRange = 50.0

// Model represents the TUI state
type Model struct {
	name string
	ctrl *Controls

	// Tuner
	reading      tuner.Reading
	hasReading   bool
	mode         tuner.Mode
	selected     string
	level        float64
	spectrum     []float64
	tunerRunning bool
	errMsg       string

	// Metronome
	bpm         int
	beatsPerBar int
	running     bool
	flashing    bool
	accent      bool
	beatIndex   int
	flashID     int

	publisherAddr string
	displays      int

	width  int
	height int
}

// TunerMsg updates the tuner panel
type TunerMsg struct {
	Reading  *tuner.Reading
	Level    float64
	Spectrum []float64
	Running  bool
	Mode     tuner.Mode
	Selected string
	Err      string
}

// MetronomeMsg updates the metronome panel
type MetronomeMsg metronome.Status

// BeatMsg flashes the metronome panel
type BeatMsg metronome.Beat

// PublisherMsg reports the websocket publisher
type PublisherMsg struct {
	Addr     string
	Displays int
}

type flashOffMsg struct{ id int }

// NewModel creates a new TUI model
func NewModel(ctrl *Controls, name string) Model {
	return Model{
		name:        name,
		ctrl:        ctrl,
		selected:    notes.Standard[0].Name,
		bpm:         120,
		beatsPerBar: 4,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case TunerMsg:
		m.applyTuner(msg)
	case MetronomeMsg:
		m.bpm = msg.BPM
		m.running = msg.IsRunning
		fmt.Sscanf(msg.TimeSignature, "%d/", &m.beatsPerBar)
	case BeatMsg:
		m.flashID++
		m.flashing = true
		m.accent = msg.Accent
		m.beatIndex = msg.Index
		id := m.flashID
		return m, tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashOffMsg{id: id} })
	case flashOffMsg:
		if msg.id == m.flashID {
			m.flashing = false
		}
	case PublisherMsg:
		m.publisherAddr = msg.Addr
		m.displays = msg.Displays
	}

	return m, nil
}

func (m *Model) applyTuner(msg TunerMsg) {
	if msg.Reading != nil {
		m.reading = *msg.Reading
		m.hasReading = true
	}
	m.level = msg.Level
	m.spectrum = msg.Spectrum
	m.tunerRunning = msg.Running
	m.mode = msg.Mode
	if msg.Selected != "" {
		m.selected = msg.Selected
	}
	m.errMsg = msg.Err
	if !msg.Running {
		m.hasReading = false
	}
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		if m.ctrl != nil {
			select {
			case m.ctrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "a":
		m.mode = tuner.ModeAuto
		m.request(Request{Kind: RequestMode, Mode: tuner.ModeAuto})
	case "1", "2", "3", "4", "5", "6":
		// 1 is the high E string, as on a guitar
		idx := len(notes.Standard) - int(key[0]-'0')
		m.mode = tuner.ModeManual
		m.selected = notes.Standard[idx].Name
		m.request(Request{Kind: RequestMode, Mode: tuner.ModeManual})
		m.request(Request{Kind: RequestString, String: m.selected})
	case "s":
		m.request(Request{Kind: RequestTuner, Running: !m.tunerRunning})
	case " ":
		m.running = !m.running
		m.request(Request{Kind: RequestMetronome, Running: m.running})
	case "+", "=", "up":
		m.bpm = metronome.ClampBPM(m.bpm + 5)
		m.request(Request{Kind: RequestBPM, BPM: m.bpm})
	case "-", "down":
		m.bpm = metronome.ClampBPM(m.bpm - 5)
		m.request(Request{Kind: RequestBPM, BPM: m.bpm})
	case "t":
		m.beatsPerBar = nextTimeSignature(m.beatsPerBar)
		m.request(Request{Kind: RequestTimeSignature, BeatsPerBar: m.beatsPerBar})
	}

	return m, nil
}

func (m Model) request(r Request) {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Requests <- r:
	default:
	}
}

func nextTimeSignature(current int) int {
	for i, ts := range metronome.TimeSignatures {
		if ts == current {
			return metronome.TimeSignatures[(i+1)%len(metronome.TimeSignatures)]
		}
	}
	return metronome.TimeSignatures[0]
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	noteStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231"))
	inTuneStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	offStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	accentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("205"))
	beatStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("86"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Fretwork " + m.name))
	if m.publisherAddr != "" {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  ws %s (%d displays)", m.publisherAddr, m.displays)))
	}
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.renderTuner()),
		panelStyle.Render(m.renderMetronome()),
	))
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderTuner() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Tuner "))
	mode := "auto"
	if m.mode == tuner.ModeManual {
		mode = "manual " + m.selected
	}
	b.WriteString(valueStyle.Render(mode))
	b.WriteString("\n\n")

	switch {
	case m.errMsg != "":
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	case !m.tunerRunning:
		b.WriteString(valueStyle.Render("Stopped (s to start)"))
		b.WriteString("\n")
	case !m.hasReading:
		b.WriteString(valueStyle.Render("Play a string..."))
		b.WriteString("\n")
	default:
		r := m.reading
		style := offStyle
		if r.Cents == 0 {
			style = inTuneStyle
		}
		b.WriteString(noteStyle.Render(fmt.Sprintf("%-3s", r.Note)))
		b.WriteString(style.Render(fmt.Sprintf(" %+6.1f cents", r.Cents)))
		b.WriteString("\n")
		b.WriteString(renderNeedle(r.Cents, 41))
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.2f Hz (target %.2f)  conf %.0f%%",
			r.Pitch, r.TargetFreq, r.Confidence*100)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Level "))
	b.WriteString(renderBar(levelPercent(m.level), 100, 20))
	b.WriteString("\n")
	b.WriteString(renderSpectrum(m.spectrum))
	return b.String()
}

func (m Model) renderMetronome() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metronome"))
	b.WriteString("\n\n")
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d bpm  %d/4", m.bpm, m.beatsPerBar)))
	b.WriteString("\n")

	state := "stopped"
	if m.running {
		state = "running"
	}
	b.WriteString(valueStyle.Render(state))
	b.WriteString("\n\n")

	cells := make([]string, m.beatsPerBar)
	for i := range cells {
		cells[i] = faintStyle.Render(" · ")
	}
	if m.flashing && m.beatsPerBar > 0 {
		pos := m.beatIndex % m.beatsPerBar
		if m.accent {
			cells[pos] = accentStyle.Render(" ● ")
		} else {
			cells[pos] = beatStyle.Render(" ● ")
		}
	}
	b.WriteString(strings.Join(cells, ""))
	return b.String()
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return faintStyle.Render("a:Auto  1-6:String  s:Tuner  space:Metronome  +/-:BPM  t:Time sig  q:Quit")
}

// renderNeedle draws a cents scale of width cells with a marker
func renderNeedle(cents float64, width int) string {
	c := math.Max(-needleRange, math.Min(needleRange, cents))
	centre := width / 2
	pos := centre + int(math.Round(c/needleRange*float64(centre)))

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == pos:
			b.WriteString("▼")
		case i == centre:
			b.WriteString("|")
		default:
			b.WriteString("-")
		}
	}
	return b.String()
}

// levelPercent maps RMS onto a 0-100 meter over a -60..0 dBFS range
func levelPercent(rms float64) int {
	if rms <= 0 {
		return 0
	}
	db := 20 * math.Log10(rms)
	pct := int((db + 60) / 60 * 100)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

var sparks = []rune(" ▁▂▃▄▅▆▇█")

func renderSpectrum(bands []float64) string {
	var b strings.Builder
	for _, v := range bands {
		idx := int(v * float64(len(sparks)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparks) {
			idx = len(sparks) - 1
		}
		b.WriteRune(sparks[idx])
	}
	return b.String()
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}
