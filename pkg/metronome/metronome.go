// ABOUTME: Lookahead metronome scheduler driven by an audio output clock
// ABOUTME: Queues accented clicks ahead of time at exact beat positions
package metronome

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fretwork/fretwork-go/pkg/audio/output"
	"github.com/fretwork/fretwork-go/pkg/tick"
)

// BPM limits applied by user-facing controls
const (
	MinBPM = 40
	MaxBPM = 240
)

// TimeSignatures are the beats-per-bar values offered by the UI
var TimeSignatures = []int{2, 3, 4, 6}

// ClampBPM limits bpm to [MinBPM, MaxBPM]
func ClampBPM(bpm int) int {
	if bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

// Config holds metronome settings
type Config struct {
	BPM         int
	BeatsPerBar int

	// Lookahead is how often the scheduler wakes
	Lookahead time.Duration
	// ScheduleAhead is how far past the clock clicks are queued, in seconds
	ScheduleAhead float64
	// StartOffset delays the first beat after Start, in seconds
	StartOffset float64

	AccentFreq    float64
	BeatFreq      float64
	ClickDuration time.Duration
	ClickLevel    float64
}

// DefaultConfig returns 120 bpm in 4/4
func DefaultConfig() Config {
	return Config{
		BPM:           120,
		BeatsPerBar:   4,
		Lookahead:     25 * time.Millisecond,
		ScheduleAhead: 0.1,
		StartOffset:   0.05,
		AccentFreq:    1000,
		BeatFreq:      800,
		ClickDuration: 50 * time.Millisecond,
		ClickLevel:    0.8,
	}
}

// Status is the published metronome surface
type Status struct {
	BPM           int    `json:"bpm"`
	TimeSignature string `json:"timeSignature"`
	IsRunning     bool   `json:"isRunning"`
}

// Beat is emitted for every queued click. Time is on the audio clock.
type Beat struct {
	Index  int     `json:"index"`
	Accent bool    `json:"accent"`
	Time   float64 `json:"time"`
}

// Clock is the scheduler position, reset on every Start
type Clock struct {
	BPM          int
	BeatsPerBar  int
	NextNoteTime float64
	BeatCount    int
}

// Metronome schedules clicks while running
type Metronome struct {
	cfg   Config
	open  output.Factory
	sched tick.Scheduler

	lifecycle sync.Mutex

	mu           sync.Mutex
	bpm          int
	beatsPerBar  int
	running      bool
	out          output.Clock
	nextNoteTime float64
	beatCount    int
	accentClick  []float32
	beatClick    []float32

	beats chan Beat
}

// New creates a stopped metronome. open is called on every Start.
func New(cfg Config, open output.Factory, sched tick.Scheduler) *Metronome {
	return &Metronome{
		cfg:         cfg,
		open:        open,
		sched:       sched,
		bpm:         cfg.BPM,
		beatsPerBar: cfg.BeatsPerBar,
		beats:       make(chan Beat, 32),
	}
}

// Start opens an audio clock and begins scheduling from StartOffset
// seconds after its current time
func (m *Metronome) Start() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	out, err := m.open()
	if err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}

	n := int(m.cfg.ClickDuration.Seconds() * float64(out.SampleRate()))

	m.mu.Lock()
	m.out = out
	m.accentClick = Click(m.cfg.AccentFreq, n, out.SampleRate(), m.cfg.ClickLevel)
	m.beatClick = Click(m.cfg.BeatFreq, n, out.SampleRate(), m.cfg.ClickLevel)
	m.nextNoteTime = out.CurrentTime() + m.cfg.StartOffset
	m.beatCount = 0
	m.running = true
	queued := m.scheduleLocked()
	m.sched.ScheduleNext(m.step)
	m.mu.Unlock()

	m.emit(queued)
	log.Printf("Metronome started (%d bpm, %d/4)", m.BPM(), m.BeatsPerBar())
	return nil
}

// Stop cancels the scheduler loop and closes the audio clock. Clicks
// already queued are dropped with it. Safe to call when stopped.
func (m *Metronome) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	out := m.out
	m.out = nil
	m.nextNoteTime = 0
	m.beatCount = 0
	m.mu.Unlock()

	m.sched.Cancel()
	if err := out.Close(); err != nil {
		log.Printf("Warning: audio output close error: %v", err)
	}
	log.Printf("Metronome stopped")
}

func (m *Metronome) step(time.Time) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	queued := m.scheduleLocked()
	m.sched.ScheduleNext(m.step)
	m.mu.Unlock()

	m.emit(queued)
}

// scheduleLocked queues every beat due before the lookahead horizon.
// BPM and time signature are read per beat.
func (m *Metronome) scheduleLocked() []Beat {
	var queued []Beat
	horizon := m.out.CurrentTime() + m.cfg.ScheduleAhead
	for m.nextNoteTime < horizon {
		accent := m.beatCount%m.beatsPerBar == 0
		click := m.beatClick
		if accent {
			click = m.accentClick
		}
		m.out.Schedule(m.nextNoteTime, click)
		queued = append(queued, Beat{Index: m.beatCount, Accent: accent, Time: m.nextNoteTime})

		m.nextNoteTime += 60 / float64(m.bpm)
		m.beatCount++
	}
	return queued
}

// emit hands beats to the visual channel, dropping them if nobody reads
func (m *Metronome) emit(beats []Beat) {
	for _, b := range beats {
		select {
		case m.beats <- b:
		default:
		}
	}
}

// SetBPM changes the tempo from the next beat interval. Values below 1
// are ignored; clamping to the UI range is the caller's job.
func (m *Metronome) SetBPM(bpm int) {
	if bpm < 1 {
		log.Printf("Ignoring invalid bpm: %d", bpm)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bpm = bpm
}

// SetBeatsPerBar changes the time signature and makes the next beat a
// downbeat
func (m *Metronome) SetBeatsPerBar(beats int) {
	if beats < 1 {
		log.Printf("Ignoring invalid beats per bar: %d", beats)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beatsPerBar = beats
	m.beatCount = 0
}

// BPM returns the current tempo
func (m *Metronome) BPM() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bpm
}

// BeatsPerBar returns the current time signature numerator
func (m *Metronome) BeatsPerBar() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beatsPerBar
}

// Running reports whether clicks are being scheduled
func (m *Metronome) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Status returns the published view
func (m *Metronome) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		BPM:           m.bpm,
		TimeSignature: fmt.Sprintf("%d/4", m.beatsPerBar),
		IsRunning:     m.running,
	}
}

// Clock returns the scheduler position
func (m *Metronome) Clock() Clock {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Clock{
		BPM:          m.bpm,
		BeatsPerBar:  m.beatsPerBar,
		NextNoteTime: m.nextNoteTime,
		BeatCount:    m.beatCount,
	}
}

// AudioTime returns the output clock position in seconds, or 0 when
// stopped
func (m *Metronome) AudioTime() float64 {
	m.mu.Lock()
	out := m.out
	m.mu.Unlock()
	if out == nil {
		return 0
	}
	return out.CurrentTime()
}

// Beats delivers queued beats for visual accents. Beats arrive up to
// ScheduleAhead seconds before they sound; compare Time with the audio
// clock to flash on time.
func (m *Metronome) Beats() <-chan Beat {
	return m.beats
}
