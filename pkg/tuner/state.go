// ABOUTME: Per-tick smoothing and note mapping for the tuner
// ABOUTME: Turns a stream of pitch estimates into throttled stable readings
package tuner

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fretwork/fretwork-go/pkg/notes"
	"github.com/fretwork/fretwork-go/pkg/pitch"
	"gonum.org/v1/gonum/stat"
)

// Mode selects how a stable pitch is mapped to a note
type Mode int

const (
	// ModeAuto follows the nearest open string
	ModeAuto Mode = iota
	// ModeManual measures against one chosen string
	ModeManual
)

func (m Mode) String() string {
	if m == ModeManual {
		return "manual"
	}
	return "auto"
}

// ParseMode parses "auto" or "manual"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "auto":
		return ModeAuto, nil
	case "manual":
		return ModeManual, nil
	default:
		return ModeAuto, fmt.Errorf("unknown tuner mode: %s", s)
	}
}

// Reading is what the tuner publishes
type Reading struct {
	Pitch      float64 `json:"pitch"`
	Note       string  `json:"note"`
	Cents      float64 `json:"cents"`
	TargetFreq float64 `json:"targetFreq"`
	Confidence float64 `json:"confidence"`
	IsStable   bool    `json:"isStable"`
}

// SkipReason says why a tick produced no reading
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipSilent: the estimator found no pitch
	SkipSilent
	// SkipUnstable: the smoothed pitch has not settled
	SkipUnstable
	// SkipOutOfBand: outside the frequency band or the manual gate
	SkipOutOfBand
	// SkipThrottled: stable, but too soon after the last reading
	SkipThrottled
)

func (r SkipReason) String() string {
	switch r {
	case SkipSilent:
		return "silent"
	case SkipUnstable:
		return "unstable"
	case SkipOutOfBand:
		return "out of band"
	case SkipThrottled:
		return "throttled"
	default:
		return "none"
	}
}

// State is the smoothing state owned by one running tuner
type State struct {
	cfg Config

	pitches     []float64
	confidences []float64
	stableCount int
	lastPitch   float64
	lastPublish time.Time
	currentNote string
}

// NewState creates empty smoothing state
func NewState(cfg Config) *State {
	return &State{
		cfg:         cfg,
		pitches:     make([]float64, 0, cfg.HistorySize),
		confidences: make([]float64, 0, cfg.HistorySize),
	}
}

// Step advances the state by one tick. selected names the target string
// in manual mode.
func (s *State) Step(est *pitch.Estimate, mode Mode, selected string, now time.Time) (Reading, SkipReason) {
	if est == nil {
		s.stableCount = 0
		return Reading{}, SkipSilent
	}

	freq := est.Frequency
	for freq > s.cfg.MaxFreq {
		freq /= 2
	}

	s.push(freq, est.Confidence)
	smoothed := s.smoothed(freq)

	if math.Abs(smoothed-s.lastPitch) > s.cfg.StabilityHz {
		s.stableCount = 0
		s.lastPitch = smoothed
	} else {
		s.stableCount++
	}
	if s.stableCount < s.cfg.StableTicks {
		return Reading{}, SkipUnstable
	}

	if smoothed < s.cfg.MinFreq || smoothed > s.cfg.MaxFreq {
		return Reading{}, SkipOutOfBand
	}

	var reading Reading
	var ok bool
	if mode == ModeManual {
		reading, ok = s.mapManual(smoothed, selected)
	} else {
		reading, ok = s.mapAuto(smoothed)
	}
	if !ok {
		return Reading{}, SkipOutOfBand
	}

	if !s.lastPublish.IsZero() && now.Sub(s.lastPublish) < s.cfg.PublishInterval {
		return Reading{}, SkipThrottled
	}
	s.lastPublish = now
	s.currentNote = reading.Note

	reading.Pitch = smoothed
	reading.Confidence = est.Confidence
	reading.IsStable = true
	return reading, SkipNone
}

func (s *State) push(freq, confidence float64) {
	if len(s.pitches) == s.cfg.HistorySize {
		copy(s.pitches, s.pitches[1:])
		copy(s.confidences, s.confidences[1:])
		s.pitches = s.pitches[:len(s.pitches)-1]
		s.confidences = s.confidences[:len(s.confidences)-1]
	}
	s.pitches = append(s.pitches, freq)
	s.confidences = append(s.confidences, confidence)
}

// smoothed is the confidence-weighted mean of the history once it holds
// MinHistory entries, else the latest pitch
func (s *State) smoothed(latest float64) float64 {
	if len(s.pitches) < s.cfg.MinHistory {
		return latest
	}
	weights := make([]float64, len(s.confidences))
	for i, c := range s.confidences {
		weights[i] = math.Max(c, s.cfg.WeightFloor)
	}
	return stat.Mean(s.pitches, weights)
}

// mapAuto classifies against the nearest string, holding the displayed
// note while the new one is still within the hysteresis band
func (s *State) mapAuto(freq float64) (Reading, bool) {
	m := notes.FindClosest(freq)
	if m == nil {
		return Reading{}, false
	}

	note, target, cents := m.Note, m.TargetFreq, m.Cents
	if s.currentNote != "" && m.Note != s.currentNote && math.Abs(m.Cents) < s.cfg.HysteresisCents {
		if prev, ok := notes.ByName(s.currentNote); ok {
			note, target = prev.Name, prev.Frequency
			cents = notes.Cents(freq, target)
		}
	}

	return Reading{Note: note, TargetFreq: target, Cents: s.deadzone(cents)}, true
}

// mapManual measures against the selected string and drops readings
// beyond the manual gate
func (s *State) mapManual(freq float64, selected string) (Reading, bool) {
	target, ok := notes.ByName(selected)
	if !ok {
		return Reading{}, false
	}

	cents := notes.Cents(freq, target.Frequency)
	if math.Abs(cents) > s.cfg.ManualGateCents {
		return Reading{}, false
	}

	return Reading{Note: target.Name, TargetFreq: target.Frequency, Cents: s.deadzone(cents)}, true
}

func (s *State) deadzone(cents float64) float64 {
	if math.Abs(cents) < s.cfg.DeadzoneCents {
		return 0
	}
	return cents
}

// History returns the buffered pitches oldest first
func (s *State) History() []float64 {
	out := make([]float64, len(s.pitches))
	copy(out, s.pitches)
	return out
}

// StableCount returns the number of consecutive agreeing ticks
func (s *State) StableCount() int {
	return s.stableCount
}

// CurrentNote returns the last published note
func (s *State) CurrentNote() string {
	return s.currentNote
}
