// ABOUTME: Tuner configuration
// ABOUTME: Empirically tuned stabilizer thresholds with their defaults
package tuner

import (
	"time"

	"github.com/fretwork/fretwork-go/pkg/audio/capture"
	"github.com/fretwork/fretwork-go/pkg/pitch"
)

// Config holds the stabilizer thresholds and the capture request
type Config struct {
	HistorySize     int           // pitches kept for smoothing
	MinHistory      int           // entries needed before averaging
	WeightFloor     float64       // minimum confidence weight
	StabilityHz     float64       // max drift between agreeing ticks
	StableTicks     int           // agreeing ticks before publishing
	HysteresisCents float64       // auto mode note-switch resistance
	DeadzoneCents   float64       // |cents| below this reads as 0
	ManualGateCents float64       // manual mode discard limit
	PublishInterval time.Duration // minimum time between readings
	MinFreq         float64
	MaxFreq         float64

	// SpectrumBands is the number of level meter bands; 0 disables it
	SpectrumBands int

	Capture capture.Config
	Pitch   pitch.Config
}

// DefaultConfig returns the standard tuner settings
func DefaultConfig() Config {
	return Config{
		HistorySize:     8,
		MinHistory:      3,
		WeightFloor:     0.1,
		StabilityHz:     2.0,
		StableTicks:     2,
		HysteresisCents: 20,
		DeadzoneCents:   6,
		ManualGateCents: 150,
		PublishInterval: 50 * time.Millisecond,
		MinFreq:         70,
		MaxFreq:         500,
		SpectrumBands:   24,
		Capture:         capture.DefaultConfig(),
		Pitch:           pitch.DefaultConfig(),
	}
}
