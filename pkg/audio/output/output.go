// ABOUTME: Audio clock interface and backend selection
// ABOUTME: A clock is a playback device whose rendered frames define time
package output

import (
	"fmt"
	"strings"
)

// Clock is an audio output whose position is the timebase for scheduling.
// Times are seconds since the clock was opened.
type Clock interface {
	// CurrentTime returns the time of the next frame to be rendered
	CurrentTime() float64
	// Schedule queues mono samples to start exactly at time at
	Schedule(at float64, samples []float32)
	// SampleRate returns the output rate in Hz
	SampleRate() int
	// Close stops playback and releases the device
	Close() error
}

// Factory opens a fresh clock
type Factory func() (Clock, error)

// Backends lists the playback backend names NewFactory accepts
var Backends = []string{"oto", "malgo", "portaudio"}

// NewFactory returns a clock factory for the named backend
func NewFactory(backend string, sampleRate int) (Factory, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	switch strings.ToLower(backend) {
	case "oto", "":
		return func() (Clock, error) { return NewOtoClock(sampleRate) }, nil
	case "malgo":
		return func() (Clock, error) { return NewMalgoClock(sampleRate) }, nil
	case "portaudio":
		return func() (Clock, error) { return NewPortAudioClock(sampleRate) }, nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s (supported: %s)", backend, strings.Join(Backends, ", "))
	}
}

// applyVolume scales samples in place with clipping protection
func applyVolume(samples []float32, volume int, muted bool) {
	multiplier := float32(getVolumeMultiplier(volume, muted))
	if multiplier == 1 {
		return
	}
	for i, s := range samples {
		v := s * multiplier
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		samples[i] = v
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
