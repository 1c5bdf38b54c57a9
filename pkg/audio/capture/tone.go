// ABOUTME: Synthetic sine capture source for demos and tests
// ABOUTME: Produces a continuous tone whose frequency can change live
package capture

import (
	"math"
	"sync"
	"time"

	"github.com/fretwork/fretwork-go/pkg/audio"
)

// Tone generates a sine wave as if captured from a microphone. Each Read
// advances the signal by Hop samples so consecutive frames overlap.
type Tone struct {
	mu        sync.Mutex
	frequency float64
	amplitude float64
	hop       int
	cfg       Config
	position  int64
	open      bool
}

// NewTone creates a tone source. A hop of zero advances one 60Hz display
// frame per Read.
func NewTone(frequency, amplitude float64, hop int) *Tone {
	return &Tone{frequency: frequency, amplitude: amplitude, hop: hop}
}

// Open records the configuration
func (t *Tone) Open(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return &DeviceAccessError{Reason: ReasonUnsupported, Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = cfg
	t.open = true
	if t.hop <= 0 {
		t.hop = cfg.SampleRate / 60
	}
	return nil
}

// SetFrequency changes the tone from the next Read
func (t *Tone) SetFrequency(freq float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frequency = freq
}

// Frequency returns the current tone frequency
func (t *Tone) Frequency() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frequency
}

// Read synthesizes the next frame
func (t *Tone) Read() (audio.Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return audio.Frame{}, ErrNotOpen
	}

	n := t.cfg.FrameSize
	rate := float64(t.cfg.SampleRate)
	samples := make([]float64, n)
	for i := range samples {
		pos := float64(t.position + int64(i))
		samples[i] = t.amplitude * math.Sin(2*math.Pi*t.frequency*pos/rate)
	}
	t.position += int64(t.hop)

	return audio.Frame{Samples: samples, SampleRate: t.cfg.SampleRate, CapturedAt: time.Now()}, nil
}

// Close marks the source closed
func (t *Tone) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = false
	return nil
}
