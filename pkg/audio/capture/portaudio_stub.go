//go:build !portaudio

// ABOUTME: PortAudio capture stub when library not available
// ABOUTME: Reports the backend as unsupported so callers can fall back
package capture

import (
	"errors"

	"github.com/fretwork/fretwork-go/pkg/audio"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio capture implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio capture source
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open always fails without the portaudio build tag
func (p *PortAudio) Open(cfg Config) error {
	return &DeviceAccessError{Reason: ReasonUnsupported, Err: errPortAudioDisabled}
}

// Read always fails without the portaudio build tag
func (p *PortAudio) Read() (audio.Frame, error) {
	return audio.Frame{}, ErrNotOpen
}

// Close is a no-op
func (p *PortAudio) Close() error {
	return nil
}
