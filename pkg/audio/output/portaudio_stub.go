//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"fmt"
)

// PortAudioClock output implementation (stub)
type PortAudioClock struct {
	*Mixer
}

// NewPortAudioClock fails without the portaudio build tag
func NewPortAudioClock(sampleRate int) (*PortAudioClock, error) {
	return nil, fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Close releases resources
func (c *PortAudioClock) Close() error {
	return nil
}
