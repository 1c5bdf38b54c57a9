//go:build portaudio

// ABOUTME: PortAudio-based audio clock
// ABOUTME: The PortAudio stream callback renders mixer frames directly
package output

import (
	"fmt"
	"log"

	"github.com/gordonklaus/portaudio"
)

// PortAudioClock plays the mixer through a PortAudio callback stream
type PortAudioClock struct {
	*Mixer

	stream *portaudio.Stream
}

// NewPortAudioClock opens the default output at sampleRate
func NewPortAudioClock(sampleRate int) (*PortAudioClock, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	c := &PortAudioClock{Mixer: NewMixer(sampleRate)}
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), 0, func(out []float32) {
		c.Render(out)
	})
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start stream: %w", err)
	}
	c.stream = stream

	log.Printf("Audio clock initialized: %dHz mono (portaudio)", sampleRate)
	return c, nil
}

// Close releases resources
func (c *PortAudioClock) Close() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil {
		return err
	}
	if err := c.stream.Close(); err != nil {
		return err
	}
	c.stream = nil
	c.Clear()
	return portaudio.Terminate()
}
