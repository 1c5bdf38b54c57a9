// ABOUTME: Audio capture capability shared by microphone, file and synthetic sources
// ABOUTME: Defines capture configuration and device access errors
package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fretwork/fretwork-go/pkg/audio"
)

// Source delivers analysis frames from some audio input
type Source interface {
	// Open acquires the input with the given configuration
	Open(cfg Config) error
	// Read returns the most recent FrameSize samples without blocking
	Read() (audio.Frame, error)
	// Close releases the input. Safe to call more than once.
	Close() error
}

// Config describes the requested input stream and analysis window
type Config struct {
	SampleRate int
	Channels   int
	BitDepth   int
	// FrameSize is the analysis window length in samples
	FrameSize int

	// Platform voice processing; pitch analysis needs all three off
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool

	// Analyser display range
	MinDecibels float64
	MaxDecibels float64

	// Device selects an input by name prefix; empty means system default
	Device string
}

// DefaultConfig returns the tuner capture configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:  44100,
		Channels:    1,
		BitDepth:    16,
		FrameSize:   32768,
		MinDecibels: -90,
		MaxDecibels: -10,
	}
}

// Validate checks that the configuration can be opened
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.Channels < 1 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	if c.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth: %d (supported: 16)", c.BitDepth)
	}
	if c.FrameSize < 2 {
		return fmt.Errorf("invalid frame size: %d", c.FrameSize)
	}
	if c.MaxDecibels <= c.MinDecibels {
		return fmt.Errorf("invalid decibel range: [%v, %v]", c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// Reason classifies why an input could not be acquired
type Reason string

const (
	ReasonPermissionDenied Reason = "permission denied"
	ReasonUnsupported      Reason = "unsupported"
	ReasonNoDevice         Reason = "no device"
)

// DeviceAccessError reports a failure to acquire the input device
type DeviceAccessError struct {
	Reason Reason
	Err    error
}

func (e *DeviceAccessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("audio input %s", e.Reason)
	}
	return fmt.Sprintf("audio input %s: %v", e.Reason, e.Err)
}

func (e *DeviceAccessError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user
func (e *DeviceAccessError) Message() string {
	switch e.Reason {
	case ReasonPermissionDenied:
		return "Microphone access was denied. Allow access and start the tuner again."
	case ReasonNoDevice:
		return "No microphone was found. Connect one and start the tuner again."
	default:
		return "Audio input is not available on this system."
	}
}

// ErrNotOpen is returned by Read before Open or after Close
var ErrNotOpen = errors.New("capture source not open")

// deviceError wraps a backend failure, guessing the reason from its text
func deviceError(err error) *DeviceAccessError {
	msg := strings.ToLower(err.Error())
	reason := ReasonUnsupported
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "denied"), strings.Contains(msg, "access"):
		reason = ReasonPermissionDenied
	case strings.Contains(msg, "no device"), strings.Contains(msg, "not found"), strings.Contains(msg, "no input"):
		reason = ReasonNoDevice
	}
	return &DeviceAccessError{Reason: reason, Err: err}
}
