// ABOUTME: Audio output package providing clock-driven playback backends
// ABOUTME: Provides the Clock interface, Mixer and oto/malgo/portaudio backends
// Package output provides audio playback as a scheduling clock.
//
// Each backend wraps a Mixer. Sounds are queued with Schedule at an
// absolute clock time and start on that exact frame; CurrentTime is the
// number of frames the device has pulled, so it advances with the
// hardware rather than the wall clock.
//
// Backends:
//   - Oto: ebitengine/oto player (default)
//   - Malgo: miniaudio playback callback
//   - PortAudio: requires -tags portaudio
//   - ManualClock: advanced explicitly, for tests and offline rendering
//
// Example:
//
//	clock, err := output.NewOtoClock(44100)
//	clock.Schedule(clock.CurrentTime()+0.1, click)
package output
