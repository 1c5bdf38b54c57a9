// ABOUTME: Audio capture package
// ABOUTME: Microphone, file and synthetic sources behind one interface
// Package capture provides audio input sources for analysis.
//
// Every source implements Source: Open acquires the input, Read returns the
// latest FrameSize samples as an audio.Frame without blocking, Close
// releases it. Device callbacks only copy samples into a window; all DSP
// runs on the caller's tick.
//
// Backends:
//   - Malgo: miniaudio capture (default)
//   - PortAudio: requires -tags portaudio
//   - File: replays .wav/.mp3/.flac recordings
//   - Tone: synthetic sine for demos and tests
//
// Acquisition failures are returned as *DeviceAccessError.
package capture
