// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Frame, the capture ring window and sample conversions
// Package audio provides the sample types shared by capture, decoding and
// playback.
//
// Samples are float64 in [-1,1] throughout. The package defines:
//   - Format: Describes a PCM stream (codec, sample rate, channels, bit depth)
//   - Frame: One mono analysis window with its capture time
//   - Window: A ring buffer holding the most recent samples from a device
//
// It also provides conversions from 16-bit and 24-bit integer PCM and a
// channel downmix.
//
// Example:
//
//	w := audio.NewWindow(32768)
//	w.Write(audio.Downmix(interleaved, 2))
//
//	frame := make([]float64, w.Size())
//	w.Snapshot(frame)
package audio
