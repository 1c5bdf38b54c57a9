// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling of float samples, in one call
// or streamed chunk by chunk.
//
// Example:
//
//	r := resample.New(48000, 44100, 1)
//	out := r.Resample(chunk)
package resample
