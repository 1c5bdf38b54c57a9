// ABOUTME: Audio encoder package for encoding float signals to byte formats
// ABOUTME: Provides Encoder interface, PCM/float32 encoders and a WAV writer
// Package encode provides audio encoders.
//
// Supports: PCM (16-bit and 24-bit), float32 little-endian, WAV files
//
// All encoders accept float samples in [-1,1]; out-of-range values clip.
//
// Example:
//
//	encoder, err := encode.NewPCM(audio.Format{Codec: "pcm", BitDepth: 16})
//	data, err := encoder.Encode(samples)
package encode
