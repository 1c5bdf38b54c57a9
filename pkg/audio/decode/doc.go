// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides the chunk Decoder interface and whole-file decoders
// Package decode provides audio decoders for various codecs.
//
// Supports: PCM (16-bit and 24-bit), WAV, FLAC, MP3
//
// Chunk decoders implement the Decoder interface and output float samples
// in [-1,1]. Whole-file decoding downmixes to mono for analysis.
//
// Example:
//
//	pcm, err := decode.File("open-a.wav")
//	est := pitch.Detect(pcm.Samples[:4096], float64(pcm.SampleRate))
package decode
