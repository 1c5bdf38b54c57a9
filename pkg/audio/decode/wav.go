// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE files to mono float samples via go-audio
package decode

import (
	"fmt"
	"io"

	"github.com/fretwork/fretwork-go/pkg/audio"
	"github.com/go-audio/wav"
)

// DecodeWAV decodes an integer PCM WAV stream
func DecodeWAV(r io.ReadSeeker) (*PCM, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode error: %w", err)
	}

	channels := buf.Format.NumChannels
	bitDepth := int(decoder.BitDepth)
	if channels < 1 {
		return nil, fmt.Errorf("invalid WAV channel count: %d", channels)
	}

	interleaved := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		interleaved[i] = audio.SampleFromBits(int32(v), bitDepth)
	}

	return &PCM{
		Samples:    audio.Downmix(interleaved, channels),
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
	}, nil
}
