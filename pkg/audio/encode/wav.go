// ABOUTME: WAV file writer
// ABOUTME: Writes mono float signals as integer PCM WAV via go-audio
package encode

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavPCMFormat is the RIFF format tag for integer PCM
const wavPCMFormat = 1

// WriteWAV writes a mono signal as a 16 or 24-bit PCM WAV
func WriteWAV(w io.WriteSeeker, samples []float64, sampleRate, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", bitDepth)
	}

	scale := float64(int64(1) << (bitDepth - 1))
	maxVal := int(scale) - 1
	minVal := -int(scale)
	data := make([]int, len(samples))
	for i, s := range samples {
		v := int(s * scale)
		if v > maxVal {
			v = maxVal
		} else if v < minVal {
			v = minVal
		}
		data[i] = v
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, wavPCMFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav write: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav close: %w", err)
	}
	return nil
}
