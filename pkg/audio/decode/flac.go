// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes whole FLAC streams to mono float samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/fretwork/fretwork-go/pkg/audio"
	"github.com/mewkiz/flac"
)

// DecodeFLAC decodes a FLAC stream frame by frame
func DecodeFLAC(r io.Reader) (*PCM, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if channels < 1 {
		return nil, fmt.Errorf("invalid FLAC channel count: %d", channels)
	}

	var samples []float64
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("flac frame: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			sum := 0.0
			for ch := 0; ch < channels; ch++ {
				sum += audio.SampleFromBits(frame.Subframes[ch].Samples[i], bitDepth)
			}
			samples = append(samples, sum/float64(channels))
		}
	}

	return &PCM{
		Samples:    samples,
		SampleRate: int(info.SampleRate),
		Channels:   channels,
	}, nil
}
