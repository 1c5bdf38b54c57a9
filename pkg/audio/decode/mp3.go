// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes whole MP3 streams to mono float samples
package decode

import (
	"fmt"
	"io"

	"github.com/fretwork/fretwork-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 decodes an MP3 stream. go-mp3 always yields 16-bit stereo.
func DecodeMP3(r io.Reader) (*PCM, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	pcm, _ := NewPCM(audio.Format{Codec: "pcm", BitDepth: 16})
	interleaved, err := pcm.Decode(raw)
	if err != nil {
		return nil, err
	}

	return &PCM{
		Samples:    audio.Downmix(interleaved, 2),
		SampleRate: decoder.SampleRate(),
		Channels:   2,
	}, nil
}
