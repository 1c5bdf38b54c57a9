// ABOUTME: PCM audio encoder
// ABOUTME: Encodes float samples to 16-bit, 24-bit or float32 little-endian bytes
package encode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fretwork/fretwork-go/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	bitDepth int
	float    bool
}

// NewPCM creates a new PCM encoder. Codec "pcm" takes 16 or 24 bits,
// codec "f32" produces IEEE float32 samples.
func NewPCM(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case "f32":
		return &PCMEncoder{bitDepth: 32, float: true}, nil
	case "pcm":
	default:
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Encode converts samples to PCM bytes
func (e *PCMEncoder) Encode(samples []float64) ([]byte, error) {
	switch {
	case e.float:
		output := make([]byte, len(samples)*4)
		for i, sample := range samples {
			binary.LittleEndian.PutUint32(output[i*4:], math.Float32bits(float32(sample)))
		}
		return output, nil
	case e.bitDepth == 24:
		output := make([]byte, len(samples)*3)
		for i, sample := range samples {
			v := SampleToInt24(sample)
			output[i*3] = byte(v)
			output[i*3+1] = byte(v >> 8)
			output[i*3+2] = byte(v >> 16)
		}
		return output, nil
	default:
		output := make([]byte, len(samples)*2)
		for i, sample := range samples {
			binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(sample)))
		}
		return output, nil
	}
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}

// SampleToInt24 converts a float sample to the 24-bit range, clipping
func SampleToInt24(sample float64) int32 {
	v := sample * 8388608
	if v > audio.Max24Bit {
		return audio.Max24Bit
	}
	if v < audio.Min24Bit {
		return audio.Min24Bit
	}
	return int32(v)
}

// PutFloat32 writes samples as float32 little-endian into dst, which must
// hold 4 bytes per sample
func PutFloat32(dst []byte, samples []float32) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}
