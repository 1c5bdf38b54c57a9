// ABOUTME: Audio type definitions
// ABOUTME: Defines capture formats, analysis frames and sample conversions
package audio

import "time"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// Full-scale divisors for normalising integer PCM to [-1,1]
	scale16 = 32768.0
	scale24 = 8388608.0
)

// Format describes a PCM stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Frame is one analysis window of mono samples in [-1,1]
type Frame struct {
	Samples    []float64
	SampleRate int
	CapturedAt time.Time
}

// Duration returns the time span covered by the frame
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
}

// SampleFromInt16 converts a 16-bit sample to a float in [-1,1)
func SampleFromInt16(sample int16) float64 {
	return float64(sample) / scale16
}

// SampleToInt16 converts a float sample to 16-bit, clipping out-of-range values
func SampleToInt16(sample float64) int16 {
	v := sample * scale16
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// SampleFromInt24 converts a sign-extended 24-bit sample to a float
func SampleFromInt24(sample int32) float64 {
	return float64(sample) / scale24
}

// SampleFromBits normalises an integer sample of the given bit depth
func SampleFromBits(sample int32, bitDepth int) float64 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	return float64(sample) / float64(int64(1)<<(bitDepth-1))
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// Downmix averages interleaved channels into a mono signal
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		out[i] = sum / float64(channels)
	}
	return out
}
