// ABOUTME: Click synthesis for the metronome
// ABOUTME: Short sine bursts with an exponential decay envelope
package metronome

import "math"

// clickFloor is the envelope level reached at the end of a click
const clickFloor = 0.001

// Click returns a sine burst of freq Hz lasting n samples at sampleRate.
// The envelope starts at level and decays exponentially to clickFloor
// times level.
func Click(freq float64, n, sampleRate int, level float64) []float32 {
	if n <= 0 || sampleRate <= 0 {
		return nil
	}

	out := make([]float32, n)
	decay := math.Log(clickFloor) / float64(n)
	for i := range out {
		env := level * math.Exp(decay*float64(i))
		out[i] = float32(env * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}
