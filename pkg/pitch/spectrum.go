// ABOUTME: Analyser-style magnitude spectrum for level display
// ABOUTME: Hann window, real FFT and dB range normalisation
package pitch

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// Analyser decibel range used by the capture configuration
const (
	DefaultMinDecibels = -90.0
	DefaultMaxDecibels = -10.0
)

// Spectrum returns len(frame)/2 magnitude bins scaled into [0,1], where 0
// is minDB or quieter and 1 is maxDB or louder. The frame is not modified.
func Spectrum(frame []float64, minDB, maxDB float64) []float64 {
	n := len(frame)
	if n < 2 || !(maxDB > minDB) {
		return nil
	}

	x := make([]float64, n)
	copy(x, frame)
	window.Apply(x, window.Hann)

	coeffs := fft.FFTReal(x)
	bins := make([]float64, n/2)
	span := maxDB - minDB
	for i := range bins {
		mag := cmplx.Abs(coeffs[i]) / float64(n)
		db := minDB
		if mag > 0 {
			db = 20 * math.Log10(mag)
		}
		if db < minDB {
			db = minDB
		}
		if db > maxDB {
			db = maxDB
		}
		bins[i] = (db - minDB) / span
	}
	return bins
}

// Bands averages bins into count equal-width groups for compact display
func Bands(bins []float64, count int) []float64 {
	if count <= 0 || len(bins) == 0 {
		return nil
	}
	if count > len(bins) {
		count = len(bins)
	}
	out := make([]float64, count)
	per := len(bins) / count
	for b := 0; b < count; b++ {
		start := b * per
		end := start + per
		if b == count-1 {
			end = len(bins)
		}
		out[b] = floats.Sum(bins[start:end]) / float64(end-start)
	}
	return out
}
