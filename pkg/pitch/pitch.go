// ABOUTME: YIN fundamental frequency estimator for guitar-range audio
// ABOUTME: Pure per-frame pitch, confidence and loudness estimation
package pitch

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Tier tells how the lag of an estimate was chosen
type Tier int

const (
	// TierThreshold means a dip crossed the adaptive threshold
	TierThreshold Tier = iota
	// TierFallback means no dip crossed and the global minimum was used
	TierFallback
)

func (t Tier) String() string {
	if t == TierFallback {
		return "fallback"
	}
	return "threshold"
}

// Estimate is a pitch reading for one frame
type Estimate struct {
	Frequency  float64 `json:"frequency"`
	Confidence float64 `json:"confidence"`
	Loudness   float64 `json:"loudness"`
	Tier       Tier    `json:"tier"`
}

// Config holds the estimator constants
type Config struct {
	MinFreq       float64 // lowest accepted fundamental (Hz)
	MaxFreq       float64 // highest accepted fundamental (Hz)
	NoiseFloor    float64 // RMS below this is treated as silence
	PreEmphasis   float64 // first-order high-pass coefficient
	BaseThreshold float64 // YIN threshold before loudness scaling
	LoudnessRef   float64 // RMS that counts as "loud"
}

// DefaultConfig returns the guitar tuner constants
func DefaultConfig() Config {
	return Config{
		MinFreq:       70,
		MaxFreq:       500,
		NoiseFloor:    0.001,
		PreEmphasis:   0.97,
		BaseThreshold: 0.1,
		LoudnessRef:   0.01,
	}
}

// Detector runs the YIN estimator with a fixed configuration.
// It holds no per-frame state and is safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

var defaultDetector = NewDetector(DefaultConfig())

// Detect runs the default detector over one frame
func Detect(frame []float64, sampleRate float64) *Estimate {
	return defaultDetector.Estimate(frame, sampleRate)
}

// RMS returns the root mean square of samples
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(samples, samples) / float64(len(samples)))
}

// Estimate returns the fundamental of frame, or nil when the frame is
// silent, ambiguous or the input is unusable. The caller's slice is
// never modified.
func (d *Detector) Estimate(frame []float64, sampleRate float64) *Estimate {
	cfg := d.cfg
	n := len(frame)
	if n == 0 || !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil
	}

	// DC removal on a private copy
	x := make([]float64, n)
	copy(x, frame)
	floats.AddConst(-floats.Sum(x)/float64(n), x)

	rms := RMS(x)
	if !(rms >= cfg.NoiseFloor) {
		return nil
	}

	// Pre-emphasis; the sample before the frame is taken to equal x[0]
	y := make([]float64, n)
	y[0] = (1 - cfg.PreEmphasis) * x[0]
	for i := 1; i < n; i++ {
		y[i] = x[i] - cfg.PreEmphasis*x[i-1]
	}

	minTau := int(sampleRate / cfg.MaxFreq)
	maxTau := int(sampleRate / cfg.MinFreq)
	if maxTau > n/2 {
		maxTau = n / 2
	}
	if minTau < 1 || maxTau-minTau < 2 {
		return nil
	}

	yin := cumulativeMeanNormalized(y, minTau, maxTau)

	threshold := cfg.BaseThreshold * (1 + math.Min(0.5, rms/cfg.LoudnessRef))
	tau, tier := pickLag(yin, minTau, maxTau, threshold)
	minYin := yin[tau-minTau]

	period := float64(tau)
	if tau > minTau && tau < maxTau {
		period += parabolicShift(yin[tau-minTau-1], minYin, yin[tau-minTau+1])
	}

	freq := sampleRate / period
	if math.IsNaN(freq) || math.IsInf(freq, 0) || freq <= 0 || freq < cfg.MinFreq || freq > cfg.MaxFreq {
		return nil
	}

	return &Estimate{
		Frequency:  freq,
		Confidence: clamp01((1 - minYin) * (rms / cfg.LoudnessRef)),
		Loudness:   rms,
		Tier:       tier,
	}
}

// cumulativeMeanNormalized returns the YIN function for lags
// minTau..maxTau, indexed from minTau. The difference window is maxTau
// samples long. The running sum covers every lag from 1 so values near
// minTau are not inflated; yin[minTau] is seeded with 1.
func cumulativeMeanNormalized(y []float64, minTau, maxTau int) []float64 {
	window := maxTau
	diff := func(tau int) float64 {
		sum := 0.0
		for j := 0; j < window; j++ {
			delta := y[j] - y[j+tau]
			sum += delta * delta
		}
		return sum
	}

	running := 0.0
	for tau := 1; tau <= minTau; tau++ {
		running += diff(tau)
	}

	yin := make([]float64, maxTau-minTau+1)
	yin[0] = 1
	for tau := minTau + 1; tau <= maxTau; tau++ {
		d := diff(tau)
		running += d
		if running > 0 {
			yin[tau-minTau] = d * float64(tau) / running
		} else {
			yin[tau-minTau] = 1
		}
	}
	return yin
}

// pickLag finds the first dip under threshold and walks down to its
// local minimum, falling back to the global minimum
func pickLag(yin []float64, minTau, maxTau int, threshold float64) (int, Tier) {
	for i := range yin {
		if yin[i] < threshold {
			for i+1 < len(yin) && yin[i+1] < yin[i] {
				i++
			}
			return minTau + i, TierThreshold
		}
	}

	best := 0
	for i := range yin {
		if yin[i] < yin[best] {
			best = i
		}
	}
	return minTau + best, TierFallback
}

// parabolicShift returns the vertex offset of the parabola through
// (-1,a), (0,b), (1,c)
func parabolicShift(a, b, c float64) float64 {
	denom := a - 2*b + c
	if denom == 0 {
		return 0
	}
	shift := 0.5 * (a - c) / denom
	if shift < -1 || shift > 1 {
		return 0
	}
	return shift
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
