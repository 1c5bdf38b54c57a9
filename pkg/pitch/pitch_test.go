// ABOUTME: Tests for the YIN pitch estimator
// ABOUTME: Sine accuracy, silence gating, invalid input and purity
package pitch

import (
	"math"
	"math/rand"
	"testing"
)

func sine(freq, amp, phase float64, n int, sampleRate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate+phase)
	}
	return out
}

func TestEstimateSineAccuracy(t *testing.T) {
	const sr = 44100.0
	freqs := []float64{72, 82.41, 110, 146.83, 196, 246.94, 329.63, 440, 480}

	for _, f := range freqs {
		for _, phase := range []float64{0, 1.1, 2.5} {
			for _, n := range []int{4096, 32768} {
				est := Detect(sine(f, 0.5, phase, n, sr), sr)
				if est == nil {
					t.Fatalf("%vHz phase %v n %d: expected estimate, got nil", f, phase, n)
				}
				if math.Abs(est.Frequency-f)/f > 0.01 {
					t.Errorf("%vHz phase %v n %d: got %.3fHz", f, phase, n, est.Frequency)
				}
				if est.Confidence <= 0 || est.Confidence > 1 {
					t.Errorf("%vHz: confidence out of range: %f", f, est.Confidence)
				}
				if est.Tier != TierThreshold {
					t.Errorf("%vHz: expected threshold tier, got %s", f, est.Tier)
				}
			}
		}
	}
}

func TestEstimateLoudness(t *testing.T) {
	est := Detect(sine(110, 0.5, 0, 8192, 44100), 44100)
	if est == nil {
		t.Fatal("expected estimate")
	}
	want := 0.5 / math.Sqrt2
	if math.Abs(est.Loudness-want) > 0.005 {
		t.Errorf("expected loudness ~%f, got %f", want, est.Loudness)
	}
}

func TestEstimateSilence(t *testing.T) {
	tests := []struct {
		name  string
		frame []float64
	}{
		{"zeros", make([]float64, 4096)},
		{"dc", func() []float64 {
			f := make([]float64, 4096)
			for i := range f {
				f[i] = 0.4
			}
			return f
		}()},
		{"below noise floor", sine(110, 0.001, 0, 4096, 44100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if est := Detect(tt.frame, 44100); est != nil {
				t.Errorf("expected nil, got %+v", est)
			}
		})
	}
}

func TestEstimateInvalidInput(t *testing.T) {
	frame := sine(110, 0.5, 0, 4096, 44100)
	tests := []struct {
		name  string
		frame []float64
		sr    float64
	}{
		{"empty", nil, 44100},
		{"zero rate", frame, 0},
		{"negative rate", frame, -44100},
		{"nan rate", frame, math.NaN()},
		{"inf rate", frame, math.Inf(1)},
		{"too short", frame[:16], 44100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if est := Detect(tt.frame, tt.sr); est != nil {
				t.Errorf("expected nil, got %+v", est)
			}
		})
	}
}

func TestEstimateDoesNotMutateInput(t *testing.T) {
	frame := sine(196, 0.3, 0.7, 4096, 44100)
	for i := range frame {
		frame[i] += 0.1
	}
	orig := make([]float64, len(frame))
	copy(orig, frame)

	Detect(frame, 44100)

	for i := range frame {
		if frame[i] != orig[i] {
			t.Fatalf("sample %d changed: %f -> %f", i, orig[i], frame[i])
		}
	}
}

func TestEstimateDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	frame := sine(146.83, 0.3, 0, 8192, 44100)
	for i := range frame {
		frame[i] += 0.002 * rng.NormFloat64()
	}

	first := Detect(frame, 44100)
	second := Detect(frame, 44100)
	if (first == nil) != (second == nil) {
		t.Fatalf("expected matching results, got %+v and %+v", first, second)
	}
	if first != nil && *first != *second {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestEstimateResultsInBand(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		frame := make([]float64, 4096)
		for i := range frame {
			frame[i] = 0.2 * rng.NormFloat64()
		}
		est := Detect(frame, 44100)
		if est == nil {
			continue
		}
		if est.Frequency < 70 || est.Frequency > 500 {
			t.Errorf("trial %d: frequency out of band: %f", trial, est.Frequency)
		}
		if est.Confidence < 0 || est.Confidence > 1 {
			t.Errorf("trial %d: confidence out of range: %f", trial, est.Confidence)
		}
	}
}

func TestDetectorCustomBand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFreq = 200
	d := NewDetector(cfg)

	if est := d.Estimate(sine(110, 0.5, 0, 8192, 44100), 44100); est == nil || math.Abs(est.Frequency-110) > 1.1 {
		t.Errorf("expected ~110Hz, got %+v", est)
	}
}

func TestParabolicShift(t *testing.T) {
	if s := parabolicShift(1, 1, 1); s != 0 {
		t.Errorf("expected 0 for flat points, got %f", s)
	}
	// vertex of (x-0.25)^2 sampled at -1, 0, 1
	a, b, c := 1.5625, 0.0625, 0.5625
	if s := parabolicShift(a, b, c); math.Abs(s-0.25) > 1e-12 {
		t.Errorf("expected 0.25, got %f", s)
	}
}

func TestRMS(t *testing.T) {
	if RMS(nil) != 0 {
		t.Error("expected 0 for empty input")
	}
	if got := RMS([]float64{1, -1, 1, -1}); got != 1 {
		t.Errorf("expected 1, got %f", got)
	}
}

func TestSpectrumPeak(t *testing.T) {
	const n = 4096
	const sr = 44100.0
	bin := 100
	f := float64(bin) * sr / n
	bins := Spectrum(sine(f, 0.5, 0, n, sr), DefaultMinDecibels, DefaultMaxDecibels)
	if len(bins) != n/2 {
		t.Fatalf("expected %d bins, got %d", n/2, len(bins))
	}

	peak := 0
	for i, v := range bins {
		if v < 0 || v > 1 {
			t.Fatalf("bin %d out of range: %f", i, v)
		}
		if v > bins[peak] {
			peak = i
		}
	}
	if peak != bin {
		t.Errorf("expected peak at bin %d, got %d", bin, peak)
	}
}

func TestSpectrumInvalid(t *testing.T) {
	if Spectrum(nil, -90, -10) != nil {
		t.Error("expected nil for empty frame")
	}
	if Spectrum(make([]float64, 64), -10, -90) != nil {
		t.Error("expected nil for inverted range")
	}
}

func TestBands(t *testing.T) {
	bands := Bands([]float64{0, 1, 1, 1, 0.5, 0.5}, 3)
	want := []float64{0.5, 1, 0.5}
	for i := range want {
		if bands[i] != want[i] {
			t.Errorf("band %d: expected %f, got %f", i, want[i], bands[i])
		}
	}

	// the last band takes the remainder
	bands = Bands([]float64{1, 1, 2, 2, 3, 3, 6}, 3)
	want = []float64{1, 2, 4}
	for i := range want {
		if bands[i] != want[i] {
			t.Errorf("remainder band %d: expected %f, got %f", i, want[i], bands[i])
		}
	}
	if Bands(nil, 3) != nil || Bands([]float64{1}, 0) != nil {
		t.Error("expected nil for empty input or zero count")
	}
}

func TestDetectUsesDefaultConfig(t *testing.T) {
	frame := sine(196, 0.4, 0.3, 8192, 44100)
	got := Detect(frame, 44100)
	want := NewDetector(DefaultConfig()).Estimate(frame, 44100)
	if got == nil || want == nil || *got != *want {
		t.Errorf("expected Detect to match the default detector, got %+v and %+v", got, want)
	}
}
