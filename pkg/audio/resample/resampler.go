// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Streams float samples across chunk boundaries without gaps
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	lastFrame  []float64 // one sample per channel
	hasLast    bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels < 1 {
		channels = 1
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastFrame:  make([]float64, channels),
	}
}

// Resample converts one chunk of interleaved input and returns the
// interleaved output produced so far. The final input frame is held back
// so the next chunk interpolates across the boundary.
func (r *Resampler) Resample(input []float64) []float64 {
	if r.inputRate == r.outputRate {
		out := make([]float64, len(input))
		copy(out, input)
		return out
	}

	buf := input
	if r.hasLast {
		buf = make([]float64, 0, len(input)+r.channels)
		buf = append(buf, r.lastFrame...)
		buf = append(buf, input...)
	}

	frames := len(buf) / r.channels
	if frames < 2 {
		if frames == 1 {
			copy(r.lastFrame, buf[:r.channels])
			r.hasLast = true
		}
		return nil
	}

	out := make([]float64, 0, r.OutputSamplesNeeded(len(buf)))
	for {
		idx := int(r.position)
		if idx >= frames-1 {
			break
		}
		frac := r.position - float64(idx)
		for ch := 0; ch < r.channels; ch++ {
			a := buf[idx*r.channels+ch]
			b := buf[(idx+1)*r.channels+ch]
			out = append(out, a*(1-frac)+b*frac)
		}
		r.position += r.ratio
	}

	r.position -= float64(frames - 1)
	copy(r.lastFrame, buf[(frames-1)*r.channels:frames*r.channels])
	r.hasLast = true

	return out
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.hasLast = false
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// OutputSamplesNeeded estimates how many output samples input samples produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 1
	return outputFrames * r.channels
}

// Convert resamples a whole mono signal in one call
func Convert(samples []float64, inputRate, outputRate int) []float64 {
	if inputRate <= 0 || outputRate <= 0 {
		return nil
	}
	return New(inputRate, outputRate, 1).Resample(samples)
}
