// ABOUTME: File-backed capture source replaying a decoded recording
// ABOUTME: Resamples to the capture rate and slides one hop per Read
package capture

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fretwork/fretwork-go/pkg/audio"
	"github.com/fretwork/fretwork-go/pkg/audio/decode"
	"github.com/fretwork/fretwork-go/pkg/audio/resample"
)

// File replays an audio file as a capture stream. Frames end at the read
// cursor; the cursor moves Hop samples per Read. At the end of the file
// Read returns io.EOF unless Loop is set.
type File struct {
	Path string
	Hop  int
	Loop bool

	mu      sync.Mutex
	samples []float64
	cfg     Config
	cursor  int
	start   time.Time
	open    bool
}

// NewFile creates a file source; hop 0 means one 60Hz display frame
func NewFile(path string, hop int, loop bool) *File {
	return &File{Path: path, Hop: hop, Loop: loop}
}

// Open decodes the whole file
func (f *File) Open(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return &DeviceAccessError{Reason: ReasonUnsupported, Err: err}
	}

	pcm, err := decode.File(f.Path)
	if err != nil {
		return &DeviceAccessError{Reason: ReasonNoDevice, Err: err}
	}

	samples := pcm.Samples
	if pcm.SampleRate != cfg.SampleRate {
		samples = resample.Convert(samples, pcm.SampleRate, cfg.SampleRate)
	}
	if len(samples) == 0 {
		return &DeviceAccessError{Reason: ReasonNoDevice, Err: fmt.Errorf("%s: no audio", f.Path)}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = samples
	f.cfg = cfg
	if f.Hop <= 0 {
		f.Hop = cfg.SampleRate / 60
	}
	f.cursor = min(cfg.FrameSize, len(samples))
	f.start = time.Now()
	f.open = true
	return nil
}

// Read returns the FrameSize samples ending at the cursor, zero-padded at
// the front while the cursor is still inside the first frame
func (f *File) Read() (audio.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return audio.Frame{}, ErrNotOpen
	}
	if f.cursor > len(f.samples) {
		if !f.Loop {
			return audio.Frame{}, io.EOF
		}
		f.cursor = min(f.cfg.FrameSize, len(f.samples))
	}

	n := f.cfg.FrameSize
	frame := make([]float64, n)
	from := f.cursor - n
	if from < 0 {
		copy(frame[-from:], f.samples[:f.cursor])
	} else {
		copy(frame, f.samples[from:f.cursor])
	}

	offset := time.Duration(f.cursor) * time.Second / time.Duration(f.cfg.SampleRate)
	f.cursor += f.Hop

	return audio.Frame{Samples: frame, SampleRate: f.cfg.SampleRate, CapturedAt: f.start.Add(offset)}, nil
}

// Position returns how far into the recording the cursor is
func (f *File) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg.SampleRate == 0 {
		return 0
	}
	return time.Duration(min(f.cursor, len(f.samples))) * time.Second / time.Duration(f.cfg.SampleRate)
}

// Close releases the decoded samples
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = nil
	f.open = false
	return nil
}
