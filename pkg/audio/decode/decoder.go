// ABOUTME: Decoder interface and decoded signal type
// ABOUTME: Dispatches whole-file decoding by container extension
package decode

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Decoder decodes a stream of encoded chunks to float samples in [-1,1]
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]float64, error)

	// Close releases decoder resources
	Close() error
}

// PCM is a fully decoded mono signal
type PCM struct {
	Samples    []float64
	SampleRate int
	// Channels is the channel count of the source before downmixing
	Channels int
}

// Duration returns the playing time of the signal
func (p *PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(p.Samples)) * time.Second / time.Duration(p.SampleRate)
}

// Supported lists the file extensions File understands
var Supported = []string{".wav", ".mp3", ".flac"}

// File decodes a whole audio file to mono
func File(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	pcm, err := Reader(f, ext)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	log.Printf("Loaded %s: %d Hz, %d channels, %v", filepath.Base(path), pcm.SampleRate, pcm.Channels, pcm.Duration())
	return pcm, nil
}

// Reader decodes a stream whose container is named by ext (".wav", ".mp3", ".flac")
func Reader(r io.ReadSeeker, ext string) (*PCM, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "wav", "wave":
		return DecodeWAV(r)
	case "mp3":
		return DecodeMP3(r)
	case "flac":
		return DecodeFLAC(r)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: %s)", ext, strings.Join(Supported, ", "))
	}
}
