//go:build portaudio

// ABOUTME: PortAudio microphone capture
// ABOUTME: Blocking stream reader goroutine feeding a sample window
package capture

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fretwork/fretwork-go/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio captures through the PortAudio library
type PortAudio struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	window *audio.Window
	cfg    Config
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPortAudio creates an unopened PortAudio capture source
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open initializes PortAudio and starts the reader goroutine
func (p *PortAudio) Open(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return &DeviceAccessError{Reason: ReasonUnsupported, Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return &DeviceAccessError{Reason: ReasonUnsupported, Err: fmt.Errorf("failed to initialize portaudio: %w", err)}
	}

	info, err := p.inputDevice(cfg.Device)
	if err != nil {
		portaudio.Terminate()
		return err
	}

	framesPerBuffer := cfg.SampleRate / 100
	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = cfg.Channels
	params.Output.Channels = 0
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = framesPerBuffer

	buf := make([]float32, framesPerBuffer*cfg.Channels)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		portaudio.Terminate()
		return deviceError(fmt.Errorf("failed to open input stream: %w", err))
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return deviceError(fmt.Errorf("failed to start input stream: %w", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.stream = stream
	p.window = audio.NewWindow(cfg.FrameSize)
	p.cfg = cfg
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.readLoop(ctx, stream, buf, p.window, cfg.Channels, p.done)

	log.Printf("Audio capture initialized: %dHz, %d channels, frame %d (portaudio/%s)",
		cfg.SampleRate, cfg.Channels, cfg.FrameSize, info.Name)
	return nil
}

func (p *PortAudio) inputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, deviceError(fmt.Errorf("no default input: %w", err))
		}
		return info, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, deviceError(fmt.Errorf("failed to list devices: %w", err))
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.HasPrefix(d.Name, name) {
			return d, nil
		}
	}
	return nil, &DeviceAccessError{Reason: ReasonNoDevice, Err: fmt.Errorf("input device not found: %s", name)}
}

func (p *PortAudio) readLoop(ctx context.Context, stream *portaudio.Stream, buf []float32, window *audio.Window, channels int, done chan struct{}) {
	defer close(done)

	samples := make([]float64, len(buf))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := stream.Read(); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("PortAudio read error: %v", err)
			continue
		}

		for i, s := range buf {
			samples[i] = float64(s)
		}
		if channels > 1 {
			window.Write(audio.Downmix(samples, channels))
		} else {
			window.Write(samples)
		}
	}
}

// Read returns the latest analysis window
func (p *PortAudio) Read() (audio.Frame, error) {
	p.mu.Lock()
	window := p.window
	rate := p.cfg.SampleRate
	p.mu.Unlock()

	if window == nil {
		return audio.Frame{}, ErrNotOpen
	}

	samples := make([]float64, window.Size())
	window.Snapshot(samples)
	return audio.Frame{Samples: samples, SampleRate: rate, CapturedAt: time.Now()}, nil
}

// Close stops the reader and releases PortAudio
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}

	p.cancel()
	if err := p.stream.Stop(); err != nil {
		log.Printf("Warning: input stream stop error: %v", err)
	}
	<-p.done
	if err := p.stream.Close(); err != nil {
		log.Printf("Warning: input stream close error: %v", err)
	}
	p.stream = nil
	p.window = nil

	return portaudio.Terminate()
}
