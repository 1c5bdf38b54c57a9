// ABOUTME: Microphone capture through miniaudio via malgo
// ABOUTME: Device callback feeds a sample window read by analysis ticks
package capture

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fretwork/fretwork-go/pkg/audio"
	"github.com/fretwork/fretwork-go/pkg/audio/decode"
	"github.com/gen2brain/malgo"
)

// Malgo captures from the default (or named) input device
type Malgo struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	window   *audio.Window
	cfg      Config
}

// NewMalgo creates an unopened malgo capture source
func NewMalgo() *Malgo {
	return &Malgo{}
}

// Open initializes the capture device. Voice processing flags are
// ignored: miniaudio delivers the raw device signal.
func (m *Malgo) Open(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return &DeviceAccessError{Reason: ReasonUnsupported, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return &DeviceAccessError{Reason: ReasonUnsupported, Err: fmt.Errorf("failed to initialize malgo context: %w", err)}
	}

	pcm, err := decode.NewPCM(audio.Format{Codec: "pcm", SampleRate: cfg.SampleRate, Channels: cfg.Channels, BitDepth: cfg.BitDepth})
	if err != nil {
		freeContext(ctx)
		return &DeviceAccessError{Reason: ReasonUnsupported, Err: err}
	}

	window := audio.NewWindow(cfg.FrameSize)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if cfg.Device != "" {
		id, err := findCaptureDevice(ctx, cfg.Device)
		if err != nil {
			freeContext(ctx)
			return err
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	channels := cfg.Channels
	onSamples := func(_, pInputSamples []byte, _ uint32) {
		samples, err := pcm.Decode(pInputSamples)
		if err != nil {
			return
		}
		if channels > 1 {
			samples = audio.Downmix(samples, channels)
		}
		window.Write(samples)
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		freeContext(ctx)
		return deviceError(fmt.Errorf("failed to initialize capture device: %w", err))
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		freeContext(ctx)
		return deviceError(fmt.Errorf("failed to start capture device: %w", err))
	}

	m.malgoCtx = ctx
	m.device = device
	m.window = window
	m.cfg = cfg

	log.Printf("Audio capture initialized: %dHz, %d channels, %d-bit, frame %d (malgo)",
		cfg.SampleRate, cfg.Channels, cfg.BitDepth, cfg.FrameSize)
	return nil
}

// Read returns the latest analysis window
func (m *Malgo) Read() (audio.Frame, error) {
	m.mu.Lock()
	window := m.window
	rate := m.cfg.SampleRate
	m.mu.Unlock()

	if window == nil {
		return audio.Frame{}, ErrNotOpen
	}

	samples := make([]float64, window.Size())
	window.Snapshot(samples)
	return audio.Frame{Samples: samples, SampleRate: rate, CapturedAt: time.Now()}, nil
}

// Close stops the device and releases the context
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: capture device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}
	if m.malgoCtx != nil {
		freeContext(m.malgoCtx)
		m.malgoCtx = nil
	}
	m.window = nil
	return nil
}

func freeContext(ctx *malgo.AllocatedContext) {
	if err := ctx.Uninit(); err != nil {
		log.Printf("Warning: malgo context uninit error: %v", err)
	}
	ctx.Free()
}

// findCaptureDevice picks the first capture device whose name starts with name
func findCaptureDevice(ctx *malgo.AllocatedContext, name string) (malgo.DeviceID, error) {
	devices, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceID{}, deviceError(fmt.Errorf("failed to list capture devices: %w", err))
	}
	for _, d := range devices {
		if strings.HasPrefix(d.Name(), name) {
			return d.ID, nil
		}
	}
	return malgo.DeviceID{}, &DeviceAccessError{Reason: ReasonNoDevice, Err: fmt.Errorf("input device not found: %s", name)}
}

// InputDevices lists the names of available capture devices
func InputDevices() ([]string, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer freeContext(ctx)

	devices, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name()
	}
	return names, nil
}
