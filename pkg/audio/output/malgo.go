// ABOUTME: Malgo-based audio clock
// ABOUTME: The miniaudio playback callback renders mixer frames directly
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/fretwork/fretwork-go/pkg/audio/encode"
	"github.com/gen2brain/malgo"
)

// MalgoClock plays the mixer through a miniaudio device
type MalgoClock struct {
	*Mixer

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	scratch  []float32
}

// NewMalgoClock opens a mono float32 playback device at sampleRate
func NewMalgoClock(sampleRate int) (*MalgoClock, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	c := &MalgoClock{Mixer: NewMixer(sampleRate), malgoCtx: ctx}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(pOutputSample, _ []byte, frameCount uint32) {
		c.dataCallback(pOutputSample, frameCount)
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		c.freeContext()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		c.freeContext()
		return nil, fmt.Errorf("failed to start device: %w", err)
	}
	c.device = device

	log.Printf("Audio clock initialized: %dHz mono (malgo/F32)", sampleRate)
	return c, nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (c *MalgoClock) dataCallback(pOutput []byte, frameCount uint32) {
	n := int(frameCount)
	if cap(c.scratch) < n {
		c.scratch = make([]float32, n)
	}
	buf := c.scratch[:n]
	c.Render(buf)
	encode.PutFloat32(pOutput, buf)
}

// Close stops the device and releases the context
func (c *MalgoClock) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		if err := c.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		c.device.Uninit()
		c.device = nil
	}
	c.freeContext()
	c.Clear()
	return nil
}

func (c *MalgoClock) freeContext() {
	if c.malgoCtx == nil {
		return
	}
	if err := c.malgoCtx.Uninit(); err != nil {
		log.Printf("Warning: malgo context uninit error: %v", err)
	}
	c.malgoCtx.Free()
	c.malgoCtx = nil
}
