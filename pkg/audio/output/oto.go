// ABOUTME: Oto-based audio clock
// ABOUTME: An oto player pulls float32 frames straight from the mixer
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/fretwork/fretwork-go/pkg/audio/encode"
)

// oto allows one context per process; it is created on first use and
// reused by every later clock at the same rate
var (
	otoMu   sync.Mutex
	otoCtx  *oto.Context
	otoRate int
)

func sharedOtoContext(sampleRate int) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoRate != sampleRate {
			return nil, fmt.Errorf("oto context already running at %dHz, cannot reopen at %dHz", otoRate, sampleRate)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoRate = sampleRate
	return ctx, nil
}

// OtoClock plays the mixer through oto
type OtoClock struct {
	*Mixer

	player *oto.Player
	scratch []float32
	mu     sync.Mutex
}

// NewOtoClock opens a mono float32 oto player at sampleRate
func NewOtoClock(sampleRate int) (*OtoClock, error) {
	ctx, err := sharedOtoContext(sampleRate)
	if err != nil {
		return nil, err
	}
	if err := ctx.Resume(); err != nil {
		return nil, fmt.Errorf("failed to resume oto context: %w", err)
	}

	c := &OtoClock{Mixer: NewMixer(sampleRate)}
	c.player = ctx.NewPlayer(c)
	// a short device buffer keeps the mixer clock close to what is audible
	c.player.SetBufferSize(sampleRate / 50 * 4)
	c.player.Play()

	log.Printf("Audio clock initialized: %dHz mono (oto)", sampleRate)
	return c, nil
}

// Read renders mixer output as float32 little-endian bytes for the player
func (c *OtoClock) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(p) / 4
	if cap(c.scratch) < n {
		c.scratch = make([]float32, n)
	}
	buf := c.scratch[:n]
	c.Render(buf)
	encode.PutFloat32(p, buf)
	return n * 4, nil
}

// Close stops the player. The shared context stays alive.
func (c *OtoClock) Close() error {
	if c.player == nil {
		return nil
	}
	c.player.Pause()
	err := c.player.Close()
	c.player = nil
	c.Clear()
	return err
}
