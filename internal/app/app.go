// ABOUTME: Main application orchestration
// ABOUTME: Coordinates capture, tuner, metronome, publisher, discovery and UI
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fretwork/fretwork-go/internal/config"
	"github.com/fretwork/fretwork-go/internal/discovery"
	"github.com/fretwork/fretwork-go/internal/publish"
	"github.com/fretwork/fretwork-go/internal/ui"
	"github.com/fretwork/fretwork-go/internal/version"
	"github.com/fretwork/fretwork-go/pkg/audio/capture"
	"github.com/fretwork/fretwork-go/pkg/audio/output"
	"github.com/fretwork/fretwork-go/pkg/metronome"
	"github.com/fretwork/fretwork-go/pkg/tick"
	"github.com/fretwork/fretwork-go/pkg/tuner"
)

// refreshInterval is how often panels and the status snapshot update
const refreshInterval = 100 * time.Millisecond

// Deps are the devices and clocks the app runs on. Nil fields are
// created from the configuration.
type Deps struct {
	Source         capture.Source
	Output         output.Factory
	TunerTicks     tick.Scheduler
	MetronomeTicks tick.Scheduler
}

// App wires the subsystems together
type App struct {
	config    config.Config
	tuner     *tuner.Tuner
	metronome *metronome.Metronome
	publisher *publish.Publisher
	discovery *discovery.Manager
	ctrl      *ui.Controls
	tuiProg   *tea.Program

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// bumped on every metronome stop so delayed beats from a finished
	// run are dropped
	beatRun atomic.Uint64

	closeOnce sync.Once
}

// New creates the application from configuration
func New(cfg config.Config) (*App, error) {
	return NewWithDeps(cfg, Deps{})
}

// NewWithDeps creates the application with injected devices
func NewWithDeps(cfg config.Config, deps Deps) (*App, error) {
	if deps.Source == nil {
		src, err := NewSource(cfg)
		if err != nil {
			return nil, err
		}
		deps.Source = src
	}
	if deps.Output == nil {
		factory, err := output.NewFactory(cfg.OutputBackend, cfg.SampleRate)
		if err != nil {
			return nil, err
		}
		deps.Output = factory
	}
	if deps.TunerTicks == nil {
		deps.TunerTicks = tick.NewTimer(tick.DisplayRate)
	}
	mcfg := cfg.MetronomeConfig()
	if deps.MetronomeTicks == nil {
		deps.MetronomeTicks = tick.NewTimer(mcfg.Lookahead)
	}

	t := tuner.New(cfg.Tuner(), deps.Source, deps.TunerTicks)
	mode, err := tuner.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	t.SetMode(mode)
	if err := t.SetSelectedString(cfg.SelectedString); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		config:    cfg,
		tuner:     t,
		metronome: metronome.New(mcfg, deps.Output, deps.MetronomeTicks),
		ctx:       ctx,
		cancel:    cancel,
	}

	if cfg.Port > 0 {
		a.publisher = publish.New(publish.Config{Name: cfg.Name, Port: cfg.Port}, a)
		t.Subscribe(a.publisher.PublishTuner)
	}
	return a, nil
}

// NewSource creates the capture source selected by the configuration
func NewSource(cfg config.Config) (capture.Source, error) {
	switch cfg.Source {
	case config.SourceTone:
		return capture.NewTone(cfg.ToneFreq, 0.5, 0), nil
	case config.SourceFile:
		return capture.NewFile(cfg.Input, 0, cfg.Loop), nil
	case config.SourceMic:
		if cfg.CaptureBackend == "portaudio" {
			return capture.NewPortAudio(), nil
		}
		return capture.NewMalgo(), nil
	default:
		return nil, fmt.Errorf("unknown source: %s", cfg.Source)
	}
}

// Run starts every subsystem and blocks until ctx is done or the user
// quits
func (a *App) Run(ctx context.Context) error {
	if a.publisher != nil {
		if err := a.publisher.Start(); err != nil {
			return err
		}
		if a.config.Discovery {
			a.discovery = discovery.NewManager(discovery.Config{
				InstanceName: a.config.Name,
				Port:         a.config.Port,
				Version:      version.Version,
			})
			if err := a.discovery.Advertise(); err != nil {
				log.Printf("Failed to start mDNS advertisement: %v", err)
			}
		}
	}

	if !a.config.NoTUI {
		a.ctrl = ui.NewControls()
		prog, err := ui.Run(a.ctrl, a.config.Name)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		a.tuiProg = prog
		a.goLoop(func() {
			if _, err := prog.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			a.cancel()
		})
		a.goLoop(a.handleControls)
	}

	// a device failure is shown in the UI rather than ending the session
	if err := a.tuner.Start(a.ctx); err != nil {
		log.Printf("Tuner unavailable: %v", err)
	}
	if a.config.Metronome {
		if err := a.metronome.Start(); err != nil {
			log.Printf("Metronome unavailable: %v", err)
		}
	}

	a.goLoop(a.forwardBeats)
	a.goLoop(a.refreshLoop)

	select {
	case <-ctx.Done():
		log.Printf("Shutdown requested")
	case <-a.ctx.Done():
		log.Printf("Quit requested")
	}
	a.Close()
	return nil
}

func (a *App) goLoop(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// Close stops every subsystem. Safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.cancel()
		a.tuner.Stop()
		a.metronome.Stop()

		if a.discovery != nil {
			a.discovery.Stop()
		}
		if a.publisher != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := a.publisher.Stop(ctx); err != nil {
				log.Printf("Publisher shutdown error: %v", err)
			}
			cancel()
		}
		if a.tuiProg != nil {
			a.tuiProg.Quit()
		}
		a.wg.Wait()
		log.Printf("Stopped cleanly")
	})
}

// handleControls applies requests from the TUI
func (a *App) handleControls() {
	for {
		select {
		case req := <-a.ctrl.Requests:
			if err := a.apply(req); err != nil {
				log.Printf("Control request failed: %v", err)
			}
		case <-a.ctrl.Quit:
			log.Printf("Received quit signal from TUI")
			a.cancel()
			return
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) apply(req ui.Request) error {
	switch req.Kind {
	case ui.RequestMode:
		a.SetMode(req.Mode)
	case ui.RequestString:
		return a.SetSelectedString(req.String)
	case ui.RequestTuner:
		return a.SetTunerRunning(req.Running)
	case ui.RequestBPM:
		a.SetBPM(req.BPM)
	case ui.RequestTimeSignature:
		a.SetBeatsPerBar(req.BeatsPerBar)
	case ui.RequestMetronome:
		return a.SetMetronomeRunning(req.Running)
	}
	return nil
}

// forwardBeats relays beats to displays when they actually sound
func (a *App) forwardBeats() {
	for {
		select {
		case beat := <-a.metronome.Beats():
			run := a.beatRun.Load()
			delay := time.Duration((beat.Time - a.metronome.AudioTime()) * float64(time.Second))
			if delay <= 0 {
				a.sendBeat(beat, run)
				continue
			}
			time.AfterFunc(delay, func() { a.sendBeat(beat, run) })
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) sendBeat(beat metronome.Beat, run uint64) {
	if a.ctx.Err() != nil || run != a.beatRun.Load() || !a.metronome.Running() {
		return
	}
	if a.publisher != nil {
		a.publisher.PublishBeat(beat)
	}
	if a.tuiProg != nil {
		a.tuiProg.Send(ui.BeatMsg(beat))
	}
}

// refreshLoop pushes tuner and metronome state to the displays
func (a *App) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	var lastStatus metronome.Status
	for {
		select {
		case <-ticker.C:
			a.refresh(&lastStatus)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) refresh(lastStatus *metronome.Status) {
	status := a.metronome.Status()
	msg := a.tunerMsg()

	if a.publisher != nil {
		a.publisher.PublishTunerState(msg.Mode, msg.Selected, msg.Err)
		if status != *lastStatus {
			a.publisher.PublishMetronome(status)
		}
	}
	*lastStatus = status

	if a.tuiProg != nil {
		a.tuiProg.Send(msg)
		a.tuiProg.Send(ui.MetronomeMsg(status))
		if a.publisher != nil && a.publisher.Addr() != nil {
			a.tuiProg.Send(ui.PublisherMsg{Addr: a.publisher.Addr().String(), Displays: a.publisher.SubscriberCount()})
		}
	}
}

func (a *App) tunerMsg() ui.TunerMsg {
	msg := ui.TunerMsg{
		Level:    a.tuner.Level(),
		Spectrum: a.tuner.Spectrum(),
		Running:  a.tuner.Running(),
		Mode:     a.tuner.Mode(),
		Selected: a.tuner.SelectedString(),
		Err:      a.tuner.Err(),
	}
	if r, ok := a.tuner.Reading(); ok {
		msg.Reading = &r
	}
	return msg
}

// SetMode switches the tuner mode
func (a *App) SetMode(mode tuner.Mode) {
	log.Printf("Tuner mode: %s", mode)
	a.tuner.SetMode(mode)
}

// SetSelectedString picks the manual mode string
func (a *App) SetSelectedString(name string) error {
	log.Printf("Tuner string: %s", name)
	return a.tuner.SetSelectedString(name)
}

// SetTunerRunning starts or stops the tuner
func (a *App) SetTunerRunning(running bool) error {
	if !running {
		a.tuner.Stop()
		return nil
	}
	return a.tuner.Start(a.ctx)
}

// SetBPM changes the metronome tempo within the UI range
func (a *App) SetBPM(bpm int) {
	bpm = metronome.ClampBPM(bpm)
	log.Printf("Metronome tempo: %d bpm", bpm)
	a.metronome.SetBPM(bpm)
}

// SetBeatsPerBar changes the metronome time signature
func (a *App) SetBeatsPerBar(beats int) {
	log.Printf("Metronome time signature: %d/4", beats)
	a.metronome.SetBeatsPerBar(beats)
}

// SetMetronomeRunning starts or stops the metronome
func (a *App) SetMetronomeRunning(running bool) error {
	if !running {
		a.metronome.Stop()
		a.beatRun.Add(1)
		return nil
	}
	return a.metronome.Start()
}

// Tuner returns the tuner
func (a *App) Tuner() *tuner.Tuner {
	return a.tuner
}

// Metronome returns the metronome
func (a *App) Metronome() *metronome.Metronome {
	return a.metronome
}

// Publisher returns the websocket publisher, nil when disabled
func (a *App) Publisher() *publish.Publisher {
	return a.publisher
}
