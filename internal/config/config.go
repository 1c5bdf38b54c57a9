// ABOUTME: Runtime configuration from command-line flags and environment
// ABOUTME: FRETWORK_* variables provide defaults that flags override
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fretwork/fretwork-go/pkg/audio/capture"
	"github.com/fretwork/fretwork-go/pkg/audio/output"
	"github.com/fretwork/fretwork-go/pkg/metronome"
	"github.com/fretwork/fretwork-go/pkg/notes"
	"github.com/fretwork/fretwork-go/pkg/tuner"
)

// Input sources
const (
	SourceMic  = "mic"
	SourceFile = "file"
	SourceTone = "tone"
)

// Config holds all runtime configuration
type Config struct {
	// Capture
	Source         string  // mic, file or tone
	Input          string  // file path when Source is file
	Loop           bool    // replay the file forever
	Device         string  // capture device name prefix
	CaptureBackend string  // malgo or portaudio
	ToneFreq       float64 // tone source frequency
	SampleRate     int
	FrameSize      int

	// Tuner
	Mode           string // auto or manual
	SelectedString string

	// Metronome
	OutputBackend string
	BPM           int
	BeatsPerBar   int
	Metronome     bool // start the metronome immediately

	// Publishing
	Name      string
	Port      int
	Discovery bool

	CompareURL string

	LogFile string
	NoTUI   bool
}

// Load parses args (without the program name) over environment defaults
func Load(args []string) (Config, error) {
	cfg := Config{}
	fs := flag.NewFlagSet("fretwork", flag.ContinueOnError)

	fs.StringVar(&cfg.Source, "source", envStr("FRETWORK_SOURCE", SourceMic), "Input source: mic, file or tone")
	fs.StringVar(&cfg.Input, "input", envStr("FRETWORK_INPUT", ""), "Audio file to analyse when -source=file (wav, mp3, flac)")
	fs.BoolVar(&cfg.Loop, "loop", envBool("FRETWORK_LOOP", false), "Replay the input file forever")
	fs.StringVar(&cfg.Device, "device", envStr("FRETWORK_DEVICE", ""), "Capture device name prefix (default: system default)")
	fs.StringVar(&cfg.CaptureBackend, "capture", envStr("FRETWORK_CAPTURE", "malgo"), "Capture backend: malgo or portaudio")
	fs.Float64Var(&cfg.ToneFreq, "tone", envFloat("FRETWORK_TONE", 110), "Tone source frequency in Hz")
	fs.IntVar(&cfg.SampleRate, "sample-rate", envInt("FRETWORK_SAMPLE_RATE", 44100), "Capture sample rate")
	fs.IntVar(&cfg.FrameSize, "frame-size", envInt("FRETWORK_FRAME_SIZE", 32768), "Analysis window in samples")

	fs.StringVar(&cfg.Mode, "mode", envStr("FRETWORK_MODE", "auto"), "Tuner mode: auto or manual")
	fs.StringVar(&cfg.SelectedString, "string", envStr("FRETWORK_STRING", "E2"), "Target string in manual mode")

	fs.StringVar(&cfg.OutputBackend, "output", envStr("FRETWORK_OUTPUT", "oto"), "Click output backend: "+strings.Join(output.Backends, ", "))
	fs.IntVar(&cfg.BPM, "bpm", envInt("FRETWORK_BPM", 120), "Metronome tempo")
	fs.IntVar(&cfg.BeatsPerBar, "beats", envInt("FRETWORK_BEATS", 4), "Metronome beats per bar")
	fs.BoolVar(&cfg.Metronome, "metronome", envBool("FRETWORK_METRONOME", false), "Start the metronome on launch")

	fs.StringVar(&cfg.Name, "name", envStr("FRETWORK_NAME", ""), "Instance name for mDNS (default: hostname-fretwork)")
	fs.IntVar(&cfg.Port, "port", envInt("FRETWORK_PORT", 8931), "Publisher HTTP port (0 disables)")
	fs.BoolVar(&cfg.Discovery, "mdns", envBool("FRETWORK_MDNS", true), "Advertise the publisher via mDNS")

	fs.StringVar(&cfg.CompareURL, "compare-url", envStr("FRETWORK_COMPARE_URL", "http://localhost:8000"), "Comparison service base URL")

	fs.StringVar(&cfg.LogFile, "log-file", envStr("FRETWORK_LOG_FILE", "fretwork.log"), "Log file path")
	fs.BoolVar(&cfg.NoTUI, "no-tui", envBool("FRETWORK_NO_TUI", false), "Disable TUI, use streaming logs instead")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Name = fmt.Sprintf("%s-fretwork", hostname)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option values and combinations
func (c Config) Validate() error {
	switch c.Source {
	case SourceMic, SourceTone:
	case SourceFile:
		if c.Input == "" {
			return fmt.Errorf("-source=file requires -input")
		}
	default:
		return fmt.Errorf("unknown source: %s", c.Source)
	}

	if c.CaptureBackend != "malgo" && c.CaptureBackend != "portaudio" {
		return fmt.Errorf("unknown capture backend: %s", c.CaptureBackend)
	}
	if _, err := tuner.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, ok := notes.ByName(c.SelectedString); !ok {
		return fmt.Errorf("unknown string: %s (supported: %s)", c.SelectedString, strings.Join(notes.Names(), ", "))
	}
	if c.BPM < metronome.MinBPM || c.BPM > metronome.MaxBPM {
		return fmt.Errorf("bpm %d out of range [%d, %d]", c.BPM, metronome.MinBPM, metronome.MaxBPM)
	}
	if c.BeatsPerBar < 1 {
		return fmt.Errorf("invalid beats per bar: %d", c.BeatsPerBar)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return c.Capture().Validate()
}

// Capture returns the capture request built from the options
func (c Config) Capture() capture.Config {
	cc := capture.DefaultConfig()
	cc.SampleRate = c.SampleRate
	cc.FrameSize = c.FrameSize
	cc.Device = c.Device
	return cc
}

// Tuner returns the tuner settings for this configuration
func (c Config) Tuner() tuner.Config {
	tc := tuner.DefaultConfig()
	tc.Capture = c.Capture()
	return tc
}

// MetronomeConfig returns the metronome settings for this configuration
func (c Config) MetronomeConfig() metronome.Config {
	mc := metronome.DefaultConfig()
	mc.BPM = c.BPM
	mc.BeatsPerBar = c.BeatsPerBar
	return mc
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
