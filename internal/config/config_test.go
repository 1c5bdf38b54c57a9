// ABOUTME: Tests for flag and environment configuration
// ABOUTME: Covers defaults, env fallbacks, flag precedence and validation
package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source != SourceMic || cfg.SampleRate != 44100 || cfg.FrameSize != 32768 {
		t.Errorf("unexpected capture defaults: %+v", cfg)
	}
	if cfg.BPM != 120 || cfg.BeatsPerBar != 4 || cfg.Port != 8931 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.CaptureBackend != "malgo" || cfg.OutputBackend != "oto" {
		t.Errorf("unexpected backends: %s/%s", cfg.CaptureBackend, cfg.OutputBackend)
	}
	if cfg.Name == "" {
		t.Error("expected a derived instance name")
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("FRETWORK_BPM", "90")
	t.Setenv("FRETWORK_SOURCE", "tone")
	t.Setenv("FRETWORK_TONE", "146.83")
	t.Setenv("FRETWORK_MDNS", "false")
	t.Setenv("FRETWORK_NAME", "studio")
	t.Setenv("FRETWORK_PORT", "not-a-number")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BPM != 90 || cfg.Source != SourceTone || cfg.ToneFreq != 146.83 {
		t.Errorf("expected env values, got %+v", cfg)
	}
	if cfg.Discovery {
		t.Error("expected mDNS disabled from env")
	}
	if cfg.Name != "studio" {
		t.Errorf("expected name from env, got %s", cfg.Name)
	}
	if cfg.Port != 8931 {
		t.Errorf("expected unparsable env to fall back, got %d", cfg.Port)
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("FRETWORK_BPM", "90")

	cfg, err := Load([]string{"-bpm", "150", "-mode", "manual", "-string", "G3"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BPM != 150 {
		t.Errorf("expected flag to win, got %d", cfg.BPM)
	}
	if cfg.Mode != "manual" || cfg.SelectedString != "G3" {
		t.Errorf("unexpected tuner options: %s %s", cfg.Mode, cfg.SelectedString)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown source", []string{"-source", "line-in"}},
		{"file without input", []string{"-source", "file"}},
		{"bad mode", []string{"-mode", "chromatic"}},
		{"bad string", []string{"-string", "C4"}},
		{"slow bpm", []string{"-bpm", "10"}},
		{"fast bpm", []string{"-bpm", "300"}},
		{"bad beats", []string{"-beats", "0"}},
		{"bad port", []string{"-port", "70000"}},
		{"bad backend", []string{"-capture", "jack"}},
		{"bad frame", []string{"-frame-size", "1"}},
		{"unknown flag", []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDerivedConfigs(t *testing.T) {
	cfg, err := Load([]string{"-sample-rate", "48000", "-device", "USB", "-bpm", "100", "-beats", "3"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tc := cfg.Tuner()
	if tc.Capture.SampleRate != 48000 || tc.Capture.Device != "USB" || tc.Capture.FrameSize != 32768 {
		t.Errorf("unexpected capture config: %+v", tc.Capture)
	}
	if tc.Capture.EchoCancellation || tc.Capture.NoiseSuppression || tc.Capture.AutoGainControl {
		t.Error("expected voice processing disabled")
	}

	mc := cfg.MetronomeConfig()
	if mc.BPM != 100 || mc.BeatsPerBar != 3 {
		t.Errorf("unexpected metronome config: %+v", mc)
	}
}
