// ABOUTME: Renders a metronome click track to a WAV file
// ABOUTME: Runs the live scheduler against an offline audio clock
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/fretwork/fretwork-go/pkg/audio/encode"
	"github.com/fretwork/fretwork-go/pkg/audio/output"
	"github.com/fretwork/fretwork-go/pkg/metronome"
	"github.com/fretwork/fretwork-go/pkg/tick"
)

var (
	out        = flag.String("out", "click.wav", "Output WAV file")
	bpm        = flag.Int("bpm", 120, "Tempo")
	beats      = flag.Int("beats", 4, "Beats per bar")
	bars       = flag.Int("bars", 8, "Bars to render")
	sampleRate = flag.Int("sample-rate", 44100, "Output sample rate")
	bitDepth   = flag.Int("bit-depth", 16, "Output bit depth (16 or 24)")
)

func main() {
	flag.Parse()
	if *beats < 1 || *bars < 1 {
		log.Fatalf("-beats and -bars must be at least 1")
	}

	cfg := metronome.DefaultConfig()
	cfg.BPM = metronome.ClampBPM(*bpm)
	cfg.BeatsPerBar = *beats

	clock := output.NewManualClock(*sampleRate, true)
	sched := tick.NewManual(time.Unix(0, 0), cfg.Lookahead)
	m := metronome.New(cfg, func() (output.Clock, error) { return clock, nil }, sched)

	if err := m.Start(); err != nil {
		log.Fatalf("Failed to start metronome: %v", err)
	}

	beatLen := time.Duration(float64(time.Minute) / float64(cfg.BPM))
	// stop where the beat after the last bar would start
	total := time.Duration(*bars**beats)*beatLen + time.Duration(cfg.StartOffset*float64(time.Second))
	for elapsed := time.Duration(0); elapsed < total; elapsed += cfg.Lookahead {
		clock.Advance(cfg.Lookahead)
		sched.Step()
	}
	m.Stop()

	rec := clock.Recording()
	rec = rec[:min(len(rec), int(total.Seconds()*float64(*sampleRate)))]
	samples := make([]float64, len(rec))
	for i, s := range rec {
		samples[i] = float64(s)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}
	defer f.Close()

	if err := encode.WriteWAV(f, samples, *sampleRate, *bitDepth); err != nil {
		log.Fatalf("Failed to write WAV: %v", err)
	}
	log.Printf("Wrote %d bars at %d bpm (%s) to %s", *bars, cfg.BPM, time.Duration(len(samples))*time.Second/time.Duration(*sampleRate), *out)
}
