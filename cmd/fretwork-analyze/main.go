// ABOUTME: Offline tuner run over an audio file
// ABOUTME: Replays a recording at display rate and prints every reading
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fretwork/fretwork-go/pkg/audio/capture"
	"github.com/fretwork/fretwork-go/pkg/tick"
	"github.com/fretwork/fretwork-go/pkg/tuner"
)

var (
	input     = flag.String("input", "", "Audio file to analyse (wav, mp3, flac)")
	mode      = flag.String("mode", "auto", "Tuner mode: auto or manual")
	target    = flag.String("string", "E2", "Target string in manual mode")
	frameSize = flag.Int("frame-size", 32768, "Analysis window in samples")
	jsonOut   = flag.Bool("json", false, "Print readings as JSON lines")
)

type line struct {
	At time.Duration `json:"at"`
	tuner.Reading
}

func main() {
	flag.Parse()
	if *input == "" {
		log.Fatalf("-input is required")
	}

	m, err := tuner.ParseMode(*mode)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := tuner.DefaultConfig()
	cfg.Capture.FrameSize = *frameSize

	// one hop per tick keeps file time in step with the simulated clock
	hop := int(float64(cfg.Capture.SampleRate) * tick.DisplayRate.Seconds())
	src := capture.NewFile(*input, hop, false)
	start := time.Unix(0, 0)
	sched := tick.NewManual(start, tick.DisplayRate)

	t := tuner.New(cfg, src, sched)
	t.SetMode(m)
	if err := t.SetSelectedString(*target); err != nil {
		log.Fatalf("%v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	t.Subscribe(func(r tuner.Reading) {
		at := src.Position()
		if *jsonOut {
			if err := enc.Encode(line{At: at, Reading: r}); err != nil {
				log.Printf("Error writing reading: %v", err)
			}
			return
		}
		fmt.Printf("%8s  %-3s %+6.1f cents  %7.2f Hz  conf %.2f\n",
			at.Round(time.Millisecond), r.Note, r.Cents, r.Pitch, r.Confidence)
	})

	if err := t.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	for t.Running() {
		sched.Step()
	}

	s := t.Stats()
	log.Printf("Analysed %d frames: %d readings, %d silent, %d unstable, %d out of band, %d throttled",
		s.Ticks, s.Published, s.Silent, s.Unstable, s.OutOfBand, s.Throttled)
}
