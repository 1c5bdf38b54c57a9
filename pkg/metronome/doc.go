// ABOUTME: Metronome package for click tracks against an audio clock
// ABOUTME: Lookahead scheduling keeps timer jitter out of the output
// Package metronome schedules click sounds on an audio output clock.
//
// A short-interval timer wakes the scheduler, which queues every click
// falling inside the next ScheduleAhead seconds at its exact audio clock
// time. The timer only needs to be early enough, never accurate:
//
//	m := metronome.New(metronome.DefaultConfig(), factory, tick.NewTimer(25*time.Millisecond))
//	if err := m.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Stop()
//	m.SetBPM(90)
package metronome
