// ABOUTME: Tuner package turning microphone pitch into stable note readings
// ABOUTME: State holds the per-tick pipeline, Tuner owns device and loop
// Package tuner stabilizes per-frame pitch estimates into readings a
// display can follow.
//
// Each tick the Tuner reads the latest frame, estimates its pitch and feeds
// State.Step, which
//   - folds octaves above the band and buffers the last eight pitches
//   - averages them weighted by confidence
//   - waits for two agreeing ticks before trusting the result
//   - maps it to the nearest string (auto) or the chosen string (manual)
//     with a note-switch hysteresis, a dead-on zone and a manual gate
//   - throttles published readings to one per 50ms
//
// Silence, instability and out-of-band pitches are skips, not errors; only
// failing to open the input is reported to the user.
package tuner
