// ABOUTME: Pitch estimation package for monophonic guitar signals
// ABOUTME: Exposes the YIN estimator and an analyser spectrum
// Package pitch estimates the fundamental frequency of a single audio frame.
//
// The estimator is a YIN variant tuned for the open strings of a guitar:
//   - DC removal and an RMS silence gate
//   - first-order pre-emphasis to favour the fundamental over rumble
//   - cumulative-mean-normalized difference over the 70-500 Hz lag range
//   - loudness-adaptive threshold, first-dip search and parabolic refinement
//
// Example:
//
//	est := pitch.Detect(frame, 44100)
//	if est != nil {
//	    fmt.Printf("%.2f Hz (confidence %.2f)\n", est.Frequency, est.Confidence)
//	}
//
// Detect returns nil rather than an error for silence, noise that never
// settles and unusable input, so callers can skip the frame.
package pitch
