// ABOUTME: Standard guitar tuning note table
// ABOUTME: Nearest-note classification and cents deviation
package notes

import (
	"math"
	"strings"
)

// Note is an open-string pitch of a standard-tuned guitar
type Note struct {
	Name      string
	Frequency float64
}

// Match is the result of classifying a frequency against the table
type Match struct {
	Note       string  `json:"note"`
	TargetFreq float64 `json:"targetFreq"`
	Cents      float64 `json:"cents"`
}

// Standard holds the six open strings, lowest first
var Standard = []Note{
	{Name: "E2", Frequency: 82.41},
	{Name: "A2", Frequency: 110.00},
	{Name: "D3", Frequency: 146.83},
	{Name: "G3", Frequency: 196.00},
	{Name: "B3", Frequency: 246.94},
	{Name: "E4", Frequency: 329.63},
}

// Cents returns the interval from target to freq in cents
func Cents(freq, target float64) float64 {
	return 1200 * math.Log2(freq/target)
}

// FindClosest returns the standard note nearest to freq in Hz.
// Ties go to the lower string. Returns nil for zero, negative or
// non-finite input.
func FindClosest(freq float64) *Match {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return nil
	}

	best := Standard[0]
	bestDist := math.Abs(freq - best.Frequency)
	for _, n := range Standard[1:] {
		if d := math.Abs(freq - n.Frequency); d < bestDist {
			best = n
			bestDist = d
		}
	}

	return &Match{
		Note:       best.Name,
		TargetFreq: best.Frequency,
		Cents:      Cents(freq, best.Frequency),
	}
}

// ByName looks up a standard note, case-insensitively
func ByName(name string) (Note, bool) {
	for _, n := range Standard {
		if strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	return Note{}, false
}

// Names returns the string names in table order
func Names() []string {
	names := make([]string, len(Standard))
	for i, n := range Standard {
		names[i] = n.Name
	}
	return names
}
