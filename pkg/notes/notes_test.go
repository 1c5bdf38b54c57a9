// ABOUTME: Tests for the note table
// ABOUTME: Covers nearest-note lookup, tie breaking and cents math
package notes

import (
	"math"
	"testing"
)

func TestFindClosestExactStrings(t *testing.T) {
	for _, n := range Standard {
		t.Run(n.Name, func(t *testing.T) {
			m := FindClosest(n.Frequency)
			if m == nil {
				t.Fatal("expected match, got nil")
			}
			if m.Note != n.Name {
				t.Errorf("expected %s, got %s", n.Name, m.Note)
			}
			if math.Abs(m.Cents) > 1e-9 {
				t.Errorf("expected 0 cents, got %f", m.Cents)
			}
		})
	}
}

func TestFindClosestInvalid(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"zero", 0},
		{"negative", -110},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m := FindClosest(tt.freq); m != nil {
				t.Errorf("expected nil, got %+v", m)
			}
		})
	}
}

func TestFindClosestTotalAndConsistent(t *testing.T) {
	for f := 1.0; f < 2000; f += 7.3 {
		m := FindClosest(f)
		if m == nil {
			t.Fatalf("expected match for %f", f)
		}
		if _, ok := ByName(m.Note); !ok {
			t.Fatalf("unknown note %q for %f", m.Note, f)
		}
		want := 1200 * math.Log2(f/m.TargetFreq)
		if math.Abs(m.Cents-want) > 1e-9 {
			t.Errorf("cents for %f: expected %f, got %f", f, want, m.Cents)
		}
	}
}

func TestFindClosestTieGoesToLowerString(t *testing.T) {
	mid := (Standard[0].Frequency + Standard[1].Frequency) / 2
	if mid-Standard[0].Frequency != Standard[1].Frequency-mid {
		t.Skip("midpoint is not an exact tie in floating point")
	}
	m := FindClosest(mid)
	if m.Note != "E2" {
		t.Errorf("expected tie to resolve to E2, got %s", m.Note)
	}
}

func TestFindClosestNeighbours(t *testing.T) {
	tests := []struct {
		freq float64
		want string
	}{
		{87.31, "E2"}, // F2 is still nearest to E2
		{100, "A2"},
		{170, "D3"},
		{215, "G3"},
		{270, "B3"},
		{480, "E4"},
	}

	for _, tt := range tests {
		if m := FindClosest(tt.freq); m.Note != tt.want {
			t.Errorf("FindClosest(%v): expected %s, got %s", tt.freq, tt.want, m.Note)
		}
	}
}

func TestByName(t *testing.T) {
	n, ok := ByName("a2")
	if !ok || n.Frequency != 110 {
		t.Errorf("expected A2 at 110Hz, got %+v ok=%v", n, ok)
	}
	if _, ok := ByName("C4"); ok {
		t.Error("expected C4 to be missing")
	}
	if len(Names()) != 6 {
		t.Errorf("expected 6 names, got %d", len(Names()))
	}
}
