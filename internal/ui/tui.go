// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and its outbound control channels
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fretwork/fretwork-go/pkg/tuner"
)

// RequestKind names what a control request changes
type RequestKind int

const (
	RequestMode RequestKind = iota
	RequestString
	RequestTuner
	RequestBPM
	RequestTimeSignature
	RequestMetronome
)

// Request is a user action for the application to carry out
type Request struct {
	Kind        RequestKind
	Mode        tuner.Mode
	String      string
	BPM         int
	BeatsPerBar int
	Running     bool
}

// QuitMsg signals that the user quit the TUI
type QuitMsg struct{}

// Controls holds channels for control communication
type Controls struct {
	Requests chan Request
	Quit     chan QuitMsg
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Requests: make(chan Request, 16),
		Quit:     make(chan QuitMsg, 1),
	}
}

// Run creates the TUI program; the caller runs it
func Run(ctrl *Controls, name string) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl, name), tea.WithAltScreen())
	return p, nil
}
