// ABOUTME: Message envelopes exchanged with websocket displays
// ABOUTME: Outbound readings and status, inbound control requests
package publish

import (
	"encoding/json"

	"github.com/fretwork/fretwork-go/pkg/metronome"
	"github.com/fretwork/fretwork-go/pkg/tuner"
)

// Outbound message types
const (
	TypeHello     = "hello"
	TypeStatus    = "status"
	TypeTuner     = "tuner"
	TypeMetronome = "metronome"
	TypeBeat      = "beat"
	TypeError     = "error"
)

// Inbound message types
const (
	TypeMode          = "mode"
	TypeString        = "string"
	TypeBPM           = "bpm"
	TypeTimeSignature = "timeSignature"
	TypeMetronomeRun  = "metronome"
)

// Message is the envelope for every websocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// inbound keeps the payload raw until the type is known
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Hello is sent once to every new subscriber
type Hello struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Product string `json:"product"`
	Version string `json:"version"`
}

// Status is the snapshot served at /api/status and sent on connect
type Status struct {
	Tuner     *tuner.Reading   `json:"tuner"`
	Metronome metronome.Status `json:"metronome"`
	Mode      string           `json:"mode,omitempty"`
	String    string           `json:"string,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// ErrorData carries a user-facing error
type ErrorData struct {
	Message string `json:"message"`
}
