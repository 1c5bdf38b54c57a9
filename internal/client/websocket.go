// ABOUTME: WebSocket client for a running tuner publisher
// ABOUTME: Handles connection, hello handshake, message routing and controls
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fretwork/fretwork-go/internal/publish"
	"github.com/fretwork/fretwork-go/pkg/metronome"
	"github.com/fretwork/fretwork-go/pkg/tuner"
	"github.com/gorilla/websocket"
)

// Config holds client configuration
type Config struct {
	// URL is the publisher websocket endpoint, e.g. ws://host:8931/ws
	URL              string
	HandshakeTimeout time.Duration
}

// Client represents a connected remote display
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex
	// gorilla allows one concurrent writer
	writeMu sync.Mutex

	// Message channels
	Readings  chan tuner.Reading
	Metronome chan metronome.Status
	Beats     chan metronome.Beat
	Statuses  chan publish.Status
	Errors    chan string

	hello publish.Hello

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewClient creates a new display client
func NewClient(config Config) *Client {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:    config,
		Readings:  make(chan tuner.Reading, 32),
		Metronome: make(chan metronome.Status, 8),
		Beats:     make(chan metronome.Beat, 32),
		Statuses:  make(chan publish.Status, 4),
		Errors:    make(chan string, 8),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect dials the publisher and waits for its hello
func (c *Client) Connect(ctx context.Context) error {
	log.Printf("Connecting to %s", c.config.URL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake reads the hello that every publisher sends first
func (c *Client) handshake() error {
	c.conn.SetReadDeadline(time.Now().Add(c.config.HandshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse hello: %w", err)
	}
	if msg.Type != publish.TypeHello {
		return fmt.Errorf("expected %s, got %s", publish.TypeHello, msg.Type)
	}

	var hello publish.Hello
	if err := json.Unmarshal(msg.Data, &hello); err != nil {
		return fmt.Errorf("failed to parse hello: %w", err)
	}

	c.mu.Lock()
	c.hello = hello
	c.mu.Unlock()

	log.Printf("Connected to %s (%s %s)", hello.Name, hello.Product, hello.Version)
	return nil
}

// Hello returns the publisher's greeting
func (c *Client) Hello() publish.Hello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("Read error: %v", err)
			}
			return
		}
		c.handleMessage(data)
	}
}

// handleMessage decodes one message and hands it to its channel.
// Channels never block the reader; a full channel drops the message.
func (c *Client) handleMessage(data []byte) {
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse message: %v", err)
		return
	}

	switch msg.Type {
	case publish.TypeTuner:
		var r tuner.Reading
		if decode(msg, &r) {
			deliver(c.Readings, r)
		}

	case publish.TypeMetronome:
		var s metronome.Status
		if decode(msg, &s) {
			deliver(c.Metronome, s)
		}

	case publish.TypeBeat:
		var b metronome.Beat
		if decode(msg, &b) {
			deliver(c.Beats, b)
		}

	case publish.TypeStatus:
		var s publish.Status
		if decode(msg, &s) {
			deliver(c.Statuses, s)
		}

	case publish.TypeError:
		var e publish.ErrorData
		if decode(msg, &e) {
			deliver(c.Errors, e.Message)
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

func decode(msg envelope, v interface{}) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		log.Printf("Failed to parse %s: %v", msg.Type, err)
		return false
	}
	return true
}

func deliver[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// SetMode switches the tuner between auto and manual
func (c *Client) SetMode(mode tuner.Mode) error {
	return c.send(publish.TypeMode, mode.String())
}

// SetString selects the manual mode target string
func (c *Client) SetString(name string) error {
	return c.send(publish.TypeString, name)
}

// SetBPM changes the metronome tempo
func (c *Client) SetBPM(bpm int) error {
	return c.send(publish.TypeBPM, bpm)
}

// SetTimeSignature changes the beats per bar
func (c *Client) SetTimeSignature(beats int) error {
	return c.send(publish.TypeTimeSignature, beats)
}

// SetMetronomeRunning starts or stops the metronome
func (c *Client) SetMetronomeRunning(running bool) error {
	return c.send(publish.TypeMetronomeRun, running)
}

func (c *Client) send(msgType string, data interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(publish.Message{Type: msgType, Data: data})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
