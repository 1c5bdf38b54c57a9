// ABOUTME: Websocket publisher for tuner readings and metronome state
// ABOUTME: Fans out JSON envelopes and routes display control requests
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fretwork/fretwork-go/internal/version"
	"github.com/fretwork/fretwork-go/pkg/metronome"
	"github.com/fretwork/fretwork-go/pkg/tuner"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Controls is what displays may change remotely
type Controls interface {
	SetMode(mode tuner.Mode)
	SetSelectedString(name string) error
	SetBPM(bpm int)
	SetBeatsPerBar(beats int)
	SetMetronomeRunning(running bool) error
}

// Config holds publisher configuration
type Config struct {
	Name string
	Port int
	// SendBuffer is the per-subscriber queue; a subscriber that falls
	// this far behind is dropped
	SendBuffer int
}

// Publisher serves /ws and /api/status
type Publisher struct {
	config   Config
	controls Controls
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	httpServer *http.Server
	listener   net.Listener

	subscribers map[string]*subscriber
	subsMu      sync.RWMutex

	statusMu sync.RWMutex
	status   Status

	wg sync.WaitGroup
}

type subscriber struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// New creates a publisher. controls may be nil for a read-only display.
func New(config Config, controls Controls) *Publisher {
	if config.SendBuffer < 2 {
		config.SendBuffer = 64
	}

	p := &Publisher{
		config:   config,
		controls: controls,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// local network displays only; any origin may connect
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subscribers: make(map[string]*subscriber),
	}
	p.mux.HandleFunc("/ws", p.handleWebSocket)
	p.mux.HandleFunc("/api/status", p.handleStatus)
	return p
}

// Handler returns the HTTP handler for embedding or tests
func (p *Publisher) Handler() http.Handler {
	return p.mux
}

// Start listens on the configured port and serves in the background
func (p *Publisher) Start() error {
	addr := fmt.Sprintf(":%d", p.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	p.listener = ln
	p.httpServer = &http.Server{Handler: p.mux}

	log.Printf("Publisher listening on %s", ln.Addr())
	go func() {
		if err := p.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("Publisher HTTP error: %v", err)
		}
	}()
	return nil
}

// Addr returns the listening address once started
func (p *Publisher) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stop disconnects every subscriber and shuts the HTTP server down
func (p *Publisher) Stop(ctx context.Context) error {
	p.subsMu.Lock()
	for id, sub := range p.subscribers {
		sub.close()
		delete(p.subscribers, id)
	}
	p.subsMu.Unlock()

	var err error
	if p.httpServer != nil {
		err = p.httpServer.Shutdown(ctx)
	}
	p.wg.Wait()
	return err
}

// PublishTuner broadcasts a tuner reading and caches it for /api/status
func (p *Publisher) PublishTuner(r tuner.Reading) {
	p.statusMu.Lock()
	p.status.Tuner = &r
	p.statusMu.Unlock()
	p.broadcast(TypeTuner, r)
}

// PublishMetronome broadcasts metronome status
func (p *Publisher) PublishMetronome(s metronome.Status) {
	p.statusMu.Lock()
	p.status.Metronome = s
	p.statusMu.Unlock()
	p.broadcast(TypeMetronome, s)
}

// PublishBeat broadcasts a beat for visual accents
func (p *Publisher) PublishBeat(b metronome.Beat) {
	p.broadcast(TypeBeat, b)
}

// PublishTunerState records mode, selected string and error for the
// status snapshot
func (p *Publisher) PublishTunerState(mode tuner.Mode, selected, errMsg string) {
	p.statusMu.Lock()
	changed := p.status.Error != errMsg
	p.status.Mode = mode.String()
	p.status.String = selected
	p.status.Error = errMsg
	p.statusMu.Unlock()

	if changed && errMsg != "" {
		p.broadcast(TypeError, ErrorData{Message: errMsg})
	}
}

// Status returns the current snapshot
func (p *Publisher) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	s := p.status
	if s.Tuner != nil {
		r := *s.Tuner
		s.Tuner = &r
	}
	return s
}

// SubscriberCount returns the number of connected displays
func (p *Publisher) SubscriberCount() int {
	p.subsMu.RLock()
	defer p.subsMu.RUnlock()
	return len(p.subscribers)
}

func (p *Publisher) broadcast(msgType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msgType, err)
		return
	}

	var slow []*subscriber
	p.subsMu.RLock()
	for _, sub := range p.subscribers {
		select {
		case sub.send <- payload:
		default:
			slow = append(slow, sub)
		}
	}
	p.subsMu.RUnlock()

	for _, sub := range slow {
		log.Printf("Dropping slow subscriber %s", sub.id)
		p.remove(sub)
	}
}

func (p *Publisher) remove(sub *subscriber) {
	p.subsMu.Lock()
	if p.subscribers[sub.id] == sub {
		delete(p.subscribers, sub.id)
	}
	p.subsMu.Unlock()
	sub.close()
}

func (p *Publisher) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p.Status()); err != nil {
		log.Printf("Error writing status: %v", err)
	}
}

func (p *Publisher) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	sub := &subscriber{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, p.config.SendBuffer),
	}
	log.Printf("Display connected: %s from %s", sub.id, r.RemoteAddr)

	// greet before registering so the hello always arrives first
	for _, msg := range []Message{
		{Type: TypeHello, Data: Hello{ID: sub.id, Name: p.config.Name, Product: version.Product, Version: version.Version}},
		{Type: TypeStatus, Data: p.Status()},
	} {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Error marshaling %s: %v", msg.Type, err)
			conn.Close()
			return
		}
		sub.send <- data
	}

	p.subsMu.Lock()
	p.subscribers[sub.id] = sub
	p.subsMu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.writer(sub)
	}()

	p.reader(sub)
}

// reader handles inbound control messages until the connection drops
func (p *Publisher) reader(sub *subscriber) {
	defer func() {
		p.remove(sub)
		log.Printf("Display disconnected: %s", sub.id)
	}()

	for {
		_, data, err := sub.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if err := p.handleControl(data); err != nil {
			log.Printf("Control request from %s rejected: %v", sub.id, err)
			p.reply(sub, TypeError, ErrorData{Message: err.Error()})
		}
	}
}

// writer drains the send queue, closing the connection when it ends
func (p *Publisher) writer(sub *subscriber) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer sub.conn.Close()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case data, ok := <-sub.send:
			if !ok {
				sub.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			sub.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing to %s: %v", sub.id, err)
				return
			}

		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

func (p *Publisher) reply(sub *subscriber, msgType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		return
	}
	p.subsMu.RLock()
	defer p.subsMu.RUnlock()
	if p.subscribers[sub.id] != sub {
		return
	}
	select {
	case sub.send <- payload:
	default:
	}
}

func (p *Publisher) handleControl(data []byte) error {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if p.controls == nil {
		return fmt.Errorf("controls are disabled")
	}

	switch msg.Type {
	case TypeMode:
		var s string
		if err := json.Unmarshal(msg.Data, &s); err != nil {
			return fmt.Errorf("invalid mode: %w", err)
		}
		mode, err := tuner.ParseMode(s)
		if err != nil {
			return err
		}
		p.controls.SetMode(mode)

	case TypeString:
		var s string
		if err := json.Unmarshal(msg.Data, &s); err != nil {
			return fmt.Errorf("invalid string: %w", err)
		}
		return p.controls.SetSelectedString(s)

	case TypeBPM:
		var bpm int
		if err := json.Unmarshal(msg.Data, &bpm); err != nil {
			return fmt.Errorf("invalid bpm: %w", err)
		}
		p.controls.SetBPM(metronome.ClampBPM(bpm))

	case TypeTimeSignature:
		var beats int
		if err := json.Unmarshal(msg.Data, &beats); err != nil {
			return fmt.Errorf("invalid time signature: %w", err)
		}
		if beats < 1 {
			return fmt.Errorf("invalid time signature: %d", beats)
		}
		p.controls.SetBeatsPerBar(beats)

	case TypeMetronomeRun:
		var running bool
		if err := json.Unmarshal(msg.Data, &running); err != nil {
			return fmt.Errorf("invalid metronome state: %w", err)
		}
		return p.controls.SetMetronomeRunning(running)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
	return nil
}
