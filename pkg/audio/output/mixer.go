// ABOUTME: Sample-accurate voice mixer backing every audio clock
// ABOUTME: Voices wait in a start-time heap and are summed as frames render
package output

import (
	"container/heap"
	"log"
	"math"
	"sync"
)

// Mixer sums scheduled voices into a mono stream. The number of frames it
// has rendered is the audio clock.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	frames     int64
	queue      *voiceQueue
	active     []*voice
	volume     int
	muted      bool

	stats MixerStats
}

// MixerStats tracks mixer metrics
type MixerStats struct {
	Scheduled int64
	Played    int64
	Late      int64
}

type voice struct {
	start   int64
	samples []float32
	pos     int
}

// NewMixer creates a mixer at sampleRate
func NewMixer(sampleRate int) *Mixer {
	return &Mixer{
		sampleRate: sampleRate,
		queue:      newVoiceQueue(),
		volume:     100,
	}
}

// SampleRate returns the mixer rate
func (m *Mixer) SampleRate() int {
	return m.sampleRate
}

// CurrentTime returns rendered frames in seconds
func (m *Mixer) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.frames) / float64(m.sampleRate)
}

// Frames returns the number of frames rendered so far
func (m *Mixer) Frames() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// Schedule queues samples to begin at the frame nearest to at. A voice
// whose start has already been rendered plays from the next frame.
func (m *Mixer) Schedule(at float64, samples []float32) {
	if len(samples) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := int64(math.Round(at * float64(m.sampleRate)))
	if start < m.frames {
		if m.stats.Late < 5 {
			log.Printf("Late voice: %d frames behind the clock", m.frames-start)
		}
		m.stats.Late++
		start = m.frames
	}

	m.stats.Scheduled++
	heap.Push(m.queue, &voice{start: start, samples: samples})
}

// Render fills out with the next len(out) frames and advances the clock
func (m *Mixer) Render(out []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range out {
		out[i] = 0
	}

	blockStart := m.frames
	blockEnd := blockStart + int64(len(out))

	for m.queue.Len() > 0 && m.queue.Peek().start < blockEnd {
		m.active = append(m.active, heap.Pop(m.queue).(*voice))
		m.stats.Played++
	}

	remaining := m.active[:0]
	for _, v := range m.active {
		offset := 0
		if v.start > blockStart {
			offset = int(v.start - blockStart)
		}
		for i := offset; i < len(out) && v.pos < len(v.samples); i++ {
			out[i] += v.samples[v.pos]
			v.pos++
		}
		if v.pos < len(v.samples) {
			remaining = append(remaining, v)
		}
	}
	for i := len(remaining); i < len(m.active); i++ {
		m.active[i] = nil
	}
	m.active = remaining

	applyVolume(out, m.volume, m.muted)
	m.frames = blockEnd
}

// Pending returns voices not yet finished
func (m *Mixer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len() + len(m.active)
}

// Clear drops every queued and sounding voice
func (m *Mixer) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = newVoiceQueue()
	m.active = nil
}

// SetVolume sets the volume (0-100)
func (m *Mixer) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	m.mu.Lock()
	m.volume = volume
	m.mu.Unlock()
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (m *Mixer) SetMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
}

// Stats returns mixer statistics
func (m *Mixer) Stats() MixerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// voiceQueue is a priority queue of voices ordered by start frame
type voiceQueue struct {
	items []*voice
}

func newVoiceQueue() *voiceQueue {
	q := &voiceQueue{}
	heap.Init(q)
	return q
}

// Implement heap.Interface
func (q *voiceQueue) Len() int { return len(q.items) }

func (q *voiceQueue) Less(i, j int) bool {
	return q.items[i].start < q.items[j].start
}

func (q *voiceQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *voiceQueue) Push(x interface{}) {
	q.items = append(q.items, x.(*voice))
}

func (q *voiceQueue) Pop() interface{} {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}

func (q *voiceQueue) Peek() *voice {
	return q.items[0]
}
