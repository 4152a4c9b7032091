package media

import (
	"sync"
	"time"
)

// Mock is a scriptable test double for a decode path.
type Mock struct {
	mu sync.Mutex

	url      string
	playing  bool
	position time.Duration
	duration time.Duration
	volume   float64
	muted    bool

	loadCalls []string
	seekCalls []time.Duration
	playErr   error
	loadErr   error

	events chan Event
	closed bool
}

// NewMock creates a new mock decode path.
func NewMock() *Mock {
	return &Mock{
		volume: 1.0,
		events: make(chan Event, 32),
	}
}

func (m *Mock) Load(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls = append(m.loadCalls, url)
	if m.loadErr != nil {
		return m.loadErr
	}
	m.url = url
	m.playing = false
	m.position = 0
	m.duration = 0
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.playing = true
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) Seek(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
	if pos < 0 {
		pos = 0
	}
	if m.duration > 0 && pos > m.duration {
		pos = m.duration
	}
	m.position = pos
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	m.volume = level
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

func (m *Mock) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// Test helpers

// SetPlayError makes subsequent Play calls fail with err.
func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// SetLoadError makes subsequent Load calls fail with err. The attempt is
// still recorded in LoadCalls.
func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetPosition sets the reported position without emitting an event.
func (m *Mock) SetPosition(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
}

// LoadCalls returns the URLs passed to Load, in order.
func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

// SeekCalls returns the positions passed to Seek, in order.
func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

// EmitTime emits a time update and moves the reported position.
func (m *Mock) EmitTime(pos time.Duration) {
	m.mu.Lock()
	m.position = pos
	m.mu.Unlock()
	m.emit(Event{Kind: EventTime, Position: pos})
}

// EmitDuration emits loaded metadata and sets the reported duration.
func (m *Mock) EmitDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
	m.emit(Event{Kind: EventDurationKnown, Duration: d})
}

// EmitBuffering emits a buffering change.
func (m *Mock) EmitBuffering(loading bool) {
	m.emit(Event{Kind: EventBuffering, Buffering: loading})
}

// EmitEnded emits end-of-media and stops the mock.
func (m *Mock) EmitEnded() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
	m.emit(Event{Kind: EventEnded})
}

// emit holds the lock across the send so a concurrent Close cannot close
// the channel between the check and the send.
func (m *Mock) emit(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.events <- e:
	default:
	}
}

// Verify Mock implements Track at compile time.
var _ Track = (*Mock)(nil)
