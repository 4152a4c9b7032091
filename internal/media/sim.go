package media

import (
	"sync"
	"time"
)

const (
	simMetadataDelay = 10 * time.Millisecond
	simTickInterval  = 250 * time.Millisecond
)

// SimTrack is a wall-clock-driven decode path: positions advance in real
// time while playing and the media "ends" when the configured duration is
// reached. It stands in for a real media element in the harness and in
// timing-sensitive tests.
type SimTrack struct {
	mu sync.Mutex

	url       string
	duration  time.Duration
	mediaLen  time.Duration // duration reported for every loaded file
	base      time.Duration // position when playback last started/paused
	startedAt time.Time
	playing   bool
	volume    float64
	muted     bool

	gen    int // invalidates pending metadata and tick loops
	events chan Event
	closed bool
}

// NewSimTrack creates a simulated decode path whose media all report the
// given duration.
func NewSimTrack(mediaLen time.Duration) *SimTrack {
	return &SimTrack{
		mediaLen: mediaLen,
		volume:   1.0,
		events:   make(chan Event, 32),
	}
}

func (t *SimTrack) Load(url string) error {
	t.mu.Lock()
	t.url = url
	t.base = 0
	t.duration = 0
	t.playing = false
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	t.emit(Event{Kind: EventBuffering, Buffering: true})

	// Metadata arrives shortly after load, like a real media element.
	time.AfterFunc(simMetadataDelay, func() {
		t.mu.Lock()
		if t.closed || t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.duration = t.mediaLen
		d := t.duration
		t.mu.Unlock()

		t.emit(Event{Kind: EventDurationKnown, Duration: d})
		t.emit(Event{Kind: EventBuffering, Buffering: false})
	})
	return nil
}

func (t *SimTrack) Play() error {
	t.mu.Lock()
	if t.playing || t.closed {
		t.mu.Unlock()
		return nil
	}
	t.playing = true
	t.startedAt = time.Now()
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	go t.run(gen)
	return nil
}

func (t *SimTrack) run(gen int) {
	ticker := time.NewTicker(simTickInterval)
	defer ticker.Stop()

	for range ticker.C {
		t.mu.Lock()
		if t.closed || !t.playing || t.gen != gen {
			t.mu.Unlock()
			return
		}
		pos := t.positionLocked()
		if t.duration > 0 && pos >= t.duration {
			t.base = t.duration
			t.playing = false
			d := t.duration
			t.mu.Unlock()
			t.emit(Event{Kind: EventTime, Position: d})
			t.emit(Event{Kind: EventEnded})
			return
		}
		t.mu.Unlock()
		t.emit(Event{Kind: EventTime, Position: pos})
	}
}

func (t *SimTrack) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.playing {
		return
	}
	t.base = t.positionLocked()
	t.playing = false
	t.gen++
}

func (t *SimTrack) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *SimTrack) Seek(pos time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if t.duration > 0 && pos > t.duration {
		pos = t.duration
	}
	t.base = pos
	t.startedAt = time.Now()
}

func (t *SimTrack) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.positionLocked()
}

func (t *SimTrack) positionLocked() time.Duration {
	pos := t.base
	if t.playing {
		pos += time.Since(t.startedAt)
	}
	if t.duration > 0 && pos > t.duration {
		pos = t.duration
	}
	return pos
}

func (t *SimTrack) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *SimTrack) SetVolume(level float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	t.volume = level
}

func (t *SimTrack) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

func (t *SimTrack) SetMuted(muted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.muted = muted
}

func (t *SimTrack) Muted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

func (t *SimTrack) Events() <-chan Event {
	return t.events
}

func (t *SimTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		t.playing = false
		t.gen++
		close(t.events)
	}
	return nil
}

// emit holds the lock across the send so a concurrent Close cannot close
// the channel between the check and the send.
func (t *SimTrack) emit(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.events <- e:
	default:
	}
}

// Verify SimTrack implements Track at compile time.
var _ Track = (*SimTrack)(nil)
