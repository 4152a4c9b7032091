package media

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

var speakerOnce sync.Once

// LocalTrack is a decode path over a locally cached audio rendition
// (file:// mp3 or flac). It backs the audio-only path when an item has been
// downloaded for offline listening.
type LocalTrack struct {
	mu sync.Mutex

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volCtrl  *effects.Volume
	file     *os.File

	playing  bool
	volume   float64
	muted    bool
	duration time.Duration

	gen    int // invalidates the finish callback of a replaced load
	events chan Event
	closed bool
}

// NewLocalTrack creates a local-file decode path.
func NewLocalTrack() *LocalTrack {
	return &LocalTrack{
		volume: 1.0,
		events: make(chan Event, 32),
	}
}

func (t *LocalTrack) Load(url string) error {
	path := strings.TrimPrefix(url, "file://")

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".mp3" && ext != ".flac" {
		return fmt.Errorf("unsupported local format: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	}
	if err != nil {
		f.Close()
		return err
	}

	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if initErr != nil {
		streamer.Close()
		f.Close()
		return initErr
	}

	t.mu.Lock()
	t.releaseLocked()
	t.gen++
	gen := t.gen

	t.file = f
	t.streamer = streamer
	t.format = format
	t.duration = format.SampleRate.D(streamer.Len())
	// Loading never starts playback; the surface decides when to play.
	t.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}
	t.volCtrl = &effects.Volume{
		Streamer: t.ctrl,
		Base:     2,
		Volume:   levelToVolume(t.volume),
		Silent:   t.muted,
	}
	t.playing = false
	d := t.duration
	vol := t.volCtrl
	t.mu.Unlock()

	speaker.Play(beep.Seq(vol, beep.Callback(func() {
		t.mu.Lock()
		if t.closed || t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.playing = false
		t.mu.Unlock()
		t.emit(Event{Kind: EventEnded})
	})))

	t.emit(Event{Kind: EventDurationKnown, Duration: d})
	return nil
}

func (t *LocalTrack) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctrl == nil {
		return ErrNoPlayableFile
	}
	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()
	t.playing = true
	return nil
}

func (t *LocalTrack) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctrl == nil {
		return
	}
	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()
	t.playing = false
}

func (t *LocalTrack) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *LocalTrack) Seek(pos time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.streamer == nil {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > t.duration {
		pos = t.duration
	}
	n := t.format.SampleRate.N(pos)
	if n >= t.streamer.Len() {
		n = t.streamer.Len() - 1
	}
	speaker.Lock()
	_ = t.streamer.Seek(n)
	speaker.Unlock()
}

func (t *LocalTrack) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.streamer == nil {
		return 0
	}
	return t.format.SampleRate.D(t.streamer.Position())
}

func (t *LocalTrack) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

// SetVolume sets the volume level (0.0 to 1.0). If muted, only the stored
// level changes; the audible level is restored on unmute.
func (t *LocalTrack) SetVolume(level float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	t.volume = level
	if t.volCtrl != nil && !t.muted {
		speaker.Lock()
		t.volCtrl.Volume = levelToVolume(level)
		speaker.Unlock()
	}
}

func (t *LocalTrack) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

func (t *LocalTrack) SetMuted(muted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.muted = muted
	if t.volCtrl != nil {
		speaker.Lock()
		t.volCtrl.Silent = muted
		speaker.Unlock()
	}
}

func (t *LocalTrack) Muted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

func (t *LocalTrack) Events() <-chan Event {
	return t.events
}

func (t *LocalTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.gen++
	speaker.Clear()
	t.releaseLocked()
	close(t.events)
	return nil
}

func (t *LocalTrack) releaseLocked() {
	if t.streamer != nil {
		t.streamer.Close()
		t.streamer = nil
	}
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
	t.ctrl = nil
	t.volCtrl = nil
	t.playing = false
	t.duration = 0
}

// emit holds the lock across the send so a concurrent Close cannot close
// the channel between the check and the send.
func (t *LocalTrack) emit(e Event) {
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

// levelToVolume converts a 0.0-1.0 level to beep's logarithmic volume.
// 1.0 -> 0 (no change), 0.5 -> -1 (half), 0 -> -10 (essentially silent).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

// Verify LocalTrack implements Track at compile time.
var _ Track = (*LocalTrack)(nil)
