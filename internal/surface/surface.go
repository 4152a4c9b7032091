// Package surface presents one logical player backed by two interchangeable
// decode paths (full video and audio-only), so toggling audio-only never
// costs a network re-fetch or the playback position.
package surface

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvidal/rewatch/internal/log"
	"github.com/mvidal/rewatch/internal/media"
)

// Surface owns the two decode paths and the single source of truth for
// transport state. The session controller reads state and issues commands;
// it never mutates transport state directly.
type Surface struct {
	mu sync.RWMutex

	video media.Track
	audio media.Track
	mode  Mode

	source       media.Source
	loaded       bool
	transport    Transport
	startPos     time.Duration
	startApplied bool
	fullscreen   bool

	// gen invalidates event pumps bound to a previous source. It is
	// incremented, and the previous pumps' quit channels closed, before new
	// pumps are started: listeners bound to source N never fire after
	// source N+1 is loaded.
	gen       uint64
	quitVideo chan struct{}
	quitAudio chan struct{}

	subs   []*Subscription
	subsMu sync.RWMutex

	closed bool
	logger zerolog.Logger
}

// New creates a surface over the given decode paths. The video path starts
// active.
func New(video, audio media.Track) *Surface {
	return &Surface{
		video:  video,
		audio:  audio,
		mode:   ModeVideo,
		logger: log.WithComponent("surface"),
		transport: Transport{
			Volume: 1.0,
		},
	}
}

// Load points both decode paths at the source without starting playback.
// Loading the already-loaded source again is a no-op, so rapid duplicate
// loads never double-bind event pumps.
func (s *Surface) Load(source media.Source) error {
	if !source.Playable() {
		return media.ErrNoPlayableFile
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("surface closed")
	}
	if s.loaded && s.source.ID == source.ID {
		s.mu.Unlock()
		return nil
	}

	// Unbind the previous source's pumps before binding new ones.
	s.gen++
	gen := s.gen
	if s.quitVideo != nil {
		close(s.quitVideo)
	}
	if s.quitAudio != nil {
		close(s.quitAudio)
	}
	s.quitVideo = make(chan struct{})
	s.quitAudio = make(chan struct{})
	quitVideo, quitAudio := s.quitVideo, s.quitAudio

	s.source = source
	s.loaded = true
	s.startPos = source.StartPosition
	s.startApplied = false
	s.transport.Position = 0
	s.transport.Duration = 0
	s.transport.Buffering = true
	s.transport.Playing = false
	volume, muted := s.transport.Volume, s.transport.Muted
	url := source.PrimaryURL()
	s.mu.Unlock()

	for _, tr := range []media.Track{s.video, s.audio} {
		if err := tr.Load(url); err != nil {
			// A failed load leaves the surface unloaded, so a retry of the
			// same source is not swallowed by the idempotence check.
			s.mu.Lock()
			if s.gen == gen {
				s.loaded = false
				s.source = media.Source{}
			}
			s.mu.Unlock()
			return err
		}
		tr.Seek(0)
		tr.SetVolume(volume)
		tr.SetMuted(muted)
	}

	go s.pump(s.video, ModeVideo, gen, quitVideo)
	go s.pump(s.audio, ModeAudioOnly, gen, quitAudio)
	return nil
}

// pump forwards one decode path's events while its binding is current.
func (s *Surface) pump(tr media.Track, role Mode, gen uint64, quit <-chan struct{}) {
	events := tr.Events()
	for {
		select {
		case <-quit:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.forward(role, gen, ev)
		}
	}
}

// forward applies one track event to transport state. Events from a stale
// binding or from the inactive path are dropped: the inactive path's own
// metadata must never overwrite duration.
func (s *Surface) forward(role Mode, gen uint64, ev media.Event) {
	s.mu.Lock()
	if s.closed || gen != s.gen || role != s.mode {
		s.mu.Unlock()
		return
	}

	switch ev.Kind {
	case media.EventTime:
		s.transport.Position = ev.Position
		s.mu.Unlock()
		s.each(func(sub *Subscription) { sub.sendTime(ev.Position) })

	case media.EventDurationKnown:
		s.transport.Duration = ev.Duration
		s.applyStartPositionLocked()
		s.mu.Unlock()
		s.each(func(sub *Subscription) { sub.sendDuration(ev.Duration) })

	case media.EventBuffering:
		s.transport.Buffering = ev.Buffering
		s.mu.Unlock()
		s.each(func(sub *Subscription) { sub.sendBuffering(ev.Buffering) })

	case media.EventEnded:
		s.transport.Playing = false
		s.mu.Unlock()
		s.each(func(sub *Subscription) { sub.sendEnded() })

	default:
		s.mu.Unlock()
	}
}

// applyStartPositionLocked seeks to the pending start position exactly once,
// and only when duration is known and the position falls inside it.
func (s *Surface) applyStartPositionLocked() {
	if s.startApplied {
		return
	}
	if s.startPos <= 0 || s.transport.Duration == 0 || s.startPos >= s.transport.Duration {
		return
	}
	s.activeLocked().Seek(s.startPos)
	s.transport.Position = s.startPos
	s.startApplied = true
}

// ApplyStartPosition supplies a start position that arrived after Load,
// typically a durable progress read finishing once the media has already
// started. It seeks at most once per loaded source; later metadata events
// never re-seek.
func (s *Surface) ApplyStartPosition(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.loaded || s.startApplied {
		return
	}
	s.startPos = pos
	if s.transport.Duration > 0 {
		if pos > 0 && pos < s.transport.Duration {
			s.activeLocked().Seek(pos)
			s.transport.Position = pos
		}
		s.startApplied = true
	}
}

func (s *Surface) activeLocked() media.Track {
	if s.mode == ModeAudioOnly {
		return s.audio
	}
	return s.video
}

func (s *Surface) inactiveLocked() media.Track {
	if s.mode == ModeAudioOnly {
		return s.video
	}
	return s.audio
}

// Transport returns a snapshot of the current transport state.
func (s *Surface) Transport() Transport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transport
}

// Sample reports the live position of the active path plus the known
// duration and playing flag. It satisfies the progress sampler contract.
func (s *Surface) Sample() (position, duration time.Duration, playing bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return 0, 0, false
	}
	return s.activeLocked().Position(), s.transport.Duration, s.transport.Playing
}

// Mode returns the active decode path.
func (s *Surface) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Source returns the loaded source (zero value if nothing is loaded).
func (s *Surface) Source() media.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// SetFullscreen records the host's full-screen presentation state.
func (s *Surface) SetFullscreen(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = on
}

// Fullscreen reports whether the host presents full-screen.
func (s *Surface) Fullscreen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fullscreen
}

// Subscribe creates a new event subscription.
func (s *Surface) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

func (s *Surface) each(fn func(*Subscription)) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		fn(sub)
	}
}

// Close tears down pumps and subscriptions and closes both decode paths.
func (s *Surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.gen++
	if s.quitVideo != nil {
		close(s.quitVideo)
	}
	if s.quitAudio != nil {
		close(s.quitAudio)
	}
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	verr := s.video.Close()
	aerr := s.audio.Close()
	if verr != nil {
		return verr
	}
	return aerr
}
