package surface

import (
	"errors"
	"time"

	"github.com/mvidal/rewatch/internal/media"
)

// Play starts playback on the active decode path. A policy-blocked autoplay
// is swallowed and surfaced only as Playing=false.
func (s *Surface) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.loaded {
		return nil
	}
	err := s.activeLocked().Play()
	if err != nil {
		if errors.Is(err, media.ErrAutoplayBlocked) {
			s.logger.Debug().Str("source", s.source.ID).Msg("autoplay blocked, staying paused")
			s.transport.Playing = false
			return nil
		}
		return err
	}
	s.transport.Playing = true
	return nil
}

// Pause pauses the active decode path.
func (s *Surface) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.loaded {
		return
	}
	s.activeLocked().Pause()
	s.transport.Playing = false
}

// Seek moves the active path to an absolute position, clamped to
// [0, duration].
func (s *Surface) Seek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(pos)
}

func (s *Surface) seekLocked(pos time.Duration) {
	if s.closed || !s.loaded {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if s.transport.Duration > 0 && pos > s.transport.Duration {
		pos = s.transport.Duration
	}
	s.activeLocked().Seek(pos)
	s.transport.Position = pos
}

// Skip moves the active path by a relative delta, clamped to [0, duration].
func (s *Surface) Skip(delta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.loaded {
		return
	}
	s.seekLocked(s.activeLocked().Position() + delta)
}

// SetVolume mirrors the level onto both decode paths, so a later mode
// switch cannot revert it. External writes always win.
func (s *Surface) SetVolume(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	s.transport.Volume = level
	s.video.SetVolume(level)
	s.audio.SetVolume(level)
}

// SetMuted mirrors the mute flag onto both decode paths.
func (s *Surface) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport.Muted = muted
	s.video.SetMuted(muted)
	s.audio.SetMuted(muted)
}
