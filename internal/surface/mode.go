package surface

import (
	"errors"

	"github.com/mvidal/rewatch/internal/media"
)

// SetMode switches the active decode path. The outgoing path is paused, the
// incoming path receives the exact position plus the current volume and mute
// flags, and playback resumes only if the outgoing path was playing.
// Entering audio-only while full-screen forces a full-screen exit: the two
// are mutually exclusive.
func (s *Surface) SetMode(mode Mode) error {
	s.mu.Lock()
	if s.closed || mode == s.mode {
		s.mu.Unlock()
		return nil
	}

	old := s.activeLocked()
	wasPlaying := s.transport.Playing
	pos := old.Position()
	old.Pause()

	s.mode = mode
	next := s.activeLocked()
	next.Seek(pos)
	next.SetVolume(s.transport.Volume)
	next.SetMuted(s.transport.Muted)
	s.transport.Position = pos

	exitFullscreen := mode == ModeAudioOnly && s.fullscreen
	if exitFullscreen {
		s.fullscreen = false
	}

	var err error
	if wasPlaying {
		err = next.Play()
		if errors.Is(err, media.ErrAutoplayBlocked) {
			err = nil
			wasPlaying = false
		}
	}
	s.transport.Playing = wasPlaying && err == nil
	s.mu.Unlock()

	if exitFullscreen {
		s.each(func(sub *Subscription) { sub.sendFullscreenExit() })
	}
	return err
}
