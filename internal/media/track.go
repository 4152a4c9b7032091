// Package media defines the decode-path primitive the playback surface is
// built on: one Track per concrete media element (full video or audio-only),
// plus the playback source descriptor both paths share.
package media

import (
	"errors"
	"time"
)

// ErrAutoplayBlocked is returned by Play when the host environment refuses
// to start playback without user interaction. Callers treat it as "paused
// and ready", never as a fatal error.
var ErrAutoplayBlocked = errors.New("autoplay blocked by host")

// ErrNoPlayableFile indicates a source with no resolvable candidate file.
var ErrNoPlayableFile = errors.New("no playable file")

// Track is one decode path. Exactly one of the surface's two tracks is ever
// playing; the surface owns which one.
type Track interface {
	// Load prepares the track for the given file URL without starting
	// playback. Any previously loaded media is released first.
	Load(url string) error

	// Play starts or resumes playback. May return ErrAutoplayBlocked.
	Play() error
	Pause()
	Playing() bool

	// Seek moves to an absolute position. Out-of-range positions are
	// clamped by the implementation.
	Seek(pos time.Duration)
	Position() time.Duration
	// Duration returns 0 until the loaded media has reported metadata.
	Duration() time.Duration

	SetVolume(level float64) // 0.0 to 1.0, clamped
	Volume() float64
	SetMuted(muted bool)
	Muted() bool

	// Events returns the track's event stream. The channel is owned by the
	// track and closed by Close.
	Events() <-chan Event

	Close() error
}

// EventKind identifies a track event.
type EventKind int

const (
	// EventTime reports playback position progress.
	EventTime EventKind = iota
	// EventDurationKnown fires once the media's duration is known.
	EventDurationKnown
	// EventBuffering reports a change in the track's loading state.
	EventBuffering
	// EventEnded fires when playback reaches the end of the media.
	EventEnded
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventTime:
		return "Time"
	case EventDurationKnown:
		return "DurationKnown"
	case EventBuffering:
		return "Buffering"
	case EventEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// Event is a single notification from a decode path.
type Event struct {
	Kind      EventKind
	Position  time.Duration // EventTime
	Duration  time.Duration // EventDurationKnown
	Buffering bool          // EventBuffering
}
