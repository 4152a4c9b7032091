package surface

import "time"

// Mode selects which decode path is active.
type Mode int

const (
	ModeVideo Mode = iota
	ModeAudioOnly
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeVideo:
		return "Video"
	case ModeAudioOnly:
		return "AudioOnly"
	default:
		return "Unknown"
	}
}

// Transport is a snapshot of the surface's playback state. Duration is 0
// until the active decode path has reported loaded metadata.
type Transport struct {
	Position  time.Duration
	Duration  time.Duration
	Buffering bool
	Playing   bool
	Volume    float64
	Muted     bool
}
