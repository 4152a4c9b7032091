package session

// State is the playback session state.
//
// Transitions are driven by discrete events only:
//
//	Idle ── Open ──▶ Loading ──▶ Ready ──▶ Playing ◀──▶ Paused
//	                    │                     │
//	                    ▼                     ▼
//	               Unavailable              Ended ──▶ Loading(next) | Paused
//
// Loading → Ready requires both the metadata resolve and the durable
// starting-position read to have completed (or the read to have been
// skipped for an unauthenticated viewer). Ended advances to the next item
// unless a sleep-timer expiry was consumed, in which case the session ends
// in Paused.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateEnded
	StateUnavailable
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Ready"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateEnded:
		return "Ended"
	case StateUnavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// ControlsEnabled reports whether transport controls act in this state.
func (s State) ControlsEnabled() bool {
	return s == StateReady || s == StatePlaying || s == StatePaused || s == StateEnded
}

// StateChange is emitted when the session state changes.
type StateChange struct {
	Previous State
	Current  State
}

// ItemChange is emitted when the active item changes.
type ItemChange struct {
	ItemID string
	Title  string
	Index  int // index within the playlist, -1 if none
}
