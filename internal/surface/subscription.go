package surface

import "time"

const eventBufferSize = 16

// Subscription provides event channels for one consumer of the surface.
// Only the active decode path's events ever reach these channels.
type Subscription struct {
	TimeUpdated    <-chan time.Duration
	DurationKnown  <-chan time.Duration
	Buffering      <-chan bool
	Ended          <-chan struct{}
	FullscreenExit <-chan struct{}
	Done           <-chan struct{}

	// Internal write channels
	timeCh       chan time.Duration
	durationCh   chan time.Duration
	bufferingCh  chan bool
	endedCh      chan struct{}
	fullscreenCh chan struct{}
	doneCh       chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		timeCh:       make(chan time.Duration, eventBufferSize),
		durationCh:   make(chan time.Duration, eventBufferSize),
		bufferingCh:  make(chan bool, eventBufferSize),
		endedCh:      make(chan struct{}, eventBufferSize),
		fullscreenCh: make(chan struct{}, eventBufferSize),
		doneCh:       make(chan struct{}),
	}
	s.TimeUpdated = s.timeCh
	s.DurationKnown = s.durationCh
	s.Buffering = s.bufferingCh
	s.Ended = s.endedCh
	s.FullscreenExit = s.fullscreenCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// All sends are non-blocking: a slow consumer drops events instead of
// stalling the pump.

func (s *Subscription) sendTime(pos time.Duration) {
	select {
	case s.timeCh <- pos:
	default:
	}
}

func (s *Subscription) sendDuration(d time.Duration) {
	select {
	case s.durationCh <- d:
	default:
	}
}

func (s *Subscription) sendBuffering(loading bool) {
	select {
	case s.bufferingCh <- loading:
	default:
	}
}

func (s *Subscription) sendEnded() {
	select {
	case s.endedCh <- struct{}{}:
	default:
	}
}

func (s *Subscription) sendFullscreenExit() {
	select {
	case s.fullscreenCh <- struct{}{}:
	default:
	}
}
