package session

const eventBufferSize = 16

// Subscription provides event channels for one observer of the session.
type Subscription struct {
	StateChanged <-chan StateChange
	ItemChanged  <-chan ItemChange
	Done         <-chan struct{}

	stateCh chan StateChange
	itemCh  chan ItemChange
	doneCh  chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh: make(chan StateChange, eventBufferSize),
		itemCh:  make(chan ItemChange, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.ItemChanged = s.itemCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
	}
}

func (s *Subscription) sendItem(e ItemChange) {
	select {
	case s.itemCh <- e:
	default:
	}
}
