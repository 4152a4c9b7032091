// Package sleeptimer implements the auto-stop countdown.
//
// The state machine has two states:
//
//	Idle  ── Start ──▶ Active
//	Active ── Cancel ─▶ Idle
//	Active ── expiry ─▶ Idle (callback fires exactly once)
//
// Starting while already Active replaces the target without stacking a
// second countdown. The remaining time is always derived from the target
// and the wall clock, never stored, so it cannot drift.
package sleeptimer

import (
	"sync"
	"time"
)

const tickInterval = time.Second

// Timer is a one-shot countdown with a replaceable expiry callback.
type Timer struct {
	mu       sync.Mutex
	active   bool
	target   time.Time
	onExpire func()
	quit     chan struct{}
	closed   bool
}

// New creates an idle timer.
func New() *Timer {
	return &Timer{}
}

// SetOnExpire registers the expiry callback. Re-registering takes effect
// without restarting the timer: expiry always invokes the latest callback.
func (t *Timer) SetOnExpire(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpire = fn
}

// Start activates the countdown for the given duration. If already active,
// only the target moves.
func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.target = time.Now().Add(d)
	if t.active {
		return
	}
	t.active = true
	t.quit = make(chan struct{})
	go t.run(t.quit)
}

// Cancel transitions to Idle. No-op if already Idle.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

func (t *Timer) cancelLocked() {
	if !t.active {
		return
	}
	t.active = false
	close(t.quit)
	t.quit = nil
}

// Active reports whether the countdown is running.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Remaining returns the whole seconds left, derived from the target. Zero
// when idle.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return 0
	}
	return t.remainingLocked()
}

func (t *Timer) remainingLocked() int {
	ms := time.Until(t.target).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int((ms + 999) / 1000)
}

// Close tears down the tick goroutine. The timer cannot be restarted.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.closed = true
}

func (t *Timer) run(quit <-chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			t.mu.Lock()
			if !t.active {
				t.mu.Unlock()
				return
			}
			if t.remainingLocked() > 0 {
				t.mu.Unlock()
				continue
			}
			// Expired: go Idle, then fire the latest callback once.
			t.active = false
			t.quit = nil
			fn := t.onExpire
			t.mu.Unlock()
			if fn != nil {
				fn()
			}
			return
		}
	}
}
