// Package session is the composition root of the playback engine: it wires
// a selected item into the surface, advances through the playlist on ended,
// pauses on sleep-timer expiry, and reloads the surface whenever the active
// item changes.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mvidal/rewatch/internal/log"
	"github.com/mvidal/rewatch/internal/media"
	"github.com/mvidal/rewatch/internal/navigator"
	"github.com/mvidal/rewatch/internal/progress"
	"github.com/mvidal/rewatch/internal/resolver"
	"github.com/mvidal/rewatch/internal/sleeptimer"
	"github.com/mvidal/rewatch/internal/surface"
)

// Controller drives one playback session. It owns the sleep timer; the
// surface, navigator and synchronizer are constructed by the caller and
// handed in. Lifecycle is explicit: Start begins the event loop, Close
// tears everything down.
type Controller struct {
	mu sync.Mutex

	surface  *surface.Surface
	nav      *navigator.Navigator
	sync     *progress.Synchronizer
	resolver resolver.Resolver
	timer    *sleeptimer.Timer

	state  State
	itemID string
	meta   *resolver.Metadata

	// loadToken tags every in-flight load; results carrying a stale token
	// are discarded, so a slow resolve for item A can never apply after the
	// viewer has navigated to item B.
	loadToken uint64

	// sleepStopped records a sleep-timer expiry; exactly one Ended consumes
	// it to suppress auto-advance, then it resets.
	sleepStopped bool

	// traversalID and restart pin the "always start from the beginning"
	// choice to one whole playlist traversal.
	traversalID string
	restart     bool

	sub     *surface.Subscription
	subs    []*Subscription
	subsMu  sync.RWMutex
	quit    chan struct{}
	started bool
	closed  bool
	logger  zerolog.Logger
}

// New creates a session controller.
func New(surf *surface.Surface, nav *navigator.Navigator, syncer *progress.Synchronizer, res resolver.Resolver) *Controller {
	c := &Controller{
		surface:  surf,
		nav:      nav,
		sync:     syncer,
		resolver: res,
		timer:    sleeptimer.New(),
		state:    StateIdle,
		logger:   log.WithComponent("session"),
	}
	c.timer.SetOnExpire(c.onSleepExpired)
	return c
}

// Start launches the event loop and the progress checkpointing.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.quit = make(chan struct{})
	c.sub = c.surface.Subscribe()
	c.mu.Unlock()

	c.sync.Start()
	go c.run()
}

func (c *Controller) run() {
	for {
		select {
		case <-c.quit:
			return
		case <-c.sub.Ended:
			c.handleEnded()
		case intent := <-c.nav.Intents():
			c.Open(context.Background(), intent.ItemID)
		}
	}
}

// Open begins loading the given item. The previous item's progress is
// flushed, in-flight loads for it are invalidated, and the session stays in
// Loading until both metadata and the stored start position have landed.
func (c *Controller) Open(ctx context.Context, itemID string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.loadToken++
	token := c.loadToken
	prev := c.itemID
	c.itemID = itemID
	c.meta = nil
	restart := c.restart
	c.setStateLocked(StateLoading)

	// An ended notification still queued for the item being left must not
	// count against the new one.
	if c.sub != nil {
	drain:
		for {
			select {
			case <-c.sub.Ended:
			default:
				break drain
			}
		}
	}
	c.mu.Unlock()

	// Checkpoint the item being left before the surface moves on.
	if prev != "" {
		c.sync.Flush(ctx)
	}

	go c.load(ctx, token, itemID, restart)
}

func (c *Controller) load(ctx context.Context, token uint64, itemID string, restart bool) {
	meta, err := c.resolver.Resolve(ctx, itemID)

	var startPos time.Duration
	if err == nil && !restart {
		pos, readErr := c.sync.InitialPosition(ctx, itemID)
		if readErr != nil {
			c.logger.Warn().Err(readErr).Str("item", itemID).Msg("progress read failed, starting from zero")
		} else {
			startPos = pos
		}
	}

	c.apply(token, itemID, meta, err, startPos)
}

// apply lands a finished load. Stale tokens are discarded silently per the
// ordering rule: a fetch for item A resolving after navigation to item B
// must not touch session state.
func (c *Controller) apply(token uint64, itemID string, meta *resolver.Metadata, err error, startPos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || token != c.loadToken {
		c.logger.Debug().Str("item", itemID).Msg("discarding stale load result")
		return
	}

	if err != nil || len(meta.FileURLs) == 0 {
		if err != nil {
			c.logger.Warn().Err(err).Str("item", itemID).Msg("item unavailable")
		}
		c.setStateLocked(StateUnavailable)
		return
	}

	source := media.Source{
		ID:            itemID,
		FileURLs:      meta.FileURLs,
		PosterURL:     meta.PosterURL,
		StartPosition: startPos,
	}
	if loadErr := c.surface.Load(source); loadErr != nil {
		c.logger.Warn().Err(loadErr).Str("item", itemID).Msg("surface load failed")
		c.setStateLocked(StateUnavailable)
		return
	}

	c.meta = meta
	c.sync.SetItem(progress.ItemMeta{
		ItemID:    itemID,
		Title:     meta.Title,
		Channel:   meta.Channel,
		Thumbnail: meta.Thumbnail,
	})
	c.nav.Locate(itemID)
	index := c.nav.CurrentIndex()

	c.setStateLocked(StateReady)
	c.eachSub(func(sub *Subscription) {
		sub.sendItem(ItemChange{ItemID: itemID, Title: meta.Title, Index: index})
	})

	// Auto-start; a policy-blocked autoplay leaves the session Ready.
	if playErr := c.surface.Play(); playErr != nil {
		c.logger.Warn().Err(playErr).Str("item", itemID).Msg("playback start failed")
		return
	}
	if c.surface.Transport().Playing {
		c.setStateLocked(StatePlaying)
	}
}

// handleEnded reacts to the active item finishing. A consumed sleep-timer
// expiry takes priority over auto-advance exactly once.
func (c *Controller) handleEnded() {
	c.mu.Lock()
	if c.closed || !c.state.ControlsEnabled() {
		c.mu.Unlock()
		return
	}

	if c.sleepStopped {
		c.sleepStopped = false
		c.setStateLocked(StatePaused)
		c.mu.Unlock()
		c.sync.Flush(context.Background())
		return
	}

	c.setStateLocked(StateEnded)
	hasPlaylist := c.nav.HasPlaylist()
	c.mu.Unlock()

	c.sync.Flush(context.Background())
	if hasPlaylist {
		c.nav.Next()
	}
}

// onSleepExpired pauses immediately, regardless of current state, and arms
// the stop flag for the next Ended.
func (c *Controller) onSleepExpired() {
	c.surface.Pause()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.sleepStopped = true
	if c.state == StatePlaying {
		c.setStateLocked(StatePaused)
	}
	c.logger.Info().Msg("sleep timer expired, playback paused")
}

// StartTraversal loads the collection's playlist and pins the restart
// choice for the whole traversal: once the viewer chooses "always start
// from the beginning", it applies to every item until a new traversal
// begins. A playlist load failure leaves single-item playback alive,
// without navigation.
func (c *Controller) StartTraversal(ctx context.Context, collectionID string, restart bool) error {
	c.mu.Lock()
	c.traversalID = uuid.NewString()
	c.restart = restart
	current := c.itemID
	c.mu.Unlock()

	return c.nav.LoadPlaylist(ctx, collectionID, current)
}

// TraversalID identifies the current playlist traversal ("" when none).
func (c *Controller) TraversalID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.traversalID
}

// setStateLocked transitions the session state and notifies observers.
func (c *Controller) setStateLocked(next State) {
	if c.state == next {
		return
	}
	prev := c.state
	c.state = next
	c.eachSub(func(sub *Subscription) {
		sub.sendState(StateChange{Previous: prev, Current: next})
	})
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ItemID returns the active item's identifier.
func (c *Controller) ItemID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemID
}

// Metadata returns the active item's resolved metadata, or nil mid-load.
func (c *Controller) Metadata() *resolver.Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta
}

// Subscribe creates a new observer subscription.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	c.subs = append(c.subs, sub)
	return sub
}

func (c *Controller) eachSub(fn func(*Subscription)) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		fn(sub)
	}
}

// Close flushes progress and tears down the timer, the synchronizer, the
// surface and the event loop.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.loadToken++
	started := c.started
	hadItem := c.itemID != ""
	c.mu.Unlock()

	if hadItem {
		c.sync.Flush(context.Background())
	}
	if started {
		close(c.quit)
	}
	c.timer.Close()
	c.sync.Close()

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()

	return c.surface.Close()
}
