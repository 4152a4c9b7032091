package progress

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvidal/rewatch/internal/log"
)

// DefaultInterval is the checkpoint cadence while playing.
const DefaultInterval = 10 * time.Second

// Synchronizer pushes the sampler's position to the store on a fixed
// interval while playing, and on demand via Flush. An unauthenticated
// viewer (empty user id) turns every read and write into a no-op; loading
// still reports ready so playback is never blocked on a read that will
// never resolve.
type Synchronizer struct {
	store    Store
	sampler  Sampler
	userID   string
	interval time.Duration

	mu      sync.Mutex
	item    ItemMeta
	hasItem bool
	quit    chan struct{}
	started bool

	logger zerolog.Logger
}

// NewSynchronizer creates a synchronizer with the default interval.
func NewSynchronizer(store Store, sampler Sampler, userID string) *Synchronizer {
	return &Synchronizer{
		store:    store,
		sampler:  sampler,
		userID:   userID,
		interval: DefaultInterval,
		logger:   log.WithComponent("progress"),
	}
}

// SetInterval overrides the checkpoint cadence. Must be called before Start.
func (s *Synchronizer) SetInterval(d time.Duration) {
	s.interval = d
}

// Authenticated reports whether writes will actually persist.
func (s *Synchronizer) Authenticated() bool {
	return s.userID != ""
}

// SetItem tags subsequent checkpoints with the active item's metadata.
func (s *Synchronizer) SetItem(meta ItemMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.item = meta
	s.hasItem = meta.ItemID != ""
}

// InitialPosition performs the one read consumed at load time. Absent
// records and unauthenticated viewers both yield zero without error.
func (s *Synchronizer) InitialPosition(ctx context.Context, itemID string) (time.Duration, error) {
	if s.userID == "" {
		return 0, nil
	}
	rec, err := s.store.Read(ctx, s.userID, itemID)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, nil
	}
	return rec.Position, nil
}

// Start launches the periodic checkpoint loop.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.quit = make(chan struct{})
	go s.run(s.quit)
}

func (s *Synchronizer) run(quit <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			pos, dur, playing := s.sampler.Sample()
			if !playing {
				continue
			}
			s.write(context.Background(), pos, dur)
		}
	}
}

// Flush pushes the current position immediately, bypassing the interval.
// Safe to call even if no interval has fired yet. Used when navigating away.
func (s *Synchronizer) Flush(ctx context.Context) {
	pos, dur, _ := s.sampler.Sample()
	s.write(ctx, pos, dur)
}

// write upserts one checkpoint. Failures are logged and dropped: the next
// periodic write self-corrects within the interval.
func (s *Synchronizer) write(ctx context.Context, pos, dur time.Duration) {
	if s.userID == "" {
		return
	}

	s.mu.Lock()
	item := s.item
	hasItem := s.hasItem
	s.mu.Unlock()
	if !hasItem {
		return
	}

	rec := Record{
		UserID:    s.userID,
		ItemID:    item.ItemID,
		Position:  pos,
		Duration:  dur,
		Title:     item.Title,
		Channel:   item.Channel,
		Thumbnail: item.Thumbnail,
		UpdatedAt: time.Now(),
	}
	if err := s.store.Write(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("item", item.ItemID).Msg("progress write failed")
	}
}

// Close stops the checkpoint loop.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	close(s.quit)
	s.quit = nil
}
