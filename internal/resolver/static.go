package resolver

import (
	"context"
	"sync"
	"time"
)

// Static is a map-backed resolver for the harness and tests.
type Static struct {
	mu    sync.RWMutex
	items map[string]Metadata
	delay time.Duration
}

// NewStatic creates an empty static resolver.
func NewStatic() *Static {
	return &Static{items: make(map[string]Metadata)}
}

// Add registers an item.
func (s *Static) Add(meta Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[meta.ItemID] = meta
}

// SetDelay adds artificial resolve latency, for exercising stale-result
// handling.
func (s *Static) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

func (s *Static) Resolve(ctx context.Context, itemID string) (*Metadata, error) {
	s.mu.RLock()
	delay := s.delay
	meta, ok := s.items[itemID]
	s.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &meta, nil
}

// Verify Static implements Resolver at compile time.
var _ Resolver = (*Static)(nil)
