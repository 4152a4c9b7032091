package resolver

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cached memoizes successful resolves and collapses concurrent resolves for
// the same item into one upstream call. Archived-item metadata is immutable,
// so entries never expire.
type Cached struct {
	inner Resolver
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]*Metadata
}

// NewCached wraps a resolver with memoization.
func NewCached(inner Resolver) *Cached {
	return &Cached{
		inner: inner,
		cache: make(map[string]*Metadata),
	}
}

func (c *Cached) Resolve(ctx context.Context, itemID string) (*Metadata, error) {
	c.mu.RLock()
	meta, ok := c.cache[itemID]
	c.mu.RUnlock()
	if ok {
		return meta, nil
	}

	v, err, _ := c.group.Do(itemID, func() (any, error) {
		meta, err := c.inner.Resolve(ctx, itemID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[itemID] = meta
		c.mu.Unlock()
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Metadata), nil
}

// Verify Cached implements Resolver at compile time.
var _ Resolver = (*Cached)(nil)
