package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingResolver struct {
	inner Resolver
	calls atomic.Int32
}

func (c *countingResolver) Resolve(ctx context.Context, itemID string) (*Metadata, error) {
	c.calls.Add(1)
	return c.inner.Resolve(ctx, itemID)
}

func TestStatic_Resolve(t *testing.T) {
	s := NewStatic()
	s.Add(Metadata{
		ItemID:   "item-1",
		Title:    "Opening Keynote",
		FileURLs: []string{"https://cdn.example.org/item-1/play.mp4"},
	})

	meta, err := s.Resolve(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if meta.Title != "Opening Keynote" {
		t.Errorf("Title = %q, want Opening Keynote", meta.Title)
	}
}

func TestStatic_NotFound(t *testing.T) {
	s := NewStatic()

	_, err := s.Resolve(context.Background(), "never-seen")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve error = %v, want ErrNotFound", err)
	}
}

func TestStatic_DelayHonorsContext(t *testing.T) {
	s := NewStatic()
	s.Add(Metadata{ItemID: "item-1"})
	s.SetDelay(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Resolve(ctx, "item-1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve error = %v, want context.Canceled", err)
	}
}

func TestCached_Memoizes(t *testing.T) {
	inner := NewStatic()
	inner.Add(Metadata{ItemID: "item-1", Title: "Opening Keynote"})
	counting := &countingResolver{inner: inner}
	c := NewCached(counting)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		meta, err := c.Resolve(ctx, "item-1")
		if err != nil {
			t.Fatalf("Resolve #%d failed: %v", i, err)
		}
		if meta.Title != "Opening Keynote" {
			t.Errorf("Resolve #%d Title = %q", i, meta.Title)
		}
	}

	if got := counting.calls.Load(); got != 1 {
		t.Errorf("upstream resolved %d times, want 1", got)
	}
}

func TestCached_ErrorsNotCached(t *testing.T) {
	inner := NewStatic()
	counting := &countingResolver{inner: inner}
	c := NewCached(counting)
	ctx := context.Background()

	if _, err := c.Resolve(ctx, "item-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve error = %v, want ErrNotFound", err)
	}

	// The item appears upstream; the earlier failure must not stick.
	inner.Add(Metadata{ItemID: "item-1", Title: "Late arrival"})
	meta, err := c.Resolve(ctx, "item-1")
	if err != nil {
		t.Fatalf("Resolve after add failed: %v", err)
	}
	if meta.Title != "Late arrival" {
		t.Errorf("Title = %q, want Late arrival", meta.Title)
	}
	if got := counting.calls.Load(); got != 2 {
		t.Errorf("upstream resolved %d times, want 2", got)
	}
}

func TestCached_CollapsesConcurrentResolves(t *testing.T) {
	inner := NewStatic()
	inner.Add(Metadata{ItemID: "item-1"})
	inner.SetDelay(50 * time.Millisecond)
	counting := &countingResolver{inner: inner}
	c := NewCached(counting)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Resolve(context.Background(), "item-1"); err != nil {
				t.Errorf("Resolve failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := counting.calls.Load(); got != 1 {
		t.Errorf("upstream resolved %d times for concurrent callers, want 1", got)
	}
}
