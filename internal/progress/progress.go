// Package progress checkpoints playback position to the durable progress
// store. It is write-mostly: the single read happens at load time, after
// which only the periodic writes matter.
package progress

import (
	"context"
	"time"
)

// Record is one durable checkpoint for a (viewer, item) pair. Title,
// Channel and Thumbnail are denormalized into the record so history views
// need no secondary lookup.
type Record struct {
	UserID    string
	ItemID    string
	Position  time.Duration
	Duration  time.Duration
	Title     string
	Channel   string
	Thumbnail string
	UpdatedAt time.Time
}

// Store persists progress records, upserting on (UserID, ItemID): created on
// first write, overwritten thereafter, never duplicated.
type Store interface {
	// Read returns the stored record, or (nil, nil) when absent.
	Read(ctx context.Context, userID, itemID string) (*Record, error)
	Write(ctx context.Context, rec Record) error
}

// Sampler supplies the current transport state to checkpoint.
type Sampler interface {
	Sample() (position, duration time.Duration, playing bool)
}

// ItemMeta tags checkpoints with the active item and its display fields.
type ItemMeta struct {
	ItemID    string
	Title     string
	Channel   string
	Thumbnail string
}
