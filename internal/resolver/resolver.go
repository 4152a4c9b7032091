// Package resolver defines the metadata-resolver collaborator boundary:
// given an item id, it yields the item's title, duration hint, playable
// file candidates and poster.
package resolver

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the item does not exist at the origin.
var ErrNotFound = errors.New("item not found")

// Metadata is the resolved description of one playable item.
type Metadata struct {
	ItemID       string
	Title        string
	Channel      string
	Thumbnail    string
	DurationHint time.Duration
	FileURLs     []string // candidate playable files, best first
	PosterURL    string
}

// Resolver resolves item metadata.
type Resolver interface {
	Resolve(ctx context.Context, itemID string) (*Metadata, error)
}
