// Package navigator holds the ordered item list for a collection and picks
// the next item under sequential or shuffle policy. It emits navigation
// intents; it never drives the playback surface itself.
package navigator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/mvidal/rewatch/internal/log"
)

// Item is one playlist entry, with the display fields history views need.
type Item struct {
	ID        string
	Title     string
	Channel   string
	Thumbnail string
	Position  int
}

// Store reads the ordered items of a collection. Items are ordered by their
// persisted position.
type Store interface {
	ReadItems(ctx context.Context, collectionID string) ([]Item, error)
}

// Intent asks the session controller to navigate to an item.
type Intent struct {
	ItemID string
	Index  int
}

const intentBufferSize = 16

// Navigator tracks the current position within a collection.
//
// The played set exists only to support shuffle-without-immediate-repeat and
// is owned exclusively by the navigator. currentIndex is -1 when the active
// item is not in the list (e.g. mid-load).
type Navigator struct {
	mu sync.Mutex

	store        Store
	collectionID string
	items        []Item
	currentIndex int
	shuffle      bool
	played       map[int]struct{}
	hasPlaylist  bool

	rng     *rand.Rand
	intents chan Intent
	logger  zerolog.Logger
}

// New creates a navigator over the given playlist store.
func New(store Store) *Navigator {
	return &Navigator{
		store:        store,
		currentIndex: -1,
		played:       make(map[int]struct{}),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		intents:      make(chan Intent, intentBufferSize),
		logger:       log.WithComponent("navigator"),
	}
}

// LoadPlaylist fetches the collection's items, resets the played set, and
// locates currentItemID in the fetched list (-1 if absent). A load failure
// leaves the navigator without a playlist; single-item playback continues
// without navigation.
func (n *Navigator) LoadPlaylist(ctx context.Context, collectionID, currentItemID string) error {
	items, err := n.store.ReadItems(ctx, collectionID)

	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		n.logger.Warn().Err(err).Str("collection", collectionID).Msg("playlist load failed")
		n.collectionID = ""
		n.items = nil
		n.currentIndex = -1
		n.played = make(map[int]struct{})
		n.hasPlaylist = false
		return err
	}

	n.collectionID = collectionID
	n.items = items
	n.played = make(map[int]struct{})
	n.currentIndex = n.indexOfLocked(currentItemID)
	n.hasPlaylist = true
	return nil
}

func (n *Navigator) indexOfLocked(itemID string) int {
	_, idx, ok := lo.FindIndexOf(n.items, func(it Item) bool { return it.ID == itemID })
	if !ok {
		return -1
	}
	return idx
}

// Locate moves currentIndex to the given item without emitting an intent.
// Used when the viewer opens an item directly.
func (n *Navigator) Locate(itemID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.currentIndex = n.indexOfLocked(itemID)
}

// Next selects the next item under the active policy and emits an intent.
// Returns the selected item, or nil when navigation is not possible.
func (n *Navigator) Next() *Item {
	n.mu.Lock()
	if !n.hasPlaylist || len(n.items) == 0 {
		n.mu.Unlock()
		return nil
	}

	var next int
	if n.shuffle {
		next = n.nextShuffleLocked()
		if next < 0 {
			n.mu.Unlock()
			return nil
		}
	} else {
		next = (n.currentIndex + 1) % len(n.items)
	}

	n.currentIndex = next
	item := n.items[next]
	n.mu.Unlock()

	n.emit(Intent{ItemID: item.ID, Index: next})
	return &item
}

// nextShuffleLocked picks uniformly among indices not yet played. On
// exhaustion the played set resets to the just-played index only, so the
// immediate re-roll cannot repeat it. This is a deliberate anti-repeat
// heuristic, not a uniform-shuffle guarantee.
func (n *Navigator) nextShuffleLocked() int {
	if len(n.items) == 1 {
		return -1
	}
	if n.currentIndex >= 0 {
		n.played[n.currentIndex] = struct{}{}
	}

	candidates := n.unplayedLocked()
	if len(candidates) == 0 {
		n.played = make(map[int]struct{})
		if n.currentIndex >= 0 {
			n.played[n.currentIndex] = struct{}{}
		}
		candidates = n.unplayedLocked()
	}
	if len(candidates) == 0 {
		return -1
	}
	return candidates[n.rng.Intn(len(candidates))]
}

func (n *Navigator) unplayedLocked() []int {
	return lo.Filter(lo.Range(len(n.items)), func(i int, _ int) bool {
		_, played := n.played[i]
		return !played
	})
}

// Previous steps back one item in sequential traversal. Shuffle has no
// meaningful "previous"; no-op there and at the start of the list.
func (n *Navigator) Previous() *Item {
	n.mu.Lock()
	if !n.hasPlaylist || n.shuffle || n.currentIndex <= 0 {
		n.mu.Unlock()
		return nil
	}
	n.currentIndex--
	item := n.items[n.currentIndex]
	idx := n.currentIndex
	n.mu.Unlock()

	n.emit(Intent{ItemID: item.ID, Index: idx})
	return &item
}

// ToggleShuffle flips shuffle mode. The played set survives the toggle:
// switching mode mid-playlist must not erase which items the shuffle pass
// already visited.
func (n *Navigator) ToggleShuffle() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shuffle = !n.shuffle
	return n.shuffle
}

// SetShuffle sets shuffle mode explicitly.
func (n *Navigator) SetShuffle(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shuffle = enabled
}

// Shuffle reports whether shuffle mode is on.
func (n *Navigator) Shuffle() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.shuffle
}

// HasPlaylist reports whether a playlist is loaded.
func (n *Navigator) HasPlaylist() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.hasPlaylist
}

// CurrentIndex returns the index of the active item (-1 if not in the list).
func (n *Navigator) CurrentIndex() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentIndex
}

// Items returns a copy of the loaded items.
func (n *Navigator) Items() []Item {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Item(nil), n.items...)
}

// Item returns the item at the given index, or nil if out of range.
func (n *Navigator) Item(index int) *Item {
	n.mu.Lock()
	defer n.mu.Unlock()
	if index < 0 || index >= len(n.items) {
		return nil
	}
	item := n.items[index]
	return &item
}

// Intents returns the navigation intent stream.
func (n *Navigator) Intents() <-chan Intent {
	return n.intents
}

func (n *Navigator) emit(intent Intent) {
	select {
	case n.intents <- intent:
	default:
	}
}
