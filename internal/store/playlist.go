package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/mvidal/rewatch/internal/db"
	"github.com/mvidal/rewatch/internal/navigator"
)

// ReadItems returns the collection's items ordered by their persisted
// position. Playlist-editing features rewrite the position column; this
// engine only reads it.
func (s *Store) ReadItems(ctx context.Context, collectionID string) ([]navigator.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, title, channel, thumbnail, position
		FROM playlist_items
		WHERE playlist_id = ?
		ORDER BY position
	`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []navigator.Item
	for rows.Next() {
		var it navigator.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Channel, &it.Thumbnail, &it.Position); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SeedPlaylist creates (or replaces) a named playlist with the given items,
// assigning positions in slice order. Used by the harness and tests.
func (s *Store) SeedPlaylist(ctx context.Context, collectionID, name string, items []navigator.Item) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, collectionID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO playlists (id, name, created_at) VALUES (?, ?, ?)
		`, collectionID, name, time.Now().Unix())
		if err != nil {
			return err
		}

		for i, it := range items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO playlist_items (playlist_id, item_id, title, channel, thumbnail, position)
				VALUES (?, ?, ?, ?, ?, ?)
			`, collectionID, it.ID, it.Title, it.Channel, it.Thumbnail, i)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Verify Store implements the playlist store contract at compile time.
var _ navigator.Store = (*Store)(nil)
