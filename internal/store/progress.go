package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mvidal/rewatch/internal/progress"
)

// Read returns the stored progress record for (userID, itemID), or
// (nil, nil) when absent.
func (s *Store) Read(ctx context.Context, userID, itemID string) (*progress.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT position_ms, duration_ms, title, channel, thumbnail, updated_at
		FROM progress
		WHERE user_id = ? AND item_id = ?
	`, userID, itemID)

	var positionMs, durationMs, updatedAt int64
	rec := progress.Record{UserID: userID, ItemID: itemID}
	err := row.Scan(&positionMs, &durationMs, &rec.Title, &rec.Channel, &rec.Thumbnail, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Position = time.Duration(positionMs) * time.Millisecond
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return &rec, nil
}

// Write upserts the progress record, keyed on (user_id, item_id).
func (s *Store) Write(ctx context.Context, rec progress.Record) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (user_id, item_id, position_ms, duration_ms, title, channel, thumbnail, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, item_id) DO UPDATE SET
			position_ms = excluded.position_ms,
			duration_ms = excluded.duration_ms,
			title = excluded.title,
			channel = excluded.channel,
			thumbnail = excluded.thumbnail,
			updated_at = excluded.updated_at
	`, rec.UserID, rec.ItemID,
		rec.Position.Milliseconds(), rec.Duration.Milliseconds(),
		rec.Title, rec.Channel, rec.Thumbnail, updatedAt.Unix())
	return err
}

// Recent returns the viewer's most recently updated progress records, newest
// first. History views read these directly; the display fields are already
// denormalized into each record.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]progress.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, position_ms, duration_ms, title, channel, thumbnail, updated_at
		FROM progress
		WHERE user_id = ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []progress.Record
	for rows.Next() {
		var positionMs, durationMs, updatedAt int64
		rec := progress.Record{UserID: userID}
		err := rows.Scan(&rec.ItemID, &positionMs, &durationMs, &rec.Title, &rec.Channel, &rec.Thumbnail, &updatedAt)
		if err != nil {
			return nil, err
		}
		rec.Position = time.Duration(positionMs) * time.Millisecond
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.UpdatedAt = time.Unix(updatedAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Verify Store implements the progress store contract at compile time.
var _ progress.Store = (*Store)(nil)
