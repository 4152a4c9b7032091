package store

import "database/sql"

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS progress (
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			position_ms INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			channel TEXT NOT NULL DEFAULT '',
			thumbnail TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, item_id)
		);

		CREATE INDEX IF NOT EXISTS idx_progress_user_updated
			ON progress(user_id, updated_at DESC);

		CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			item_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			channel TEXT NOT NULL DEFAULT '',
			thumbnail TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL,
			UNIQUE(playlist_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_items_playlist
			ON playlist_items(playlist_id, position);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
