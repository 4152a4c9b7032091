// Package store is the sqlite-backed implementation of the two durable
// collaborators: the progress store and the playlist store.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "rewatch"
	dbFileName = "rewatch.db"
)

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens the database at its xdg data location, creating it and the
// schema as needed.
func Open() (*Store, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenAt(dbPath)
}

// OpenAt opens the database at an explicit path.
func OpenAt(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite is single-writer; one pooled connection also keeps pragmas and
	// in-memory databases attached to the handle.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
