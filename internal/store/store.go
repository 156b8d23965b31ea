// Package store is a local sqlite snapshot of remote data. The remote
// service stays the source of truth; the cache exists so the session can
// paint the last known week immediately on startup and still show data
// when the service is unreachable. Every successful remote fetch
// overwrites the corresponding snapshot slice.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sql.DB
}

// New opens (or creates) the sqlite cache at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS entries (
		administration_id TEXT NOT NULL,
		id                TEXT NOT NULL,
		source            TEXT NOT NULL DEFAULT '',
		description       TEXT NOT NULL DEFAULT '',
		contact_id        TEXT NOT NULL DEFAULT '',
		contact_name      TEXT NOT NULL DEFAULT '',
		project_id        TEXT NOT NULL DEFAULT '',
		project_name      TEXT NOT NULL DEFAULT '',
		started_at        TEXT NOT NULL,
		ended_at          TEXT NOT NULL,
		tags              TEXT NOT NULL DEFAULT '',
		source_url        TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (administration_id, source, id)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_started ON entries(administration_id, started_at);

	CREATE TABLE IF NOT EXISTS contacts (
		administration_id TEXT NOT NULL,
		id                TEXT NOT NULL,
		name              TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (administration_id, id)
	);

	CREATE TABLE IF NOT EXISTS projects (
		administration_id TEXT NOT NULL,
		id                TEXT NOT NULL,
		name              TEXT NOT NULL DEFAULT '',
		state             TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (administration_id, id)
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns the cache location under the user config dir.
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tempo", "cache.db"), nil
}
