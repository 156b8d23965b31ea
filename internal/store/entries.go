package store

import (
	"fmt"
	"strings"
	"time"
)

// ReplaceRange swaps the cached entries whose start falls in [start, end)
// for the given administration with a fresh snapshot.
func (s *Store) ReplaceRange(adminID string, start, end time.Time, entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`DELETE FROM entries WHERE administration_id = ? AND started_at >= ? AND started_at < ?`,
		adminID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("clear range: %w", err)
	}

	for _, e := range entries {
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO entries
			 (administration_id, id, source, description, contact_id, contact_name,
			  project_id, project_name, started_at, ended_at, tags, source_url)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			adminID, e.ID, e.Source, e.Description, e.ContactID, e.ContactName,
			e.ProjectID, e.ProjectName,
			e.StartedAt.UTC().Format(time.RFC3339), e.EndedAt.UTC().Format(time.RFC3339),
			strings.Join(e.Tags, ","), e.SourceURL,
		)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// ListRange returns the cached entries whose start falls in [start, end),
// ordered by start time.
func (s *Store) ListRange(adminID string, start, end time.Time) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, source, description, contact_id, contact_name,
		        project_id, project_name, started_at, ended_at, tags, source_url
		 FROM entries
		 WHERE administration_id = ? AND started_at >= ? AND started_at < ?
		 ORDER BY started_at, id`,
		adminID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt, endedAt, tags string
		err := rows.Scan(&e.ID, &e.Source, &e.Description, &e.ContactID, &e.ContactName,
			&e.ProjectID, &e.ProjectName, &startedAt, &endedAt, &tags, &e.SourceURL)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		e.EndedAt, _ = time.Parse(time.RFC3339, endedAt)
		if tags != "" {
			e.Tags = strings.Split(tags, ",")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
