package store

import (
	"strings"
	"time"
)

// Entry is the host's generic time entry for display: remote records and
// plugin records normalized into one shape. Remote entries have an empty
// Source and are editable; plugin entries carry their source label and
// are read-only.
type Entry struct {
	ID          string
	Description string
	ContactID   string
	ContactName string
	ProjectID   string
	ProjectName string
	StartedAt   time.Time
	EndedAt     time.Time
	Tags        []string
	Source      string
	SourceURL   string
}

// FromPlugin reports whether the entry came from a plugin.
func (e Entry) FromPlugin() bool {
	return e.Source != ""
}

// Duration returns the tracked span.
func (e Entry) Duration() time.Duration {
	if e.EndedAt.Before(e.StartedAt) {
		return 0
	}
	return e.EndedAt.Sub(e.StartedAt)
}

// MatchesFilter reports whether the entry matches a case-insensitive
// free-text filter over description, contact, project and source.
func (e Entry) MatchesFilter(filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	for _, field := range []string{e.Description, e.ContactName, e.ProjectName, e.Source} {
		if strings.Contains(strings.ToLower(field), f) {
			return true
		}
	}
	return false
}

// Contact is a cached contact snapshot.
type Contact struct {
	ID   string
	Name string
}

// Project is a cached project snapshot.
type Project struct {
	ID    string
	Name  string
	State string
}
