// Package logbuf keeps a capped in-memory session log. Nothing in the
// session is allowed to die over a loggable condition, so everything from
// transport failures to defensive index clamps ends up here and is shown
// in the log panel.
package logbuf

import (
	"fmt"
	"time"
)

// Level is the severity of a log entry.
type Level int

const (
	Debug Level = iota
	Notice
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Notice:
		return "NOTICE"
	case Success:
		return "SUCCESS"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	}
	return "?"
}

// Entry is one recorded line.
type Entry struct {
	Time  time.Time
	Level Level
	Text  string
}

// DefaultCap is the number of entries kept before the oldest are dropped.
const DefaultCap = 200

// Buffer is a rolling log. Debug entries are recorded only when the
// debug flag is set.
type Buffer struct {
	max     int
	debug   bool
	entries []Entry
}

// New returns a buffer holding at most max entries; max <= 0 means
// DefaultCap. When debug is false, Debug-level appends are dropped.
func New(max int, debug bool) *Buffer {
	if max <= 0 {
		max = DefaultCap
	}
	return &Buffer{max: max, debug: debug}
}

// Append records a formatted entry, evicting the oldest beyond the cap.
func (b *Buffer) Append(level Level, format string, args ...any) {
	if level == Debug && !b.debug {
		return
	}
	b.entries = append(b.entries, Entry{
		Time:  time.Now(),
		Level: level,
		Text:  fmt.Sprintf(format, args...),
	})
	if len(b.entries) > b.max {
		b.entries = b.entries[len(b.entries)-b.max:]
	}
}

// Entries returns the recorded entries, oldest first.
func (b *Buffer) Entries() []Entry {
	return b.entries
}

// Tail returns up to n of the most recent entries, oldest first.
func (b *Buffer) Tail(n int) []Entry {
	if n <= 0 || len(b.entries) == 0 {
		return nil
	}
	if n > len(b.entries) {
		n = len(b.entries)
	}
	return b.entries[len(b.entries)-n:]
}

// Len returns the number of stored entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}
