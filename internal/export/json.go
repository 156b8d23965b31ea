package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Contact     string   `json:"contact,omitempty"`
	Project     string   `json:"project,omitempty"`
	StartedAt   string   `json:"started_at"`
	EndedAt     string   `json:"ended_at"`
	DurationSec int64    `json:"duration_seconds"`
	Duration    string   `json:"duration"`
	Source      string   `json:"source"`
	SourceURL   string   `json:"source_url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ToJSON writes the entries to a JSON file at path.
func ToJSON(entries []store.Entry, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		source := e.Source
		if source == "" {
			source = "remote"
		}
		out.Entries = append(out.Entries, jsonEntry{
			ID:          e.ID,
			Description: e.Description,
			Contact:     e.ContactName,
			Project:     e.ProjectName,
			StartedAt:   e.StartedAt.Local().Format(time.RFC3339),
			EndedAt:     e.EndedAt.Local().Format(time.RFC3339),
			DurationSec: int64(e.Duration().Seconds()),
			Duration:    formatDuration(e.Duration()),
			Source:      source,
			SourceURL:   e.SourceURL,
			Tags:        e.Tags,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
