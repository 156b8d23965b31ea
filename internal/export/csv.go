package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

// ToCSV writes the entries to a CSV file at path.
func ToCSV(entries []store.Entry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"ID", "Description", "Contact", "Project", "Start", "End", "Duration", "Source", "Tags"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, e := range entries {
		source := e.Source
		if source == "" {
			source = "remote"
		}
		row := []string{
			e.ID,
			e.Description,
			e.ContactName,
			e.ProjectName,
			e.StartedAt.Local().Format(time.RFC3339),
			e.EndedAt.Local().Format(time.RFC3339),
			formatDuration(e.Duration()),
			source,
			strings.Join(e.Tags, ","),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatDuration(d time.Duration) string {
	secs := int64(d.Seconds())
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
