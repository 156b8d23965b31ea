package plugin

// TimeEntry is a source-agnostic time entry as produced by a plugin.
// Instants are RFC3339 strings in whatever zone the plugin reported;
// the host converts on ingestion.
type TimeEntry struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	ProjectID    string   `json:"project_id,omitempty"`
	ProjectName  string   `json:"project_name,omitempty"`
	CustomerID   string   `json:"customer_id,omitempty"`
	CustomerName string   `json:"customer_name,omitempty"`
	StartedAt    string   `json:"started_at"`
	EndedAt      string   `json:"ended_at"`
	Tags         []string `json:"tags,omitempty"`
	Source       string   `json:"source"`
	SourceURL    string   `json:"source_url,omitempty"`
}
