package api

import (
	"strings"
	"time"
)

// Administration is a tenant/workspace on the remote service. Every
// record-level call is scoped to one administration.
type Administration struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TimeZone string `json:"time_zone"`
	Currency string `json:"currency"`
}

// User is a member of an administration.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Contact is a customer record.
type Contact struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
}

// DisplayName returns the company name, falling back to the person name.
func (c Contact) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Project is a billable project record.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// TimeEntry is a time registration record as stored remotely.
type TimeEntry struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	Paused      int       `json:"paused_duration"`
	Billable    bool      `json:"billable"`
	UserID      string    `json:"user_id"`
	Contact     *Contact  `json:"contact,omitempty"`
	Project     *Project  `json:"project,omitempty"`
}

// TimeEntryParams is the create/update payload. Instants are UTC RFC3339
// strings; empty optional ids are omitted.
type TimeEntryParams struct {
	Description string `json:"description"`
	ContactID   string `json:"contact_id,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	StartedAt   string `json:"started_at"`
	EndedAt     string `json:"ended_at"`
	Billable    bool   `json:"billable"`
}
