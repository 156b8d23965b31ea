// Package api is the client for the remote bookkeeping service's time
// registration endpoints. All calls are synchronous request/response and
// return either domain records or a classified *Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to one remote service instance. Record-level calls take
// the administration id explicitly; the client itself is tenant-agnostic.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for the service at baseURL authenticating
// with the given bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// PeriodFilter renders the inclusive date-range filter the service
// expects: period:YYYYMMDD..YYYYMMDD.
func PeriodFilter(start, end time.Time) string {
	return fmt.Sprintf("period:%s..%s", start.Format("20060102"), end.Format("20060102"))
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return transportError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return transportError(fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// ListAdministrations returns the administrations visible to the token.
func (c *Client) ListAdministrations(ctx context.Context) ([]Administration, error) {
	var out []Administration
	if err := c.do(ctx, http.MethodGet, "/administrations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsers returns the members of an administration.
func (c *Client) ListUsers(ctx context.Context, adminID string) ([]User, error) {
	var out []User
	path := fmt.Sprintf("/%s/users", adminID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTimeEntries returns the entries whose start falls in [start, end).
// The service filter is inclusive on both ends, so the last day inside
// the window goes into the filter, not end itself.
func (c *Client) ListTimeEntries(ctx context.Context, adminID string, start, end time.Time) ([]TimeEntry, error) {
	var out []TimeEntry
	path := fmt.Sprintf("/%s/time_entries", adminID)
	query := url.Values{"filter": {PeriodFilter(start, end.AddDate(0, 0, -1))}}
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTimeEntry fetches one entry by id.
func (c *Client) GetTimeEntry(ctx context.Context, adminID, id string) (*TimeEntry, error) {
	var out TimeEntry
	path := fmt.Sprintf("/%s/time_entries/%s", adminID, id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTimeEntry creates an entry and returns the stored record.
func (c *Client) CreateTimeEntry(ctx context.Context, adminID string, params TimeEntryParams) (*TimeEntry, error) {
	var out TimeEntry
	path := fmt.Sprintf("/%s/time_entries", adminID)
	body := map[string]TimeEntryParams{"time_entry": params}
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTimeEntry updates an existing entry and returns the stored record.
func (c *Client) UpdateTimeEntry(ctx context.Context, adminID, id string, params TimeEntryParams) (*TimeEntry, error) {
	var out TimeEntry
	path := fmt.Sprintf("/%s/time_entries/%s", adminID, id)
	body := map[string]TimeEntryParams{"time_entry": params}
	if err := c.do(ctx, http.MethodPatch, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTimeEntry removes an entry.
func (c *Client) DeleteTimeEntry(ctx context.Context, adminID, id string) error {
	path := fmt.Sprintf("/%s/time_entries/%s", adminID, id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ListContacts returns contacts, optionally narrowed by a free-text query.
func (c *Client) ListContacts(ctx context.Context, adminID, search string) ([]Contact, error) {
	var out []Contact
	path := fmt.Sprintf("/%s/contacts", adminID)
	var query url.Values
	if search != "" {
		query = url.Values{"query": {search}}
	}
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetContact fetches one contact by id.
func (c *Client) GetContact(ctx context.Context, adminID, id string) (*Contact, error) {
	var out Contact
	path := fmt.Sprintf("/%s/contacts/%s", adminID, id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects returns the administration's projects.
func (c *Client) ListProjects(ctx context.Context, adminID string) ([]Project, error) {
	var out []Project
	path := fmt.Sprintf("/%s/projects", adminID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject fetches one project by id.
func (c *Client) GetProject(ctx context.Context, adminID, id string) (*Project, error) {
	var out Project
	path := fmt.Sprintf("/%s/projects/%s", adminID, id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
