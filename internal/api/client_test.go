package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token")
}

func TestPeriodFilter(t *testing.T) {
	start := time.Date(2023, 8, 7, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 8, 13, 0, 0, 0, 0, time.UTC)
	got := PeriodFilter(start, end)
	if got != "period:20230807..20230813" {
		t.Fatalf("unexpected filter %q", got)
	}
}

func TestListTimeEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin1/time_entries" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("filter"); got != "period:20230807..20230813" {
			t.Errorf("unexpected filter %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode([]TimeEntry{{ID: "e1", Description: "standup"}})
	})

	// The half-open week [Mon, next Mon) must render an inclusive filter
	// ending on Sunday, so next Monday's entries stay out.
	start := time.Date(2023, 8, 7, 0, 0, 0, 0, time.UTC)
	entries, err := c.ListTimeEntries(context.Background(), "admin1", start, start.AddDate(0, 0, 7))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "e1" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestCreateTimeEntryWrapsPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var body map[string]TimeEntryParams
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		params, ok := body["time_entry"]
		if !ok || params.Description != "review" {
			t.Errorf("unexpected body %+v", body)
		}
		json.NewEncoder(w).Encode(TimeEntry{ID: "new", Description: params.Description})
	})

	entry, err := c.CreateTimeEntry(context.Background(), "admin1", TimeEntryParams{Description: "review"})
	if err != nil {
		t.Fatal(err)
	}
	if entry.ID != "new" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestValidationErrorFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"started_at":["can't be blank"],"description":["too long"]}}`))
	})

	_, err := c.CreateTimeEntry(context.Background(), "admin1", TimeEntryParams{})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %T", err)
	}
	if apiErr.Kind != KindValidation {
		t.Fatalf("expected validation kind, got %s", apiErr.Kind)
	}
	if len(apiErr.Fields["started_at"]) != 1 {
		t.Fatalf("expected field messages, got %+v", apiErr.Fields)
	}
	summary := apiErr.FieldSummary()
	if summary != "description: too long; started_at: can't be blank" {
		t.Fatalf("unexpected summary %q", summary)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{401, KindAuth},
		{403, KindAuth},
		{404, KindNotFound},
		{422, KindValidation},
		{500, KindServer},
		{503, KindServer},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := c.GetTimeEntry(context.Background(), "a", "x")
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected *api.Error, got %v", tc.status, err)
		}
		if apiErr.Kind != tc.kind {
			t.Fatalf("status %d: expected kind %s, got %s", tc.status, tc.kind, apiErr.Kind)
		}
		if apiErr.Status != tc.status {
			t.Fatalf("status %d not recorded", tc.status)
		}
	}
}

func TestTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "tok") // nothing listens here
	_, err := c.ListAdministrations(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %T", err)
	}
	if apiErr.Kind != KindTransport {
		t.Fatalf("expected transport kind, got %s", apiErr.Kind)
	}
	if apiErr.Unwrap() == nil {
		t.Fatal("transport error should wrap its cause")
	}
}

func TestContactQueryParam(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "acme" {
			t.Errorf("unexpected query %q", got)
		}
		json.NewEncoder(w).Encode([]Contact{{ID: "c1", CompanyName: "Acme"}})
	})
	contacts, err := c.ListContacts(context.Background(), "admin1", "acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(contacts) != 1 || contacts[0].DisplayName() != "Acme" {
		t.Fatalf("unexpected contacts %+v", contacts)
	}
}

func TestContactDisplayNameFallback(t *testing.T) {
	c := Contact{FirstName: "Ada", LastName: "Lovelace"}
	if c.DisplayName() != "Ada Lovelace" {
		t.Fatalf("unexpected display name %q", c.DisplayName())
	}
}

func TestDeleteTimeEntry(t *testing.T) {
	var method, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.DeleteTimeEntry(context.Background(), "admin1", "e9"); err != nil {
		t.Fatal(err)
	}
	if method != http.MethodDelete || path != "/admin1/time_entries/e9" {
		t.Fatalf("unexpected request %s %s", method, path)
	}
}
