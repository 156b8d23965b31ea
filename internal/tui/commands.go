package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tempo/internal/api"
	"github.com/sadopc/tempo/internal/export"
	"github.com/sadopc/tempo/internal/plugin"
	"github.com/sadopc/tempo/internal/store"
)

const callTimeout = 15 * time.Second

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), callTimeout)
}

// refreshCmd loads the current week: remote entries, plugin entries and
// the contact/project snapshots. When the remote is unreachable it falls
// back to the cache; plugin failures never fail the refresh.
func (a *App) refreshCmd() tea.Cmd {
	adminID := a.adminID
	start := a.weekStart
	end := start.AddDate(0, 0, 7)
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()

		remote, err := a.svc.ListTimeEntries(ctx, adminID, start, end)
		if err != nil {
			if a.cache != nil && isOffline(err) {
				cached, cerr := a.cache.ListRange(adminID, start, end)
				if cerr == nil {
					projects, _ := a.cache.ListProjects(adminID)
					contacts, _ := a.cache.ListContacts(adminID)
					return entriesLoadedMsg{
						entries:   cached,
						fromCache: true,
						projects:  projects,
						contacts:  contacts,
					}
				}
			}
			return refreshFailedMsg{err: err}
		}

		entries := make([]store.Entry, 0, len(remote))
		for _, te := range remote {
			entries = append(entries, entryFromAPI(te))
		}

		var pluginErrors []plugin.Error
		if a.plugins != nil {
			ext, errs := a.plugins.GetAllTimeEntries(start, end)
			pluginErrors = errs
			for _, pe := range ext {
				e, err := entryFromPlugin(pe)
				if err != nil {
					pluginErrors = append(pluginErrors, plugin.Error{Plugin: pe.Source, Err: err})
					continue
				}
				entries = append(entries, e)
			}
		}

		var projects []store.Project
		if ps, err := a.svc.ListProjects(ctx, adminID); err == nil {
			projects = make([]store.Project, 0, len(ps))
			for _, p := range ps {
				projects = append(projects, store.Project{ID: p.ID, Name: p.Name, State: p.State})
			}
		}

		var contacts []store.Contact
		if cs, err := a.svc.ListContacts(ctx, adminID, ""); err == nil {
			contacts = make([]store.Contact, 0, len(cs))
			for _, c := range cs {
				contacts = append(contacts, store.Contact{ID: c.ID, Name: c.DisplayName()})
			}
		}

		if a.cache != nil {
			var remoteOnly []store.Entry
			for _, e := range entries {
				if !e.FromPlugin() {
					remoteOnly = append(remoteOnly, e)
				}
			}
			if err := a.cache.ReplaceRange(adminID, start, end, remoteOnly); err != nil {
				pluginErrors = append(pluginErrors, plugin.Error{Plugin: "cache", Err: err})
			}
			if projects != nil {
				_ = a.cache.ReplaceProjects(adminID, projects)
			}
			if contacts != nil {
				_ = a.cache.ReplaceContacts(adminID, contacts)
			}
		}

		return entriesLoadedMsg{
			entries:      entries,
			pluginErrors: pluginErrors,
			projects:     projects,
			contacts:     contacts,
		}
	}
}

func (a *App) createCmd(params api.TimeEntryParams) tea.Cmd {
	adminID := a.adminID
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		te, err := a.svc.CreateTimeEntry(ctx, adminID, params)
		if err != nil {
			return saveFailedMsg{err: err}
		}
		return saveDoneMsg{entry: *te, created: true}
	}
}

func (a *App) updateCmd(id string, params api.TimeEntryParams) tea.Cmd {
	adminID := a.adminID
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		te, err := a.svc.UpdateTimeEntry(ctx, adminID, id, params)
		if err != nil {
			return saveFailedMsg{err: err}
		}
		return saveDoneMsg{entry: *te}
	}
}

func (a *App) deleteCmd(id string) tea.Cmd {
	adminID := a.adminID
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		if err := a.svc.DeleteTimeEntry(ctx, adminID, id); err != nil {
			return deleteFailedMsg{id: id, err: err}
		}
		return deleteDoneMsg{id: id}
	}
}

func (a *App) searchContactsCmd(query string) tea.Cmd {
	adminID := a.adminID
	cached := a.contacts
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		contacts, err := a.svc.ListContacts(ctx, adminID, query)
		if err != nil {
			if isOffline(err) {
				return contactsFoundMsg{query: query, contacts: filterCachedContacts(cached, query)}
			}
			return contactSearchFailedMsg{err: err}
		}
		return contactsFoundMsg{query: query, contacts: contacts}
	}
}

// filterCachedContacts serves contact suggestions from the snapshot when
// the remote search is unreachable.
func filterCachedContacts(cached []store.Contact, query string) []api.Contact {
	q := strings.ToLower(query)
	var out []api.Contact
	for _, c := range cached {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, api.Contact{ID: c.ID, CompanyName: c.Name})
		}
	}
	return out
}

func (a *App) loadAdministrationsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		admins, err := a.svc.ListAdministrations(ctx)
		return administrationsLoadedMsg{admins: admins, err: err}
	}
}

func (a *App) loadUsersCmd() tea.Cmd {
	adminID := a.adminID
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		users, err := a.svc.ListUsers(ctx, adminID)
		return usersLoadedMsg{users: users, err: err}
	}
}

func (a *App) exportCmd(format int) tea.Cmd {
	entries := a.visible
	stamp := a.weekStart.Format("20060102")
	return func() tea.Msg {
		var path string
		var err error
		switch format {
		case 0:
			path = filepath.Join(".", "tempo-"+stamp+".csv")
			err = export.ToCSV(entries, path)
		case 1:
			path = filepath.Join(".", "tempo-"+stamp+".json")
			err = export.ToJSON(entries, path)
		default:
			err = fmt.Errorf("unknown export format %d", format)
		}
		return exportDoneMsg{path: path, err: err}
	}
}

func entryFromAPI(te api.TimeEntry) store.Entry {
	e := store.Entry{
		ID:          te.ID,
		Description: te.Description,
		StartedAt:   te.StartedAt,
		EndedAt:     te.EndedAt,
	}
	if te.Contact != nil {
		e.ContactID = te.Contact.ID
		e.ContactName = te.Contact.DisplayName()
	}
	if te.Project != nil {
		e.ProjectID = te.Project.ID
		e.ProjectName = te.Project.Name
	}
	return e
}

// entryFromPlugin normalizes a plugin record; its instants arrive as
// RFC3339 strings and are the only part that can be malformed.
func entryFromPlugin(pe plugin.TimeEntry) (store.Entry, error) {
	started, err := time.Parse(time.RFC3339, pe.StartedAt)
	if err != nil {
		return store.Entry{}, fmt.Errorf("entry %s: bad started_at %q", pe.ID, pe.StartedAt)
	}
	ended, err := time.Parse(time.RFC3339, pe.EndedAt)
	if err != nil {
		return store.Entry{}, fmt.Errorf("entry %s: bad ended_at %q", pe.ID, pe.EndedAt)
	}
	return store.Entry{
		ID:          pe.ID,
		Description: pe.Description,
		ContactID:   pe.CustomerID,
		ContactName: pe.CustomerName,
		ProjectID:   pe.ProjectID,
		ProjectName: pe.ProjectName,
		StartedAt:   started,
		EndedAt:     ended,
		Tags:        pe.Tags,
		Source:      pe.Source,
		SourceURL:   pe.SourceURL,
	}, nil
}

// isOffline reports whether an error means the remote is unreachable,
// as opposed to rejecting the request.
func isOffline(err error) bool {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == api.KindTransport || apiErr.Kind == api.KindServer
	}
	return false
}

func asAPIError(err error, target **api.Error) bool {
	return errors.As(err, target)
}

func describeAPIError(err error) string {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	switch apiErr.Kind {
	case api.KindAuth:
		return "Authentication failed. Check the API token in your configuration."
	case api.KindNotFound:
		return "The requested record no longer exists."
	case api.KindValidation:
		return apiErr.FieldSummary()
	case api.KindTransport:
		return "Could not reach the service: " + apiErr.Message
	default:
		return apiErr.Message
	}
}
