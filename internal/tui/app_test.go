package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tempo/internal/api"
	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/logbuf"
	"github.com/sadopc/tempo/internal/modal"
	"github.com/sadopc/tempo/internal/store"
)

type fakeService struct {
	entries  []api.TimeEntry
	contacts []api.Contact
	projects []api.Project
	admins   []api.Administration
	users    []api.User

	deleted []string
	created []api.TimeEntryParams
	updated map[string]api.TimeEntryParams

	err error
}

func (f *fakeService) ListAdministrations(ctx context.Context) ([]api.Administration, error) {
	return f.admins, f.err
}

func (f *fakeService) ListUsers(ctx context.Context, adminID string) ([]api.User, error) {
	return f.users, f.err
}

func (f *fakeService) ListTimeEntries(ctx context.Context, adminID string, start, end time.Time) ([]api.TimeEntry, error) {
	return f.entries, f.err
}

func (f *fakeService) CreateTimeEntry(ctx context.Context, adminID string, params api.TimeEntryParams) (*api.TimeEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, params)
	return &api.TimeEntry{ID: "new", Description: params.Description}, nil
}

func (f *fakeService) UpdateTimeEntry(ctx context.Context, adminID, id string, params api.TimeEntryParams) (*api.TimeEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.updated == nil {
		f.updated = make(map[string]api.TimeEntryParams)
	}
	f.updated[id] = params
	return &api.TimeEntry{ID: id, Description: params.Description}, nil
}

func (f *fakeService) DeleteTimeEntry(ctx context.Context, adminID, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeService) ListContacts(ctx context.Context, adminID, search string) ([]api.Contact, error) {
	return f.contacts, f.err
}

func (f *fakeService) GetContact(ctx context.Context, adminID, id string) (*api.Contact, error) {
	return nil, f.err
}

func (f *fakeService) ListProjects(ctx context.Context, adminID string) ([]api.Project, error) {
	return f.projects, f.err
}

func newTestApp(t *testing.T, svc Service) *App {
	t.Helper()
	cfg := &config.Config{
		APIBaseURL:       "http://example.test",
		APIToken:         "tok",
		AdministrationID: "a1",
		AdministrationTZ: "UTC",
		UserID:           "u1",
	}
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	a := New(svc, nil, nil, cfg, cfgPath, logbuf.New(0, true))
	a.width = 100
	a.height = 40
	return a
}

func seedEntries(a *App, entries ...store.Entry) {
	a.entries = entries
	a.visible = entries
	a.cursor = 0
}

func sampleEntry(id, desc, source string) store.Entry {
	return store.Entry{
		ID:          id,
		Description: desc,
		Source:      source,
		StartedAt:   time.Date(2023, 8, 9, 9, 0, 0, 0, time.UTC),
		EndedAt:     time.Date(2023, 8, 9, 10, 0, 0, 0, time.UTC),
	}
}

// runCmd executes a command synchronously and returns its message.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDeleteConfirmationChain(t *testing.T) {
	svc := &fakeService{}
	a := newTestApp(t, svc)
	seedEntries(a, sampleEntry("e1", "write report", ""))

	a.dispatch(requestDeleteMsg{})
	if a.modals.IsEmpty() {
		t.Fatal("expected confirmation modal")
	}
	top, _ := a.modals.Top()
	if top.Kind != modal.Confirm {
		t.Fatalf("modal kind = %v", top.Kind)
	}
	if len(svc.deleted) != 0 {
		t.Fatal("delete ran before confirmation")
	}

	msg := a.route(keyPress("enter"), time.Now())
	confirm, ok := msg.(confirmModalMsg)
	if !ok {
		t.Fatalf("routed %T, want confirmModalMsg", msg)
	}
	_, cmd := a.dispatch(confirm)
	if !a.modals.IsEmpty() {
		t.Fatal("modal not popped")
	}
	result := runCmd(t, cmd)
	done, ok := result.(deleteDoneMsg)
	if !ok {
		t.Fatalf("command produced %T, want deleteDoneMsg", result)
	}
	if done.id != "e1" {
		t.Fatalf("deleted id = %s", done.id)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != "e1" {
		t.Fatalf("service deletions = %v", svc.deleted)
	}
}

func TestModalDismissSkipsAction(t *testing.T) {
	svc := &fakeService{}
	a := newTestApp(t, svc)
	seedEntries(a, sampleEntry("e1", "write report", ""))

	a.dispatch(requestDeleteMsg{})
	msg := a.route(keyPress("esc"), time.Now())
	_, cmd := a.dispatch(msg)
	if cmd != nil {
		if result := cmd(); result != nil {
			if _, isDone := result.(deleteDoneMsg); isDone {
				t.Fatal("dismiss must not delete")
			}
		}
	}
	if !a.modals.IsEmpty() {
		t.Fatal("modal not popped on dismiss")
	}
	if len(svc.deleted) != 0 {
		t.Fatalf("service deletions = %v", svc.deleted)
	}
}

func TestModalSpaceDismissesWithoutAction(t *testing.T) {
	svc := &fakeService{}
	a := newTestApp(t, svc)
	seedEntries(a, sampleEntry("e1", "write report", ""))

	a.dispatch(requestDeleteMsg{})
	msg := a.route(keyPress(" "), time.Now())
	dismiss, ok := msg.(dismissModalMsg)
	if !ok || dismiss.cancel {
		t.Fatalf("space routed to %#v", msg)
	}

	// Tab and shift+tab close the modal the same way.
	if msg := a.route(keyPress("tab"), time.Now()); msg != dismiss {
		t.Fatalf("tab routed to %#v", msg)
	}

	_, cmd := a.dispatch(dismiss)
	if cmd != nil {
		t.Fatal("plain dismiss produced a command")
	}
	if !a.modals.IsEmpty() {
		t.Fatal("modal not popped")
	}
	if len(svc.deleted) != 0 {
		t.Fatalf("service deletions = %v", svc.deleted)
	}
}

func TestModalStackIsLIFO(t *testing.T) {
	a := newTestApp(t, &fakeService{})
	a.pushInfoModal("first", "one")
	a.pushErrorModal("second", "two")

	top, ok := a.modals.Top()
	if !ok || top.Title != "second" {
		t.Fatalf("top = %+v", top)
	}

	a.dispatch(dismissModalMsg{id: top.ID, cancel: true})
	top, ok = a.modals.Top()
	if !ok || top.Title != "first" {
		t.Fatalf("after pop top = %+v", top)
	}
}

func TestModalCooldownBlocksDoubleResolve(t *testing.T) {
	a := newTestApp(t, &fakeService{})
	a.pushInfoModal("first", "one")
	a.pushInfoModal("second", "two")

	// Two resolves in immediate succession: the second lands inside the
	// cooldown window and must not pop the now-exposed modal.
	a.dispatch(confirmModalMsg{})
	a.dispatch(confirmModalMsg{})
	if got := a.modals.Len(); got != 1 {
		t.Fatalf("stack len = %d, want 1", got)
	}
}

func TestModalStaleIDIgnored(t *testing.T) {
	a := newTestApp(t, &fakeService{})
	a.pushInfoModal("only", "msg")
	a.dispatch(confirmModalMsg{id: "something-else"})
	if a.modals.IsEmpty() {
		t.Fatal("stale confirm resolved the wrong modal")
	}
}

func TestRouterModalOwnsKeyboard(t *testing.T) {
	a := newTestApp(t, &fakeService{})
	seedEntries(a, sampleEntry("e1", "x", ""))
	a.pushInfoModal("notice", "msg")

	if msg := a.route(keyPress("x"), time.Now()); msg != nil {
		t.Fatalf("x routed to %T while modal up", msg)
	}
	// Enter on anything but a Confirm modal closes it without cancelling.
	msg := a.route(keyPress("enter"), time.Now())
	dismiss, ok := msg.(dismissModalMsg)
	if !ok || dismiss.cancel {
		t.Fatalf("enter routed to %#v", msg)
	}
}

func TestRouterDebouncesRepeatedEnter(t *testing.T) {
	a := newTestApp(t, &fakeService{})
	seedEntries(a, sampleEntry("e1", "x", ""))

	now := time.Now()
	if msg := a.route(keyPress("enter"), now); msg == nil {
		t.Fatal("first enter dropped")
	}
	if msg := a.route(keyPress("enter"), now.Add(50*time.Millisecond)); msg != nil {
		t.Fatalf("repeat enter routed to %T", msg)
	}
	if msg := a.route(keyPress("enter"), now.Add(time.Second)); msg == nil {
		t.Fatal("enter after cooldown dropped")
	}
}

func TestRouterLogToggleWorksEverywhere(t *testing.T) {
	a := newTestApp(t, &fakeService{})
	a.pushInfoModal("notice", "msg")
	msg := a.route(tea.KeyMsg{Type: tea.KeyCtrlL}, time.Now())
	if _, ok := msg.(toggleLogMsg); !ok {
		t.Fatalf("ctrl+l routed to %T", msg)
	}
}

func TestSearchFilters(t *testing.T) {
	a := newTestApp(t, &fakeService{})
	seedEntries(a,
		sampleEntry("e1", "standup meeting", ""),
		sampleEntry("e2", "code review", ""),
		sampleEntry("e3", "Weekly MEETING", ""),
	)

	a.dispatch(enterSearchMsg{})
	if !a.searching {
		t.Fatal("not in search mode")
	}
	for _, r := range "meeting" {
		a.dispatch(searchKeyMsg{key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}})
	}
	if len(a.visible) != 2 {
		t.Fatalf("visible = %d, want 2", len(a.visible))
	}

	// Keep the filter on enter.
	a.dispatch(exitSearchMsg{keep: true})
	if a.searching || len(a.visible) != 2 {
		t.Fatalf("keep: searching=%v visible=%d", a.searching, len(a.visible))
	}

	// Esc clears it.
	a.dispatch(enterSearchMsg{})
	a.dispatch(exitSearchMsg{})
	if len(a.visible) != 3 {
		t.Fatalf("clear: visible = %d", len(a.visible))
	}
}

func TestPluginEntriesAreReadOnly(t *testing.T) {
	a := newTestApp(t, &fakeService{})
	seedEntries(a, sampleEntry("g1", "imported", "github"))

	a.dispatch(startEditMsg{})
	if a.edit != nil {
		t.Fatal("edit opened for plugin entry")
	}
	if a.modals.IsEmpty() {
		t.Fatal("expected read-only notice")
	}

	a.modals.Pop()
	a.dispatch(requestDeleteMsg{})
	top, ok := a.modals.Top()
	if !ok || top.Kind != modal.Info {
		t.Fatalf("delete on plugin entry: top = %+v", top)
	}
}

func TestSaveCommitsFocusedField(t *testing.T) {
	svc := &fakeService{}
	a := newTestApp(t, svc)
	a.projects = []store.Project{{ID: "p1", Name: "Infra"}}

	a.dispatch(startCreateMsg{})
	if a.edit == nil {
		t.Fatal("edit form not opened")
	}
	a.edit.description.SetValue("pairing session")
	a.edit.startTime.SetValue("10:00")
	a.edit.endTime.SetValue("11:00")

	// Highlight a project suggestion but do not pick it before saving.
	a.edit.advance(true) // contact
	a.edit.advance(true) // project
	a.edit.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'i'}})
	a.edit.handleKey(keyPress("down"))

	_, cmd := a.dispatch(editSaveMsg{})
	result := runCmd(t, cmd)
	if _, ok := result.(saveDoneMsg); !ok {
		t.Fatalf("save produced %T", result)
	}
	if len(svc.created) != 1 || svc.created[0].ProjectID != "p1" {
		t.Fatalf("created = %+v", svc.created)
	}
}

func TestWeekNavigationTriggersRefresh(t *testing.T) {
	a := newTestApp(t, &fakeService{})
	start := a.weekStart

	a.dispatch(nextWeekMsg{})
	if !a.weekStart.Equal(start.AddDate(0, 0, 7)) {
		t.Fatalf("weekStart = %v", a.weekStart)
	}
	if !a.loading {
		t.Fatal("refresh not triggered")
	}

	a.dispatch(prevWeekMsg{})
	a.dispatch(prevWeekMsg{})
	if !a.weekStart.Equal(start.AddDate(0, 0, -7)) {
		t.Fatalf("weekStart = %v", a.weekStart)
	}
}

func TestRefreshLoadsAndSorts(t *testing.T) {
	svc := &fakeService{
		entries: []api.TimeEntry{
			{ID: "late", StartedAt: time.Date(2023, 8, 9, 15, 0, 0, 0, time.UTC), EndedAt: time.Date(2023, 8, 9, 16, 0, 0, 0, time.UTC)},
			{ID: "early", StartedAt: time.Date(2023, 8, 9, 8, 0, 0, 0, time.UTC), EndedAt: time.Date(2023, 8, 9, 9, 0, 0, 0, time.UTC)},
		},
		projects: []api.Project{{ID: "p1", Name: "Infra"}},
	}
	a := newTestApp(t, svc)

	_, cmd := a.dispatch(refreshMsg{})
	result := runCmd(t, cmd)
	loaded, ok := result.(entriesLoadedMsg)
	if !ok {
		t.Fatalf("refresh produced %T", result)
	}
	a.Update(loaded)

	if len(a.entries) != 2 {
		t.Fatalf("entries = %d", len(a.entries))
	}
	if a.entries[0].ID != "early" {
		t.Fatalf("order = %s, %s", a.entries[0].ID, a.entries[1].ID)
	}
	if len(a.projects) != 1 || a.projects[0].Name != "Infra" {
		t.Fatalf("projects = %+v", a.projects)
	}
	if a.loading {
		t.Fatal("still loading")
	}
}

func TestStartupPickerFlow(t *testing.T) {
	svc := &fakeService{
		admins: []api.Administration{
			{ID: "a1", Name: "Acme", TimeZone: "UTC"},
			{ID: "a2", Name: "Umbrella", TimeZone: "Europe/Amsterdam"},
		},
		users: []api.User{{ID: "u9", Name: "Sam"}},
	}
	cfg := &config.Config{APIBaseURL: "http://example.test", APIToken: "tok"}
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	a := New(svc, nil, nil, cfg, cfgPath, logbuf.New(0, false))
	a.width, a.height = 100, 40

	a.Init()
	if !a.pickingUser || !a.pickingAdmin {
		t.Fatal("picker not active with empty config")
	}

	a.Update(administrationsLoadedMsg{admins: svc.admins})
	a.dispatch(userSelectMoveMsg{delta: 1})
	_, loadUsers := a.dispatch(userSelectConfirmMsg{})
	if a.adminID != "a2" {
		t.Fatalf("adminID = %s", a.adminID)
	}
	if a.pickingAdmin {
		t.Fatal("still picking administration")
	}

	result := runCmd(t, loadUsers)
	a.Update(result)
	a.dispatch(userSelectConfirmMsg{})
	if a.pickingUser {
		t.Fatal("still picking user")
	}
	if a.userID != "u9" {
		t.Fatalf("userID = %s", a.userID)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	saved, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if saved.AdministrationID != "a2" || saved.UserID != "u9" {
		t.Fatalf("saved config = %+v", saved)
	}
}

func TestQuitFromAnywhere(t *testing.T) {
	a := newTestApp(t, &fakeService{})
	msg := a.route(tea.KeyMsg{Type: tea.KeyCtrlC}, time.Now())
	if _, ok := msg.(quitMsg); !ok {
		t.Fatalf("ctrl+c routed to %T", msg)
	}
	a.dispatch(msg)
	if !a.quitting {
		t.Fatal("not quitting")
	}
}
