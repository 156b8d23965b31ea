package tui

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tempo/internal/api"
	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/debounce"
	"github.com/sadopc/tempo/internal/logbuf"
	"github.com/sadopc/tempo/internal/modal"
	"github.com/sadopc/tempo/internal/plugin"
	"github.com/sadopc/tempo/internal/store"
)

type viewState int

const (
	viewEntries viewState = iota
	viewReports
	viewSettings

	viewCount
)

var exportFormats = []string{"CSV", "JSON"}

const tickInterval = 100 * time.Millisecond

// Service is the remote surface the UI depends on.
type Service interface {
	ListAdministrations(ctx context.Context) ([]api.Administration, error)
	ListUsers(ctx context.Context, adminID string) ([]api.User, error)
	ListTimeEntries(ctx context.Context, adminID string, start, end time.Time) ([]api.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, adminID string, params api.TimeEntryParams) (*api.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, adminID, id string, params api.TimeEntryParams) (*api.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, adminID, id string) error
	ListContacts(ctx context.Context, adminID, search string) ([]api.Contact, error)
	ListProjects(ctx context.Context, adminID string) ([]api.Project, error)
}

// PluginSource aggregates external time entries for a period.
type PluginSource interface {
	GetAllTimeEntries(start, end time.Time) ([]plugin.TimeEntry, []plugin.Error)
}

// App is the root bubbletea model.
type App struct {
	svc     Service
	plugins PluginSource
	cache   *store.Store
	cfg     *config.Config
	cfgPath string
	log     *logbuf.Buffer
	keys    keyMap
	help    help.Model

	loc     *time.Location
	adminID string
	userID  string

	view          viewState
	width, height int

	weekStart time.Time
	entries   []store.Entry
	visible   []store.Entry
	cursor    int
	loading   bool
	fromCache bool
	projects  []store.Project
	contacts  []store.Contact

	searching   bool
	searchQuery string

	modals        modal.Stack[message]
	modalCooldown *debounce.Cooldown
	debounce      *debounce.Keys

	edit *editModel

	exporting    bool
	exportCursor int

	// startup picker for administration and user
	pickingUser  bool
	pickingAdmin bool
	admins       []api.Administration
	users        []api.User
	pickerCursor int

	showLog  bool
	showHelp bool
	status   string
	quitting bool

	reports  reportsModel
	settings settingsModel
}

// New wires an App from its dependencies. cache may be nil to disable
// the offline snapshot.
func New(svc Service, plugins PluginSource, cache *store.Store, cfg *config.Config, cfgPath string, log *logbuf.Buffer) *App {
	loc := adminLocation(cfg.AdministrationTZ)
	start, _ := weekBounds(time.Now(), loc)
	a := &App{
		svc:           svc,
		plugins:       plugins,
		cache:         cache,
		cfg:           cfg,
		cfgPath:       cfgPath,
		log:           log,
		keys:          defaultKeys,
		help:          help.New(),
		loc:           loc,
		adminID:       cfg.AdministrationID,
		userID:        cfg.UserID,
		weekStart:     start,
		modals:        modal.Stack[message]{},
		modalCooldown: debounce.NewCooldown(debounce.DefaultCooldown),
		debounce:      debounce.NewKeys(debounce.DefaultCooldown),
	}
	a.settings = newSettingsModel(cfg)
	return a
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if a.adminID == "" || a.userID == "" {
		a.pickingUser = true
		a.pickingAdmin = true
		cmds = append(cmds, a.loadAdministrationsCmd())
	} else {
		a.warmFromCache()
		a.loading = true
		cmds = append(cmds, a.refreshCmd())
	}
	return tea.Batch(cmds...)
}

// warmFromCache paints last week's snapshot while the first refresh is
// in flight. The refresh result replaces it either way.
func (a *App) warmFromCache() {
	if a.cache == nil {
		return
	}
	end := a.weekStart.AddDate(0, 0, 7)
	cached, err := a.cache.ListRange(a.adminID, a.weekStart, end)
	if err != nil || len(cached) == 0 {
		return
	}
	a.entries = cached
	a.fromCache = true
	a.applyFilter()
	a.reports = newReportsModel(a.entries, a.weekStart, a.loc)
	if projects, err := a.cache.ListProjects(a.adminID); err == nil {
		a.projects = projects
	}
	if contacts, err := a.cache.ListContacts(a.adminID); err == nil {
		a.contacts = contacts
	}
	a.log.Append(logbuf.Debug, "painted %d cached entries", len(cached))
}

func (a *App) Update(raw tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := raw.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = ev.Width, ev.Height
		a.help.Width = ev.Width
		return a, nil
	case tickMsg:
		return a, a.onTick(time.Time(ev))
	case entriesLoadedMsg:
		a.onEntriesLoaded(ev)
		return a, nil
	case refreshFailedMsg:
		a.onRefreshFailed(ev)
		return a, nil
	case saveDoneMsg:
		return a.dispatch(a.onSaveDone(ev))
	case saveFailedMsg:
		a.onSaveFailed(ev)
		return a, nil
	case deleteDoneMsg:
		a.log.Append(logbuf.Success, "deleted entry %s", ev.id)
		a.status = "Entry deleted"
		return a.dispatch(refreshMsg{})
	case deleteFailedMsg:
		a.log.Append(logbuf.Error, "delete %s: %v", ev.id, ev.err)
		a.pushErrorModal("Delete failed", ev.err.Error())
		return a, nil
	case contactsFoundMsg:
		if a.edit != nil {
			a.edit.contactsFound(ev.query, ev.contacts)
		}
		return a, nil
	case contactSearchFailedMsg:
		// A failed remote search drops stale suggestions but keeps the
		// typed input so the user can retry or keep going.
		if a.edit != nil {
			a.edit.contactAC.Loading = false
			a.edit.contactAC.UpdateItems(nil)
		}
		a.log.Append(logbuf.Warning, "contact search: %v", ev.err)
		a.status = "Contact search failed"
		return a, nil
	case administrationsLoadedMsg:
		a.onAdministrationsLoaded(ev)
		return a, nil
	case usersLoadedMsg:
		a.onUsersLoaded(ev)
		return a, nil
	case exportDoneMsg:
		a.onExportDone(ev)
		return a, nil
	}

	switch raw.(type) {
	case tea.KeyMsg, tea.MouseMsg:
	default:
		// huh drives itself with internal messages; forward anything
		// that is not terminal input while its form is up.
		if a.settings.formActive {
			return a, a.updateSettings(raw)
		}
		return a, nil
	}

	msg := a.route(raw, time.Now())
	if msg == nil {
		return a, nil
	}
	return a.dispatch(msg)
}

func (a *App) updateSettings(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	var saved bool
	a.settings, cmd, saved = a.settings.update(msg)
	if saved {
		if err := config.Save(a.cfg, a.cfgPath); err != nil {
			a.log.Append(logbuf.Error, "save config: %v", err)
			a.pushErrorModal("Save failed", err.Error())
			return cmd
		}
		a.log.Append(logbuf.Success, "configuration saved to %s", a.cfgPath)
		a.status = "Configuration saved. Connection changes apply on restart."
	}
	return cmd
}

// dispatch runs the reducer chain to completion. A reduce step may
// return a follow-up message; the chain settles before any further
// terminal input is looked at.
func (a *App) dispatch(msg message) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for msg != nil {
		var cmd tea.Cmd
		msg, cmd = a.reduce(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if a.quitting {
		cmds = append(cmds, tea.Quit)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) reduce(msg message) (message, tea.Cmd) {
	switch m := msg.(type) {
	case quitMsg:
		a.quitting = true
		return nil, nil
	case refreshMsg:
		a.loading = true
		a.status = ""
		return nil, a.refreshCmd()
	case toggleLogMsg:
		a.showLog = !a.showLog
		return nil, nil
	case toggleHelpMsg:
		a.showHelp = !a.showHelp
		return nil, nil
	case showViewMsg:
		a.view = m.view
		return nil, nil
	case cycleViewMsg:
		a.view = (a.view + 1) % viewCount
		return nil, nil

	case openSettingsFormMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.showForm()
		return nil, cmd
	case settingsKeyMsg:
		return nil, a.updateSettings(m.key)

	case selectNextMsg:
		a.moveCursor(1)
		return nil, nil
	case selectPrevMsg:
		a.moveCursor(-1)
		return nil, nil
	case selectFirstMsg:
		a.cursor = 0
		return nil, nil
	case selectLastMsg:
		if n := len(a.visible); n > 0 {
			a.cursor = n - 1
		}
		return nil, nil

	case nextWeekMsg:
		a.weekStart = a.weekStart.AddDate(0, 0, 7)
		return refreshMsg{}, nil
	case prevWeekMsg:
		a.weekStart = a.weekStart.AddDate(0, 0, -7)
		return refreshMsg{}, nil
	case currentWeekMsg:
		a.weekStart, _ = weekBounds(time.Now(), a.loc)
		return refreshMsg{}, nil

	case enterSearchMsg:
		a.searching = true
		a.searchQuery = ""
		a.applyFilter()
		return nil, nil
	case exitSearchMsg:
		a.searching = false
		if !m.keep {
			a.searchQuery = ""
			a.applyFilter()
		}
		return nil, nil
	case searchKeyMsg:
		a.applySearchKey(m.key)
		return nil, nil

	case confirmModalMsg:
		return a.resolveModal(m.id, true, false), nil
	case dismissModalMsg:
		return a.resolveModal(m.id, false, m.cancel), nil

	case startCreateMsg:
		a.edit = newCreateModel(a.loc, a.projects, a.width)
		return nil, nil
	case startEditMsg:
		return a.startEdit(), nil
	case editNextFieldMsg:
		if a.edit != nil {
			a.edit.advance(true)
		}
		return nil, nil
	case editPrevFieldMsg:
		if a.edit != nil {
			a.edit.advance(false)
		}
		return nil, nil
	case editKeyMsg:
		if a.edit == nil {
			return nil, nil
		}
		follow, cmd := a.edit.handleKey(m.key)
		if follow != nil {
			return *follow, cmd
		}
		return nil, cmd
	case editSaveMsg:
		return nil, a.saveEdit()
	case editCancelMsg:
		a.edit = nil
		return nil, nil

	case requestDeleteMsg:
		a.requestDelete()
		return nil, nil
	case executeDeleteMsg:
		return nil, a.deleteCmd(m.id)

	case openExportMsg:
		if len(a.visible) == 0 {
			a.status = "Nothing to export"
			return nil, nil
		}
		a.exporting = true
		a.exportCursor = 0
		return nil, nil
	case closeExportMsg:
		a.exporting = false
		return nil, nil
	case exportMoveMsg:
		n := len(exportFormats)
		a.exportCursor = (a.exportCursor + m.delta + n) % n
		return nil, nil
	case doExportMsg:
		a.exporting = false
		return nil, a.exportCmd(m.format)

	case userSelectMoveMsg:
		a.movePicker(m.delta)
		return nil, nil
	case userSelectConfirmMsg:
		return a.confirmPicker()
	}
	return nil, nil
}

// resolveModal pops the top modal and returns its follow-up message:
// the confirm follow-up when confirming, the cancel follow-up when
// cancelling, nothing for a plain dismiss. A stale id (the modal it
// targeted is no longer on top) and a resolve landing inside the
// cooldown window both reduce to nothing, so a double-tapped enter
// cannot chew through two stacked modals.
func (a *App) resolveModal(id string, confirm, cancel bool) message {
	if !a.modals.Matches(id) {
		return nil
	}
	if !a.modalCooldown.Allow(time.Now()) {
		return nil
	}
	entry, ok := a.modals.Pop()
	if !ok {
		return nil
	}
	switch {
	case confirm && entry.OnConfirm != nil:
		return *entry.OnConfirm
	case cancel && entry.OnCancel != nil:
		return *entry.OnCancel
	}
	return nil
}

func (a *App) pushModal(e modal.Entry[message]) {
	a.modals.Push(e)
}

func (a *App) pushErrorModal(title, msg string) {
	a.modals.Push(modal.Entry[message]{
		ID:      "error:" + title,
		Kind:    modal.Error,
		Title:   title,
		Message: msg,
	})
}

func (a *App) pushInfoModal(title, msg string) {
	a.modals.Push(modal.Entry[message]{
		ID:      "info:" + title,
		Kind:    modal.Info,
		Title:   title,
		Message: msg,
	})
}

func (a *App) selectedEntry() *store.Entry {
	if a.cursor < 0 || a.cursor >= len(a.visible) {
		return nil
	}
	return &a.visible[a.cursor]
}

func (a *App) moveCursor(delta int) {
	n := len(a.visible)
	if n == 0 {
		a.cursor = 0
		return
	}
	a.cursor += delta
	if a.cursor < 0 {
		a.cursor = 0
	}
	if a.cursor >= n {
		a.cursor = n - 1
	}
}

func (a *App) startEdit() message {
	e := a.selectedEntry()
	if e == nil {
		return nil
	}
	if e.FromPlugin() {
		a.pushInfoModal("Read-only entry",
			"Entries from "+e.Source+" are provided by a plugin and cannot be edited here.")
		return nil
	}
	a.edit = newEditModel(*e, a.loc, a.projects, a.width)
	return nil
}

func (a *App) requestDelete() {
	e := a.selectedEntry()
	if e == nil {
		return
	}
	if e.FromPlugin() {
		a.pushInfoModal("Read-only entry",
			"Entries from "+e.Source+" cannot be deleted here.")
		return
	}
	var onConfirm message = executeDeleteMsg{id: e.ID}
	a.pushModal(modal.Entry[message]{
		ID:        "delete:" + e.ID,
		Kind:      modal.Confirm,
		Title:     "Delete time entry",
		Message:   "Delete \"" + truncate(e.Description, 60) + "\"? This cannot be undone.",
		OnConfirm: &onConfirm,
	})
}

func (a *App) saveEdit() tea.Cmd {
	if a.edit == nil {
		return nil
	}
	// Commit the focused field first so a highlighted suggestion or an
	// in-progress buffer makes it into the save.
	a.edit.leaveField()
	params, err := a.edit.params(a.userID)
	if err != nil {
		a.edit.formErr = err.Error()
		a.edit.refocus()
		return nil
	}
	a.edit.formErr = ""
	a.edit.saving = true
	if a.edit.creating {
		return a.createCmd(params)
	}
	return a.updateCmd(a.edit.entryID, params)
}

func (a *App) applySearchKey(key tea.KeyMsg) {
	switch key.String() {
	case "backspace":
		if a.searchQuery != "" {
			runes := []rune(a.searchQuery)
			a.searchQuery = string(runes[:len(runes)-1])
		}
	case "ctrl+u":
		a.searchQuery = ""
	default:
		if key.Type == tea.KeyRunes || key.Type == tea.KeySpace {
			a.searchQuery += string(keyRunes(key))
		}
	}
	a.applyFilter()
}

// applyFilter recomputes the visible slice from the full week and the
// current query, keeping the cursor in range.
func (a *App) applyFilter() {
	if a.searchQuery == "" {
		a.visible = a.entries
	} else {
		filtered := make([]store.Entry, 0, len(a.entries))
		for _, e := range a.entries {
			if e.MatchesFilter(a.searchQuery) {
				filtered = append(filtered, e)
			}
		}
		a.visible = filtered
	}
	if a.cursor >= len(a.visible) {
		a.cursor = 0
	}
}

func (a *App) onTick(now time.Time) tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if a.edit != nil {
		if query := a.edit.tick(now); query != "" {
			cmds = append(cmds, a.searchContactsCmd(query))
		}
	}
	return tea.Batch(cmds...)
}

func (a *App) onEntriesLoaded(ev entriesLoadedMsg) {
	a.loading = false
	a.fromCache = ev.fromCache
	a.entries = ev.entries
	sort.SliceStable(a.entries, func(i, j int) bool {
		return a.entries[i].StartedAt.Before(a.entries[j].StartedAt)
	})
	if ev.projects != nil {
		a.projects = ev.projects
	}
	if ev.contacts != nil {
		a.contacts = ev.contacts
	}
	a.applyFilter()
	for _, perr := range ev.pluginErrors {
		a.log.Append(logbuf.Warning, "plugin %s: %v", perr.Plugin, perr.Err)
	}
	if ev.fromCache {
		a.status = "Offline: showing cached entries"
		a.log.Append(logbuf.Notice, "remote unavailable, served %d entries from cache", len(ev.entries))
	} else {
		a.log.Append(logbuf.Debug, "loaded %d entries", len(ev.entries))
	}
	a.reports = newReportsModel(a.entries, a.weekStart, a.loc)
}

func (a *App) onRefreshFailed(ev refreshFailedMsg) {
	a.loading = false
	a.log.Append(logbuf.Error, "refresh: %v", ev.err)
	a.pushErrorModal("Refresh failed", describeAPIError(ev.err))
}

func (a *App) onSaveDone(ev saveDoneMsg) message {
	a.edit = nil
	if ev.created {
		a.status = "Entry created"
		a.log.Append(logbuf.Success, "created entry %s", ev.entry.ID)
	} else {
		a.status = "Entry updated"
		a.log.Append(logbuf.Success, "updated entry %s", ev.entry.ID)
	}
	return refreshMsg{}
}

func (a *App) onSaveFailed(ev saveFailedMsg) {
	if a.edit == nil {
		return
	}
	a.edit.saving = false
	a.edit.refocus()
	var apiErr *api.Error
	if asAPIError(ev.err, &apiErr) && apiErr.Kind == api.KindValidation {
		a.edit.formErr = apiErr.FieldSummary()
		return
	}
	a.log.Append(logbuf.Error, "save: %v", ev.err)
	a.edit.formErr = describeAPIError(ev.err)
}

func (a *App) onAdministrationsLoaded(ev administrationsLoadedMsg) {
	if ev.err != nil {
		a.log.Append(logbuf.Error, "list administrations: %v", ev.err)
		a.pushErrorModal("Setup failed", describeAPIError(ev.err))
		return
	}
	a.admins = ev.admins
	a.pickerCursor = 0
}

func (a *App) onUsersLoaded(ev usersLoadedMsg) {
	if ev.err != nil {
		a.log.Append(logbuf.Error, "list users: %v", ev.err)
		a.pushErrorModal("Setup failed", describeAPIError(ev.err))
		return
	}
	a.users = ev.users
	a.pickerCursor = 0
}

func (a *App) onExportDone(ev exportDoneMsg) {
	if ev.err != nil {
		a.log.Append(logbuf.Error, "export: %v", ev.err)
		a.pushErrorModal("Export failed", ev.err.Error())
		return
	}
	a.status = "Exported to " + ev.path
	a.log.Append(logbuf.Success, "exported to %s", ev.path)
}

func (a *App) movePicker(delta int) {
	n := len(a.users)
	if a.pickingAdmin {
		n = len(a.admins)
	}
	if n == 0 {
		return
	}
	a.pickerCursor = (a.pickerCursor + delta + n) % n
}

// confirmPicker advances the two-stage startup picker: administration
// first, then user. Completing it persists the choice and triggers the
// first refresh.
func (a *App) confirmPicker() (message, tea.Cmd) {
	if a.pickingAdmin {
		if a.pickerCursor >= len(a.admins) {
			return nil, nil
		}
		admin := a.admins[a.pickerCursor]
		a.adminID = admin.ID
		a.loc = adminLocation(admin.TimeZone)
		a.cfg.AdministrationID = admin.ID
		a.cfg.AdministrationTZ = admin.TimeZone
		a.weekStart, _ = weekBounds(time.Now(), a.loc)
		a.pickingAdmin = false
		a.pickerCursor = 0
		return nil, a.loadUsersCmd()
	}
	if a.pickerCursor >= len(a.users) {
		return nil, nil
	}
	user := a.users[a.pickerCursor]
	a.userID = user.ID
	a.cfg.UserID = user.ID
	a.pickingUser = false
	if err := config.Save(a.cfg, a.cfgPath); err != nil {
		a.log.Append(logbuf.Warning, "save config: %v", err)
	}
	return refreshMsg{}, nil
}

func truncate(s string, n int) string {
	if n < 2 {
		n = 2
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
