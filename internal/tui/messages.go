package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tempo/internal/api"
	"github.com/sadopc/tempo/internal/plugin"
	"github.com/sadopc/tempo/internal/store"
)

// message is a single user intent consumed by the reducer. The set is
// closed: the router translates raw terminal input into exactly these,
// and each variant keeps one meaning for the life of the program. A
// reduce step may return a follow-up message, which is dispatched
// immediately — no terminal input is observed mid-chain.
type message interface{ appMessage() }

// --- session ---

type quitMsg struct{}
type refreshMsg struct{}
type toggleLogMsg struct{}
type toggleHelpMsg struct{}
type showViewMsg struct{ view viewState }
type cycleViewMsg struct{}

// --- list navigation ---

type selectNextMsg struct{}
type selectPrevMsg struct{}
type selectFirstMsg struct{}
type selectLastMsg struct{}
type nextWeekMsg struct{}
type prevWeekMsg struct{}
type currentWeekMsg struct{}

// --- search mode ---

type enterSearchMsg struct{}
type exitSearchMsg struct{ keep bool }
type searchKeyMsg struct{ key tea.KeyMsg }

// --- modals ---

type confirmModalMsg struct{ id string }

type dismissModalMsg struct {
	id     string
	cancel bool
}

// --- edit / create ---

type startCreateMsg struct{}
type startEditMsg struct{}
type editNextFieldMsg struct{}
type editPrevFieldMsg struct{}
type editKeyMsg struct{ key tea.KeyMsg }
type editSaveMsg struct{}
type editCancelMsg struct{}

// --- deletion ---

type requestDeleteMsg struct{}
type executeDeleteMsg struct{ id string }

// --- export ---

type openExportMsg struct{}
type closeExportMsg struct{}
type exportMoveMsg struct{ delta int }
type doExportMsg struct{ format int }

// --- settings ---

type openSettingsFormMsg struct{}
type settingsKeyMsg struct{ key tea.KeyMsg }

// --- user selection (administration / user picker) ---

type userSelectMoveMsg struct{ delta int }
type userSelectConfirmMsg struct{}

func (quitMsg) appMessage() {}
func (refreshMsg) appMessage() {}
func (toggleLogMsg) appMessage() {}
func (toggleHelpMsg) appMessage() {}
func (showViewMsg) appMessage() {}
func (cycleViewMsg) appMessage() {}
func (selectNextMsg) appMessage() {}
func (selectPrevMsg) appMessage() {}
func (selectFirstMsg) appMessage() {}
func (selectLastMsg) appMessage() {}
func (nextWeekMsg) appMessage() {}
func (prevWeekMsg) appMessage() {}
func (currentWeekMsg) appMessage() {}
func (enterSearchMsg) appMessage() {}
func (exitSearchMsg) appMessage() {}
func (searchKeyMsg) appMessage() {}
func (confirmModalMsg) appMessage() {}
func (dismissModalMsg) appMessage() {}
func (startCreateMsg) appMessage() {}
func (startEditMsg) appMessage() {}
func (editNextFieldMsg) appMessage() {}
func (editPrevFieldMsg) appMessage() {}
func (editKeyMsg) appMessage() {}
func (editSaveMsg) appMessage() {}
func (editCancelMsg) appMessage() {}
func (requestDeleteMsg) appMessage() {}
func (executeDeleteMsg) appMessage() {}
func (openExportMsg) appMessage() {}
func (closeExportMsg) appMessage() {}
func (exportMoveMsg) appMessage() {}
func (doExportMsg) appMessage() {}
func (openSettingsFormMsg) appMessage() {}
func (settingsKeyMsg) appMessage() {}
func (userSelectMoveMsg) appMessage() {}
func (userSelectConfirmMsg) appMessage() {}

// --- asynchronous results ---
// These are plain bubbletea messages posted by commands when a blocking
// remote or plugin call settles; they are not user intents.

type entriesLoadedMsg struct {
	entries      []store.Entry
	pluginErrors []plugin.Error
	fromCache    bool
	projects     []store.Project
	contacts     []store.Contact
}

type refreshFailedMsg struct{ err error }

type saveDoneMsg struct {
	entry   api.TimeEntry
	created bool
}

type saveFailedMsg struct{ err error }

type deleteDoneMsg struct{ id string }

type deleteFailedMsg struct {
	id  string
	err error
}

type contactsFoundMsg struct {
	query    string
	contacts []api.Contact
}

type contactSearchFailedMsg struct{ err error }

type administrationsLoadedMsg struct {
	admins []api.Administration
	err    error
}

type usersLoadedMsg struct {
	users []api.User
	err   error
}

type exportDoneMsg struct {
	path string
	err  error
}

type tickMsg time.Time
