package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tempo/internal/modal"
)

// route translates a raw terminal event into at most one app message,
// based on what currently owns the keyboard. Priority order: the log
// panel toggle always works, then the user picker, then the top modal,
// then the edit form, then search, then the export picker, then the
// normal per-view keys. Returns nil when the event is swallowed.
func (a *App) route(raw tea.Msg, now time.Time) message {
	switch ev := raw.(type) {
	case tea.KeyMsg:
		return a.routeKey(ev, now)
	case tea.MouseMsg:
		return a.routeMouse(ev)
	}
	return nil
}

func (a *App) routeKey(ev tea.KeyMsg, now time.Time) message {
	// Global toggles, available in every mode.
	if key.Matches(ev, a.keys.LogPanel) {
		return toggleLogMsg{}
	}
	if key.Matches(ev, a.keys.Quit) && ev.String() == "ctrl+c" {
		return quitMsg{}
	}

	if a.pickingUser {
		return a.routeUserSelectKey(ev)
	}

	if msg, owned := a.routeModalKey(ev); owned {
		return msg
	}

	// Rapid repeats of destructive or structural keys are dropped while
	// their cooldown window is open.
	if !a.debounce.ShouldProcess(ev.String(), now) {
		return nil
	}

	if a.view == viewSettings && a.settings.formActive {
		return settingsKeyMsg{key: ev}
	}
	if a.edit != nil {
		return a.routeEditKey(ev)
	}
	if a.searching {
		return a.routeSearchKey(ev)
	}
	if a.exporting {
		return a.routeExportKey(ev)
	}
	return a.routeNormalKey(ev)
}

// routeModalKey handles input while a modal is visible. Enter and y
// confirm a Confirm modal and close any other kind; esc and n cancel;
// space, tab and shift+tab close the modal without cancelling.
// Everything else is swallowed. The cooldown is checked in the reducer
// so that a swallowed repeat still resolves to a no-op message here.
func (a *App) routeModalKey(ev tea.KeyMsg) (message, bool) {
	top, ok := a.modals.Top()
	if !ok {
		return nil, false
	}
	switch ev.String() {
	case "enter", "y":
		if top.Kind == modal.Confirm {
			return confirmModalMsg{id: top.ID}, true
		}
		return dismissModalMsg{id: top.ID}, true
	case "esc", "n", "q":
		return dismissModalMsg{id: top.ID, cancel: true}, true
	case " ", "tab", "shift+tab":
		return dismissModalMsg{id: top.ID}, true
	}
	return nil, true
}

func (a *App) routeEditKey(ev tea.KeyMsg) message {
	switch ev.String() {
	case "tab":
		return editNextFieldMsg{}
	case "shift+tab":
		return editPrevFieldMsg{}
	case "ctrl+s":
		return editSaveMsg{}
	}
	return editKeyMsg{key: ev}
}

func (a *App) routeSearchKey(ev tea.KeyMsg) message {
	switch ev.String() {
	case "enter":
		return exitSearchMsg{keep: true}
	case "esc":
		return exitSearchMsg{}
	case "up":
		return selectPrevMsg{}
	case "down":
		return selectNextMsg{}
	}
	return searchKeyMsg{key: ev}
}

func (a *App) routeExportKey(ev tea.KeyMsg) message {
	switch {
	case key.Matches(ev, a.keys.Up):
		return exportMoveMsg{delta: -1}
	case key.Matches(ev, a.keys.Down):
		return exportMoveMsg{delta: 1}
	case key.Matches(ev, a.keys.Enter):
		return doExportMsg{format: a.exportCursor}
	case key.Matches(ev, a.keys.Back):
		return closeExportMsg{}
	}
	return nil
}

func (a *App) routeUserSelectKey(ev tea.KeyMsg) message {
	// A setup error modal is still dismissible inside the picker.
	if msg, owned := a.routeModalKey(ev); owned {
		return msg
	}
	switch {
	case key.Matches(ev, a.keys.Up):
		return userSelectMoveMsg{delta: -1}
	case key.Matches(ev, a.keys.Down):
		return userSelectMoveMsg{delta: 1}
	case key.Matches(ev, a.keys.Enter):
		return userSelectConfirmMsg{}
	case key.Matches(ev, a.keys.Quit):
		return quitMsg{}
	}
	return nil
}

func (a *App) routeNormalKey(ev tea.KeyMsg) message {
	switch {
	case key.Matches(ev, a.keys.Quit):
		return quitMsg{}
	case key.Matches(ev, a.keys.Help):
		return toggleHelpMsg{}
	case key.Matches(ev, a.keys.Refresh):
		return refreshMsg{}
	case key.Matches(ev, a.keys.Tab1):
		return showViewMsg{view: viewEntries}
	case key.Matches(ev, a.keys.Tab2):
		return showViewMsg{view: viewReports}
	case key.Matches(ev, a.keys.Tab3):
		return showViewMsg{view: viewSettings}
	case key.Matches(ev, a.keys.Tab):
		return cycleViewMsg{}
	}

	switch a.view {
	case viewEntries:
		switch {
		case key.Matches(ev, a.keys.New):
			return startCreateMsg{}
		case key.Matches(ev, a.keys.Edit):
			return startEditMsg{}
		case key.Matches(ev, a.keys.Delete):
			return requestDeleteMsg{}
		case key.Matches(ev, a.keys.Search):
			return enterSearchMsg{}
		case key.Matches(ev, a.keys.Export):
			return openExportMsg{}
		case key.Matches(ev, a.keys.PrevWeek):
			return prevWeekMsg{}
		case key.Matches(ev, a.keys.NextWeek):
			return nextWeekMsg{}
		case key.Matches(ev, a.keys.Today):
			return currentWeekMsg{}
		case key.Matches(ev, a.keys.Up):
			return selectPrevMsg{}
		case key.Matches(ev, a.keys.Down):
			return selectNextMsg{}
		case key.Matches(ev, a.keys.First):
			return selectFirstMsg{}
		case key.Matches(ev, a.keys.Last):
			return selectLastMsg{}
		}
	case viewReports:
		switch {
		case key.Matches(ev, a.keys.PrevWeek):
			return prevWeekMsg{}
		case key.Matches(ev, a.keys.NextWeek):
			return nextWeekMsg{}
		case key.Matches(ev, a.keys.Today):
			return currentWeekMsg{}
		}
	case viewSettings:
		switch {
		case key.Matches(ev, a.keys.Enter), key.Matches(ev, a.keys.Edit):
			return openSettingsFormMsg{}
		}
	}
	return nil
}

// routeMouse maps wheel scrolling to list movement. Mouse input is
// ignored entirely while a modal or the user picker is up.
func (a *App) routeMouse(ev tea.MouseMsg) message {
	if !a.modals.IsEmpty() || a.pickingUser || a.edit != nil {
		return nil
	}
	if a.view != viewEntries {
		return nil
	}
	switch ev.Button {
	case tea.MouseButtonWheelUp:
		return selectPrevMsg{}
	case tea.MouseButtonWheelDown:
		return selectNextMsg{}
	}
	return nil
}
