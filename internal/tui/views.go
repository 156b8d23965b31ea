package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tempo/internal/logbuf"
	"github.com/sadopc/tempo/internal/modal"
	"github.com/sadopc/tempo/internal/store"
)

var viewNames = []string{"Entries", "Reports", "Settings"}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	if a.pickingUser {
		return a.renderPicker()
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.view {
	case viewEntries:
		content = a.renderEntriesView()
	case viewReports:
		content = a.reports.view(a.width, a.height)
	case viewSettings:
		content = a.settings.view(a.width)
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	logPanel := ""
	if a.showLog {
		logPanel = a.renderLogPanel()
	}
	contentHeight := a.height - headerHeight - footerHeight - lipgloss.Height(logPanel)
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exporting {
		content = a.renderExportPicker(contentHeight)
	}
	if top, ok := a.modals.Top(); ok {
		content = a.renderModal(*top, contentHeight)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	parts := []string{header, content}
	if logPanel != "" {
		parts = append(parts, logPanel)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.view {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tempo")
	week := mutedStyle.Render(fmt.Sprintf("week of %s", a.weekStart.Format("Jan 02, 2006")))
	if a.fromCache {
		week += " " + warningStyle.Render("[offline]")
	}

	gap := a.width - lipgloss.Width(title) - lipgloss.Width(week) - lipgloss.Width(tabRow) - 6
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", week, spacer, tabRow),
	)
}

func (a *App) renderFooter() string {
	if a.searching {
		return footerStyle.Render(
			highlightStyle.Render("/") + a.searchQuery + highlightStyle.Render("▎") +
				mutedStyle.Render("  enter: keep filter  esc: clear"))
	}
	var parts []string
	if a.status != "" {
		parts = append(parts, successStyle.Render(a.status))
	}
	if a.loading {
		parts = append(parts, mutedStyle.Render("refreshing..."))
	}
	if a.showHelp {
		parts = append(parts, a.help.FullHelpView(a.keys.FullHelp()))
	} else {
		parts = append(parts, a.help.ShortHelpView(a.keys.ShortHelp()))
	}
	return footerStyle.Render(strings.Join(parts, "  "))
}

// renderEntriesView shows either the week list or the edit form.
func (a *App) renderEntriesView() string {
	if a.edit != nil {
		return a.edit.view(a.width)
	}
	return a.renderEntryList()
}

func (a *App) renderEntryList() string {
	w := a.width - 4
	if w < 30 {
		w = 30
	}

	if len(a.visible) == 0 {
		msg := "No entries this week. Press n to create one."
		if a.searchQuery != "" {
			msg = fmt.Sprintf("No entries match %q.", a.searchQuery)
		}
		return panelStyle.Width(w).Render(mutedStyle.Render(msg))
	}

	var b strings.Builder
	var lastDay string
	var total time.Duration
	for i, e := range a.visible {
		day := e.StartedAt.In(a.loc).Format("Monday, Jan 02")
		if day != lastDay {
			if lastDay != "" {
				b.WriteString("\n")
			}
			b.WriteString(dayHeaderStyle.Render(day))
			b.WriteString("\n")
			lastDay = day
		}
		b.WriteString(a.renderEntryRow(e, i == a.cursor, w))
		b.WriteString("\n")
		total += e.Duration()
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Week total: ") + titleStyle.Render(formatDuration(total)))

	return panelStyle.Width(w).Render(b.String())
}

func (a *App) renderEntryRow(e store.Entry, selected bool, w int) string {
	_, start := splitWall(e.StartedAt, a.loc)
	_, end := splitWall(e.EndedAt, a.loc)

	marker := "  "
	style := normalItemStyle
	if selected {
		marker = "▸ "
		style = selectedItemStyle
	}

	meta := e.ProjectName
	if e.ContactName != "" {
		if meta != "" {
			meta += " · "
		}
		meta += e.ContactName
	}
	if e.FromPlugin() {
		meta += " " + accentStyle.Render("["+e.Source+"]")
	}

	desc := truncate(strings.ReplaceAll(e.Description, "\n", " "), w-36)
	row := fmt.Sprintf("%s%s-%s  %-6s %s", marker, start, end, formatDuration(e.Duration()), desc)
	line := style.Render(row)
	if meta != "" {
		line += "  " + mutedStyle.Render(meta)
	}
	return line
}

// renderModal draws the top modal centered in the content area.
func (a *App) renderModal(top modal.Entry[message], height int) string {
	style := modalInfoStyle
	hint := "enter: ok"
	switch top.Kind {
	case modal.Confirm:
		style = modalConfirmStyle
		hint = "enter/y: confirm  esc/n: cancel"
	case modal.Error:
		style = modalErrorStyle
		hint = "enter: dismiss"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(top.Title))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(min(a.width-12, 64)).Render(top.Message))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(hint))
	if n := a.modals.Len(); n > 1 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  (%d more)", n-1)))
	}
	box := style.Render(b.String())
	return lipgloss.Place(a.width, height, lipgloss.Center, lipgloss.Center, box)
}

func (a *App) renderExportPicker(height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Export week"))
	b.WriteString("\n\n")
	for i, format := range exportFormats {
		if i == a.exportCursor {
			b.WriteString(selectedItemStyle.Render("▸ " + format))
		} else {
			b.WriteString(normalItemStyle.Render("  " + format))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d entries  ·  enter: export  esc: cancel", len(a.visible))))
	box := activePanelStyle.Render(b.String())
	return lipgloss.Place(a.width, height, lipgloss.Center, lipgloss.Center, box)
}

// renderPicker is the startup administration/user chooser, shown before
// the main UI is available.
func (a *App) renderPicker() string {
	title := "Choose an administration"
	var labels []string
	if a.pickingAdmin {
		for _, admin := range a.admins {
			labels = append(labels, admin.Name+"  "+mutedStyle.Render(admin.TimeZone))
		}
	} else {
		title = "Choose your user"
		for _, u := range a.users {
			labels = append(labels, u.Name+"  "+mutedStyle.Render(u.Email))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	if len(labels) == 0 {
		b.WriteString(mutedStyle.Render("loading..."))
		b.WriteString("\n")
	}
	for i, label := range labels {
		if i == a.pickerCursor {
			b.WriteString(selectedItemStyle.Render("▸ " + label))
		} else {
			b.WriteString(normalItemStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("↑/↓: move  enter: select  q: quit"))
	box := activePanelStyle.Render(b.String())

	if top, ok := a.modals.Top(); ok {
		return a.renderModal(*top, a.height)
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
}

func (a *App) renderLogPanel() string {
	w := a.width - 4
	if w < 30 {
		w = 30
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Log"))
	b.WriteString("\n")
	entries := a.log.Tail(8)
	if len(entries) == 0 {
		b.WriteString(mutedStyle.Render("  nothing yet"))
	}
	for _, e := range entries {
		level := mutedStyle
		switch e.Level {
		case logbuf.Success:
			level = successStyle
		case logbuf.Warning:
			level = warningStyle
		case logbuf.Error:
			level = errorStyle
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			mutedStyle.Render(e.Time.Format("15:04:05")),
			level.Render(fmt.Sprintf("%-7s", e.Level)),
			truncate(e.Text, w-22)))
	}
	return panelStyle.Width(w).Render(strings.TrimRight(b.String(), "\n"))
}
