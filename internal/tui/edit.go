package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tempo/internal/api"
	"github.com/sadopc/tempo/internal/autocomplete"
	"github.com/sadopc/tempo/internal/store"
)

// editField enumerates the form fields in their fixed cycle order.
// Tab walks the cycle forward, shift+tab backward, both with wraparound.
type editField int

const (
	fieldDescription editField = iota
	fieldContact
	fieldProject
	fieldStartTime
	fieldEndTime
	fieldStartDate
	fieldEndDate

	fieldCount
)

func (f editField) next() editField {
	return (f + 1) % fieldCount
}

func (f editField) prev() editField {
	return (f + fieldCount - 1) % fieldCount
}

func (f editField) label() string {
	switch f {
	case fieldDescription:
		return "Description"
	case fieldContact:
		return "Contact"
	case fieldProject:
		return "Project"
	case fieldStartTime:
		return "Start time"
	case fieldEndTime:
		return "End time"
	case fieldStartDate:
		return "Start date"
	case fieldEndDate:
		return "End date"
	}
	return ""
}

// editModel is the create/edit form. One instance lives on the App while
// edit mode is active; nil otherwise.
type editModel struct {
	creating bool
	entryID  string
	field    editField

	description textarea.Model
	startTime   textinput.Model
	endTime     textinput.Model
	startDate   textinput.Model
	endDate     textinput.Model

	contactAC autocomplete.State[api.Contact]
	projectAC autocomplete.State[store.Project]

	contactID   string
	contactName string
	projectID   string
	projectName string

	// full snapshot the project field filters locally
	projects []store.Project

	loc     *time.Location
	formErr string
	saving  bool
}

func newTimeInput(placeholder, value string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 10
	in.Width = 12
	in.SetValue(value)
	return in
}

// newCreateModel returns a form prefilled with today's date and an empty
// time range.
func newCreateModel(loc *time.Location, projects []store.Project, width int) *editModel {
	today := time.Now().In(loc).Format(dateLayout)
	m := newEditBase(loc, projects, width)
	m.creating = true
	m.startDate.SetValue(today)
	m.endDate.SetValue(today)
	m.enterField(fieldDescription)
	return m
}

// newEditModel returns a form prefilled from an existing remote entry.
func newEditModel(e store.Entry, loc *time.Location, projects []store.Project, width int) *editModel {
	m := newEditBase(loc, projects, width)
	m.entryID = e.ID
	m.description.SetValue(e.Description)
	sd, st := splitWall(e.StartedAt, loc)
	ed, et := splitWall(e.EndedAt, loc)
	m.startDate.SetValue(sd)
	m.startTime.SetValue(st)
	m.endDate.SetValue(ed)
	m.endTime.SetValue(et)
	m.contactID = e.ContactID
	m.contactName = e.ContactName
	m.contactAC.Input = e.ContactName
	m.contactAC.MarkSearched()
	m.projectID = e.ProjectID
	m.projectName = e.ProjectName
	m.projectAC.Input = e.ProjectName
	m.projectAC.MarkSearched()
	m.enterField(fieldDescription)
	return m
}

func newEditBase(loc *time.Location, projects []store.Project, width int) *editModel {
	desc := textarea.New()
	desc.Placeholder = "What did you work on?"
	desc.SetHeight(3)
	if width > 20 {
		desc.SetWidth(width - 12)
	}
	desc.ShowLineNumbers = false
	return &editModel{
		field:       fieldDescription,
		description: desc,
		startTime:   newTimeInput("09:00", ""),
		endTime:     newTimeInput("17:00", ""),
		startDate:   newTimeInput(dateLayout, ""),
		endDate:     newTimeInput(dateLayout, ""),
		contactAC:   autocomplete.New[api.Contact](2),
		projectAC:   autocomplete.New[store.Project](1),
		projects:    projects,
		loc:         loc,
	}
}

// advance moves to the next or previous field, committing the field being
// left: dropdowns close and a highlighted suggestion is taken over.
func (m *editModel) advance(forward bool) {
	m.leaveField()
	if forward {
		m.field = m.field.next()
	} else {
		m.field = m.field.prev()
	}
	m.enterField(m.field)
}

func (m *editModel) leaveField() {
	switch m.field {
	case fieldDescription:
		m.description.Blur()
	case fieldContact:
		if c := m.contactAC.SelectedItem(); c != nil {
			m.pickContact(*c)
		}
		m.contactAC.HideDropdown()
	case fieldProject:
		if p := m.projectAC.SelectedItem(); p != nil {
			m.pickProject(*p)
		}
		m.projectAC.HideDropdown()
	case fieldStartTime:
		m.startTime.Blur()
	case fieldEndTime:
		m.endTime.Blur()
	case fieldStartDate:
		m.startDate.Blur()
	case fieldEndDate:
		m.endDate.Blur()
	}
}

// enterField focuses f. Autocomplete fields start from a clean query:
// stale suggestions and leftover input are dropped, the committed
// selection stays.
func (m *editModel) enterField(f editField) {
	m.field = f
	switch f {
	case fieldContact:
		m.contactAC.ClearInput()
	case fieldProject:
		m.projectAC.ClearInput()
	}
	m.refocus()
}

func (m *editModel) refocus() {
	switch m.field {
	case fieldDescription:
		m.description.Focus()
	case fieldStartTime:
		m.startTime.Focus()
	case fieldEndTime:
		m.endTime.Focus()
	case fieldStartDate:
		m.startDate.Focus()
	case fieldEndDate:
		m.endDate.Focus()
	}
}

func (m *editModel) pickContact(c api.Contact) {
	m.contactID = c.ID
	m.contactName = c.DisplayName()
	m.contactAC.Input = m.contactName
	m.contactAC.MarkSearched()
	m.contactAC.HideDropdown()
}

func (m *editModel) pickProject(p store.Project) {
	m.projectID = p.ID
	m.projectName = p.Name
	m.projectAC.Input = p.Name
	m.projectAC.MarkSearched()
	m.projectAC.HideDropdown()
}

// handleKey applies one keypress to the active field. It returns a
// followup message (save, cancel) or nil, plus a command for bubbles
// component updates.
func (m *editModel) handleKey(key tea.KeyMsg) (*message, tea.Cmd) {
	switch key.String() {
	case "esc":
		// First esc closes an open dropdown; only a bare esc cancels.
		switch m.field {
		case fieldContact:
			if m.contactAC.Dropdown {
				m.contactAC.HideDropdown()
				return nil, nil
			}
		case fieldProject:
			if m.projectAC.Dropdown {
				m.projectAC.HideDropdown()
				return nil, nil
			}
		}
		var msg message = editCancelMsg{}
		return &msg, nil
	}

	switch m.field {
	case fieldDescription:
		return m.handleDescriptionKey(key)
	case fieldContact:
		_, next := m.handleAutocompleteKey(key, &m.contactAC, m.contactAC.Dropdown, func() bool {
			if c := m.contactAC.SelectedItem(); c != nil {
				m.pickContact(*c)
				return true
			}
			return false
		})
		if next {
			m.advance(true)
		}
		return nil, nil
	case fieldProject:
		mutated, next := m.handleAutocompleteKey(key, &m.projectAC, m.projectAC.Dropdown, func() bool {
			if p := m.projectAC.SelectedItem(); p != nil {
				m.pickProject(*p)
				return true
			}
			return false
		})
		// Only input changes re-run the local filter; navigation must not
		// reset the highlighted suggestion.
		if mutated && !m.projectAC.BelowThreshold() {
			m.filterProjects()
		}
		if next {
			m.advance(true)
		}
		return nil, nil
	default:
		return nil, m.handleInputKey(key)
	}
}

func (m *editModel) handleDescriptionKey(key tea.KeyMsg) (*message, tea.Cmd) {
	switch key.String() {
	case "enter":
		m.advance(true)
		return nil, nil
	case "shift+enter", "alt+enter":
		key = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'\n'}}
	case "ctrl+u":
		m.description.SetValue("")
		return nil, nil
	}
	var cmd tea.Cmd
	m.description, cmd = m.description.Update(key)
	return nil, cmd
}

// handleAutocompleteKey mutates an autocomplete state generically; pick
// commits the highlighted suggestion and reports whether one was taken.
// mutated is true when the key changed the input, next when the field
// should advance (enter with no dropdown or nothing highlighted).
// Up/Down only move the selection while the dropdown is visible.
func (m *editModel) handleAutocompleteKey(key tea.KeyMsg, ac interface {
	AddChar(rune)
	RemoveChar()
	RecordKeypress(time.Time)
	SelectNext()
	SelectPrevious()
}, dropdown bool, pick func() bool) (mutated, next bool) {
	now := time.Now()
	switch key.String() {
	case "up":
		if dropdown {
			ac.SelectPrevious()
		}
	case "down":
		if dropdown {
			ac.SelectNext()
		}
	case "enter":
		if !dropdown || !pick() {
			next = true
		}
	case "backspace":
		ac.RemoveChar()
		ac.RecordKeypress(now)
		mutated = true
	case "ctrl+u":
		switch m.field {
		case fieldContact:
			m.contactAC.ClearInput()
			m.contactID, m.contactName = "", ""
		case fieldProject:
			m.projectAC.ClearInput()
			m.projectID, m.projectName = "", ""
		}
		mutated = true
	default:
		if key.Type == tea.KeyRunes || key.Type == tea.KeySpace {
			for _, r := range keyRunes(key) {
				ac.AddChar(r)
			}
			ac.RecordKeypress(now)
			mutated = true
		}
	}
	return mutated, next
}

func keyRunes(key tea.KeyMsg) []rune {
	if key.Type == tea.KeySpace {
		return []rune{' '}
	}
	return key.Runes
}

func (m *editModel) handleInputKey(key tea.KeyMsg) tea.Cmd {
	if key.String() == "ctrl+u" {
		m.activeInput().SetValue("")
		return nil
	}
	var cmd tea.Cmd
	switch m.field {
	case fieldStartTime:
		m.startTime, cmd = m.startTime.Update(key)
	case fieldEndTime:
		m.endTime, cmd = m.endTime.Update(key)
	case fieldStartDate:
		m.startDate, cmd = m.startDate.Update(key)
	case fieldEndDate:
		m.endDate, cmd = m.endDate.Update(key)
	}
	return cmd
}

func (m *editModel) activeInput() *textinput.Model {
	switch m.field {
	case fieldStartTime:
		return &m.startTime
	case fieldEndTime:
		return &m.endTime
	case fieldStartDate:
		return &m.startDate
	case fieldEndDate:
		return &m.endDate
	}
	return &m.startTime
}

// filterProjects feeds the project dropdown from the cached snapshot.
func (m *editModel) filterProjects() {
	q := strings.ToLower(m.projectAC.Input)
	var matched []store.Project
	for _, p := range m.projects {
		if strings.Contains(strings.ToLower(p.Name), q) {
			matched = append(matched, p)
		}
	}
	m.projectAC.UpdateItems(matched)
	m.projectAC.MarkSearched()
}

// tick drives the idle debounce. It returns the contact query to run
// remotely, or "" when nothing fired this tick.
func (m *editModel) tick(now time.Time) string {
	if m.field == fieldContact {
		if m.contactAC.BelowThreshold() {
			m.contactAC.UpdateItems(nil)
		} else if m.contactAC.Ready(now) {
			m.contactAC.MarkSearched()
			m.contactAC.Loading = true
			return m.contactAC.Input
		}
	}
	if m.field == fieldProject && m.projectAC.BelowThreshold() {
		m.projectAC.UpdateItems(nil)
	}
	return ""
}

// contactsFound delivers remote search results, ignoring stale responses
// for inputs the user has since changed.
func (m *editModel) contactsFound(query string, contacts []api.Contact) {
	m.contactAC.Loading = false
	if query != m.contactAC.Input {
		return
	}
	m.contactAC.UpdateItems(contacts)
}

// params validates the form and builds the remote payload. Wall-clock
// date and time are interpreted in the administration's zone.
func (m *editModel) params(userID string) (api.TimeEntryParams, error) {
	desc := strings.TrimSpace(m.description.Value())
	if desc == "" {
		return api.TimeEntryParams{}, fmt.Errorf("description is required")
	}
	start, err := combineWall(m.startDate.Value(), m.startTime.Value(), m.loc)
	if err != nil {
		return api.TimeEntryParams{}, fmt.Errorf("start: %w", err)
	}
	end, err := combineWall(m.endDate.Value(), m.endTime.Value(), m.loc)
	if err != nil {
		return api.TimeEntryParams{}, fmt.Errorf("end: %w", err)
	}
	if !end.After(start) {
		return api.TimeEntryParams{}, fmt.Errorf("end must be after start")
	}
	return api.TimeEntryParams{
		Description: desc,
		ContactID:   m.contactID,
		ProjectID:   m.projectID,
		UserID:      userID,
		StartedAt:   start.Format(time.RFC3339),
		EndedAt:     end.Format(time.RFC3339),
		Billable:    true,
	}, nil
}

func (m *editModel) view(width int) string {
	title := "New time entry"
	if !m.creating {
		title = "Edit time entry"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.fieldLabel(fieldDescription))
	b.WriteString("\n")
	b.WriteString(m.description.View())
	b.WriteString("\n\n")

	b.WriteString(m.renderAutocomplete(fieldContact, m.contactAC.Input, m.contactName, m.contactAC.Loading,
		m.contactAC.Dropdown, contactLabels(m.contactAC.Items), m.contactAC.Selected))
	b.WriteString(m.renderAutocomplete(fieldProject, m.projectAC.Input, m.projectName, false,
		m.projectAC.Dropdown, projectLabels(m.projectAC.Items), m.projectAC.Selected))

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		m.fieldLabel(fieldStartTime)+" "+m.startTime.View(),
		"  ",
		m.fieldLabel(fieldEndTime)+" "+m.endTime.View(),
	)
	b.WriteString(row)
	b.WriteString("\n")
	row = lipgloss.JoinHorizontal(lipgloss.Top,
		m.fieldLabel(fieldStartDate)+" "+m.startDate.View(),
		"  ",
		m.fieldLabel(fieldEndDate)+" "+m.endDate.View(),
	)
	b.WriteString(row)
	b.WriteString("\n")

	if m.formErr != "" {
		b.WriteString("\n" + errorStyle.Render(m.formErr) + "\n")
	}
	if m.saving {
		b.WriteString("\n" + mutedStyle.Render("Saving...") + "\n")
	}
	b.WriteString("\n" + footerStyle.Render("tab next field · ctrl+s save · esc cancel"))

	style := activePanelStyle
	if width > 4 {
		style = style.Width(width - 4)
	}
	return style.Render(b.String())
}

func (m *editModel) fieldLabel(f editField) string {
	label := f.label() + ":"
	if m.field == f {
		return highlightStyle.Render("> " + label)
	}
	return mutedStyle.Render("  " + label)
}

func (m *editModel) renderAutocomplete(f editField, input, committed string, loading, dropdown bool, items []string, selected int) string {
	var b strings.Builder
	b.WriteString(m.fieldLabel(f))
	b.WriteString(" ")
	switch {
	case m.field == f:
		b.WriteString(input + highlightStyle.Render("▎"))
		if committed != "" {
			b.WriteString(mutedStyle.Render("  (" + committed + ")"))
		}
	case committed != "":
		b.WriteString(committed)
	default:
		b.WriteString(input)
	}
	if loading {
		b.WriteString(mutedStyle.Render(" searching..."))
	}
	b.WriteString("\n")
	if dropdown && m.field == f {
		for i, item := range items {
			if i == selected {
				b.WriteString(selectedItemStyle.Render("  ▸ " + item))
			} else {
				b.WriteString(mutedStyle.Render("    " + item))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func contactLabels(items []api.Contact) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.DisplayName()
	}
	return out
}

func projectLabels(items []store.Project) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Name
	}
	return out
}
