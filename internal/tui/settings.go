package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tempo/internal/config"
)

// settingsModel shows the current configuration and edits it through a
// form. Completing the form writes the config file; the administration
// and user ids are picked at startup and shown read-only here.
type settingsModel struct {
	cfg *config.Config

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	baseURL    *string
	token      *string
	pluginsDir *string
	debug      *bool
}

func newSettingsModel(cfg *config.Config) settingsModel {
	u, t, p := "", "", ""
	d := false
	return settingsModel{
		cfg:        cfg,
		baseURL:    &u,
		token:      &t,
		pluginsDir: &p,
		debug:      &d,
	}
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.baseURL = s.cfg.APIBaseURL
	*s.token = s.cfg.APIToken
	*s.pluginsDir = s.cfg.PluginsDir
	*s.debug = s.cfg.Debug

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("API base URL").Value(s.baseURL),
			huh.NewInput().Title("API token").EchoMode(huh.EchoModePassword).Value(s.token),
			huh.NewInput().Title("Plugins directory").Value(s.pluginsDir),
			huh.NewConfirm().Title("Debug logging").Value(s.debug),
		).Title("Connection"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

// update feeds one message to the active form. saved reports that the
// form just completed and the config struct now holds the new values.
func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd, bool) {
	if !s.formActive || s.form == nil {
		return s, nil, false
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil, false
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.cfg.APIBaseURL = strings.TrimSpace(*s.baseURL)
		s.cfg.APIToken = strings.TrimSpace(*s.token)
		s.cfg.PluginsDir = strings.TrimSpace(*s.pluginsDir)
		s.cfg.Debug = *s.debug
		s.form = nil
		return s, cmd, true
	}
	return s, cmd, false
}

func (s settingsModel) view(width int) string {
	w := width - 4
	if w < 30 {
		w = 30
	}

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(s.form.View())
	}

	mask := func(v string) string {
		if v == "" {
			return mutedStyle.Render("(not set)")
		}
		if len(v) <= 8 {
			return strings.Repeat("*", len(v))
		}
		return v[:4] + strings.Repeat("*", 8)
	}
	val := func(v string) string {
		if v == "" {
			return mutedStyle.Render("(not set)")
		}
		return v
	}

	rows := []string{
		titleStyle.Render("Settings"),
		"",
		fmt.Sprintf("  %-18s %s", "API base URL", val(s.cfg.APIBaseURL)),
		fmt.Sprintf("  %-18s %s", "API token", mask(s.cfg.APIToken)),
		fmt.Sprintf("  %-18s %s", "Administration", val(s.cfg.AdministrationID)),
		fmt.Sprintf("  %-18s %s", "Time zone", val(s.cfg.AdministrationTZ)),
		fmt.Sprintf("  %-18s %s", "User", val(s.cfg.UserID)),
		fmt.Sprintf("  %-18s %s", "Plugins directory", val(s.cfg.PluginsDir)),
		fmt.Sprintf("  %-18s %v", "Debug logging", s.cfg.Debug),
		"",
		mutedStyle.Render("  enter: edit  (administration and user are chosen at startup)"),
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
