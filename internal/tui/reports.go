package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tempo/internal/store"
)

// reportsModel renders the hours-per-day chart and per-project summary
// for the loaded week. It is rebuilt from the entry list on every
// refresh; week navigation keys work here the same as in the list.
type reportsModel struct {
	entries   []store.Entry
	weekStart time.Time
	loc       *time.Location
}

var chartPalette = []lipgloss.Color{
	colorPrimary, colorAccent, colorSuccess, colorWarning, colorHighlight,
	lipgloss.Color("#BB9AF7"), lipgloss.Color("#7DCFFF"),
}

func newReportsModel(entries []store.Entry, weekStart time.Time, loc *time.Location) reportsModel {
	return reportsModel{entries: entries, weekStart: weekStart, loc: loc}
}

// projectNames returns the distinct project names in first-seen order;
// entries without a project group under "(none)".
func (r reportsModel) projectNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range r.entries {
		name := e.ProjectName
		if name == "" {
			name = "(none)"
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func projectStyle(names []string, name string) lipgloss.Style {
	for i, n := range names {
		if n == name {
			return lipgloss.NewStyle().Foreground(chartPalette[i%len(chartPalette)])
		}
	}
	return lipgloss.NewStyle().Foreground(colorSubtle)
}

func (r reportsModel) buildChart(width, height int) barchart.Model {
	chartWidth := width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if height > 30 {
		chartHeight = 16
	}

	chart := barchart.New(chartWidth, chartHeight)
	names := r.projectNames()

	// hours per project per day, keyed by day index into the week
	perDay := make(map[int]map[string]float64)
	for _, e := range r.entries {
		day := int(e.StartedAt.In(r.loc).Sub(r.weekStart).Hours() / 24)
		if day < 0 || day > 6 {
			continue
		}
		if perDay[day] == nil {
			perDay[day] = make(map[string]float64)
		}
		name := e.ProjectName
		if name == "" {
			name = "(none)"
		}
		perDay[day][name] += e.Duration().Hours()
	}

	var bars []barchart.BarData
	for day := 0; day < 7; day++ {
		label := r.weekStart.AddDate(0, 0, day).Format("Mon 02")

		var values []barchart.BarValue
		for _, name := range names {
			hours, ok := perDay[day][name]
			if !ok {
				continue
			}
			values = append(values, barchart.BarValue{
				Name:  name,
				Value: hours,
				Style: projectStyle(names, name),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	chart.PushAll(bars)
	chart.Draw()
	return chart
}

func (r reportsModel) view(width, height int) string {
	w := width - 4
	if w < 30 {
		w = 30
	}

	weekEnd := r.weekStart.AddDate(0, 0, 6)
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s",
		r.weekStart.Format("Jan 02"), weekEnd.Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", dateLabel,
	)

	chartView := r.buildChart(width, height).View()
	legend := r.renderLegend()
	tableView := r.renderSummaryTable(w)
	nav := mutedStyle.Render("  ←/→: change week  t: this week")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", legend, "", tableView, "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.entries) == 0 {
		return mutedStyle.Render("  No entries this week")
	}

	stable := r.projectNames()
	totals := make(map[string]time.Duration)
	counts := make(map[string]int)
	var week time.Duration
	for _, e := range r.entries {
		name := e.ProjectName
		if name == "" {
			name = "(none)"
		}
		totals[name] += e.Duration()
		counts[name]++
		week += e.Duration()
	}
	names := append([]string(nil), stable...)
	sort.SliceStable(names, func(i, j int) bool {
		return totals[names[i]] > totals[names[j]]
	})

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %10s %8s", "Project", "Duration", "Entries")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 46))))
	for _, name := range names {
		dot := projectStyle(stable, name).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-22s %10s %8d",
			dot, truncate(name, 22), formatDuration(totals[name]), counts[name]))
	}
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 46))))
	rows = append(rows, fmt.Sprintf("  %-24s %10s %8d", "Total", formatDuration(week), len(r.entries)))

	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	names := r.projectNames()
	var items []string
	for _, name := range names {
		dot := projectStyle(names, name).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, name))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
