package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/weather-alert/internal/alerts"
	"github.com/ngmaloney/weather-alert/internal/locations"
)

var errNothingToSave = errors.New("No location to save")

// updateHome handles keyboard input on the home screen
func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showSaved {
		return m.updateSaved(msg)
	}

	var cmd tea.Cmd
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.searchInput.Value())
		if query == "" {
			return m, nil
		}
		m.loading = true
		return m, searchLocation(m.deps.Locations, query)

	case "ctrl+s":
		if m.snapshot == nil {
			m.err = errNothingToSave
			return m, nil
		}
		return m, saveLocation(m.deps.Locations, m.snapshot.Location)

	case "ctrl+l":
		m.showSaved = true
		m.searchInput.Blur()
		return m, loadSaved(m.deps.Locations)

	case "ctrl+r":
		if m.snapshot == nil {
			return m, nil
		}
		m.loading = true
		return m, refreshLocation(m.deps.Locations, m.snapshot.Location.Coordinate())
	}

	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// updateSaved handles keyboard input while the saved list is open
func (m Model) updateSaved(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "esc", "ctrl+l":
		m.showSaved = false
		m.searchInput.Focus()
		return m, textinput.Blink

	case "enter":
		item, ok := m.savedList.SelectedItem().(locationItem)
		if !ok {
			return m, nil
		}
		m.showSaved = false
		m.loading = true
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		return m, refreshLocation(m.deps.Locations, item.loc.Coordinate())

	case "d", "delete":
		item, ok := m.savedList.SelectedItem().(locationItem)
		if !ok {
			return m, nil
		}
		return m, deleteLocation(m.deps.Locations, item.loc.ID)
	}

	m.savedList, cmd = m.savedList.Update(msg)
	return m, cmd
}

// viewHome renders the search box, the current location and its conditions
func (m Model) viewHome() string {
	sections := []string{searchBoxStyle.Render(m.searchInput.View())}

	if m.loading {
		sections = append(sections, "", fmt.Sprintf("%s Loading...", m.spinner.View()))
	}

	if m.showSaved {
		if len(m.saved) == 0 {
			sections = append(sections, "", mutedStyle.Render("No saved locations yet. Press Esc, search, then Ctrl+S."))
		} else {
			sections = append(sections, "", m.savedList.View())
		}
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.snapshot == nil {
		sections = append(sections, "", mutedStyle.Render("Search for a location to see conditions and alerts."))
	} else {
		sections = append(sections, "", sectionBoxStyle.Render(renderSnapshot(m.snapshot)))
		sections = append(sections, m.alertSummary())
	}

	if line := m.statusLine(); line != "" {
		sections = append(sections, "", mutedStyle.Render(line))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderSnapshot renders the location heading and current conditions
func renderSnapshot(snap *locations.Snapshot) string {
	lines := []string{
		titleStyle.Render("📍 " + snap.Location.DisplayName()),
		mutedStyle.Render(snap.Location.FormattedLocation()),
		"",
	}

	switch {
	case snap.WeatherErr != nil:
		lines = append(lines, errorStyle.Render(alerts.FailureMessage(snap.WeatherErr)))
	case snap.Conditions == nil:
		lines = append(lines, mutedStyle.Render("No weather data available"))
	default:
		c := snap.Conditions
		lines = append(lines,
			valueStyle.Bold(true).Render(c.Description()),
			fmt.Sprintf("%s %.1f°C", labelStyle.Render("Temperature:"), c.Temperature),
			fmt.Sprintf("%s %.0f%%", labelStyle.Render("Humidity:"), c.Humidity),
			fmt.Sprintf("%s %.1f m/s", labelStyle.Render("Wind:"), c.WindSpeed),
			fmt.Sprintf("%s %.0f hPa", labelStyle.Render("Pressure:"), c.Pressure),
			fmt.Sprintf("%s %.0f%%", labelStyle.Render("Precipitation:"), c.PrecipitationProbability),
		)
	}
	return strings.Join(lines, "\n")
}

func (m Model) alertSummary() string {
	switch {
	case m.loadingAlerts:
		return mutedStyle.Render("Checking for alerts...")
	case len(m.alerts) == 0:
		return successStyle.Render("✓ No active alerts nearby")
	case len(m.alerts) == 1:
		return alertSevereStyle.Render("⚠  1 active alert nearby (Tab to view)")
	default:
		return alertSevereStyle.Render(fmt.Sprintf("⚠  %d active alerts nearby (Tab to view)", len(m.alerts)))
	}
}

// statusLine summarises the background checker
func (m Model) statusLine() string {
	if m.status == nil || !m.status.Running() {
		return ""
	}
	st := m.status
	line := fmt.Sprintf("Background check: last %s (%s)", st.LastRun.Local().Format("3:04 PM"), st.LastOutcome)
	if !st.NextRun.IsZero() {
		line += ", next " + st.NextRun.Local().Format("3:04 PM")
	}
	return line
}
