package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/weather-alert/internal/models"
)

// getAlertStyle returns the appropriate style for an alert severity
func getAlertStyle(severity models.AlertSeverity) lipgloss.Style {
	switch severity {
	case models.SeverityExtreme:
		return alertExtremeStyle
	case models.SeveritySevere:
		return alertSevereStyle
	case models.SeverityModerate:
		return alertModerateStyle
	case models.SeverityMinor:
		return alertMinorStyle
	default:
		return valueStyle
	}
}

// updateAlerts handles keyboard input on the alerts screen
func (m Model) updateAlerts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		if m.snapshot == nil || m.loadingAlerts {
			return m, nil
		}
		m.loadingAlerts = true
		return m, fetchAlerts(m.deps.Alerts, m.snapshot.Location.Coordinate(), m.deps.RadiusKm, true)
	case "up", "k":
		if m.alertCursor > 0 {
			m.alertCursor--
		}
	case "down", "j":
		if m.alertCursor < len(m.alerts)-1 {
			m.alertCursor++
		}
	}
	return m, nil
}

// viewAlerts renders the alert list for the current location
func (m Model) viewAlerts() string {
	if m.snapshot == nil {
		return mutedStyle.Render("Search for a location on the Home screen first.")
	}

	header := sectionHeaderStyle.Render(fmt.Sprintf("⚠️  ALERTS WITHIN %.0f KM OF %s",
		m.deps.RadiusKm, strings.ToUpper(m.snapshot.Location.DisplayName())))
	sections := []string{header, ""}

	switch {
	case m.loadingAlerts:
		sections = append(sections, fmt.Sprintf("%s Fetching alerts...", m.spinner.View()))
	case len(m.alerts) == 0:
		msg := m.alertsMessage
		if msg == "" {
			msg = "No active alerts"
		}
		sections = append(sections, successStyle.Render("✓ "+msg))
	default:
		sections = append(sections, renderAlerts(m.alerts, m.alertCursor))
		if m.alertsFromCache {
			sections = append(sections, mutedStyle.Render("Cached result. Press R to refresh."))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderAlerts lists alerts, expanding the one under the cursor
func renderAlerts(items []models.AlertItem, cursor int) string {
	var lines []string
	for i, a := range items {
		marker := "  "
		if i == cursor {
			marker = cursorStyle.Render("▸ ")
		}
		lines = append(lines, marker+getAlertStyle(a.Severity).Render("⚠  "+a.Event))

		meta := fmt.Sprintf("%s • %s – %s",
			a.SenderName,
			a.StartTime().Local().Format("Jan 2, 3:04 PM"),
			a.EndTime().Local().Format("Jan 2, 3:04 PM"))
		if a.Distance != nil {
			meta += fmt.Sprintf(" • %.1f km away", *a.Distance)
		}
		lines = append(lines, "     "+mutedStyle.Render(meta))

		if len(a.Tags) > 0 {
			lines = append(lines, "     "+labelStyle.Render(strings.Join(a.Tags, " · ")))
		}

		if i == cursor {
			if a.Description != "" {
				lines = append(lines, "", indent(a.Description, "     "))
			}
			if a.Instruction != "" {
				lines = append(lines, "", "     "+labelStyle.Render("What to do:"), indent(a.Instruction, "     "))
			}
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func indent(s, prefix string) string {
	parts := strings.Split(strings.TrimSpace(s), "\n")
	for i, p := range parts {
		parts[i] = prefix + p
	}
	return strings.Join(parts, "\n")
}
