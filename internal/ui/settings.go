package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/weather-alert/internal/models"
)

// settingsItemCount is every hazard plus the notifications and theme rows
var settingsItemCount = len(models.Hazards) + 2

// updateSettings handles keyboard input on the settings screen. Changes
// are persisted immediately.
func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.settingsCursor > 0 {
			m.settingsCursor--
		}
	case "down", "j":
		if m.settingsCursor < settingsItemCount-1 {
			m.settingsCursor++
		}
	case "enter", " ":
		return m, m.toggleSetting()
	}
	return m, nil
}

func (m Model) toggleSetting() tea.Cmd {
	store := m.deps.Preferences
	i := m.settingsCursor

	switch {
	case i < len(models.Hazards):
		h := models.Hazards[i]
		on := !m.prefs.Enabled(h)
		return changePreferences(func() (models.Preferences, error) { return store.SetHazard(h, on) })
	case i == len(models.Hazards):
		on := !m.prefs.NotificationsEnabled
		return changePreferences(func() (models.Preferences, error) { return store.SetNotifications(on) })
	default:
		next := m.prefs.ThemeMode.Next()
		return changePreferences(func() (models.Preferences, error) { return store.SetTheme(next) })
	}
}

// viewSettings renders the hazard toggles, notifications and theme
func (m Model) viewSettings() string {
	var lines []string
	row := func(i int, text string) {
		marker := "  "
		if i == m.settingsCursor {
			marker = cursorStyle.Render("▸ ")
			text = valueStyle.Bold(true).Render(text)
		}
		lines = append(lines, marker+text)
	}

	lines = append(lines, sectionHeaderStyle.Render("ALERT TYPES"))
	for i, h := range models.Hazards {
		row(i, fmt.Sprintf("%s %s", checkbox(m.prefs.Enabled(h)), h.Label()))
	}

	lines = append(lines, sectionHeaderStyle.Render("NOTIFICATIONS"))
	row(len(models.Hazards), fmt.Sprintf("%s Send notifications for new alerts", checkbox(m.prefs.NotificationsEnabled)))
	if !m.prefs.NotificationsEnabled {
		lines = append(lines, "    "+mutedStyle.Render("Background checks will not raise any alerts."))
	}

	lines = append(lines, sectionHeaderStyle.Render("APPEARANCE"))
	row(len(models.Hazards)+1, fmt.Sprintf("Theme: %s", themeLabel(m.prefs.ThemeMode)))

	return strings.Join(lines, "\n")
}

func checkbox(on bool) string {
	if on {
		return successStyle.Render("[x]")
	}
	return mutedStyle.Render("[ ]")
}

func themeLabel(mode models.ThemeMode) string {
	switch mode {
	case models.ThemeLight:
		return "Light"
	case models.ThemeDark:
		return "Dark"
	default:
		return "System"
	}
}
