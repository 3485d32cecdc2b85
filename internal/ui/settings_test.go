package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/weather-alert/internal/models"
)

func openSettings(m Model) Model {
	for m.screen != ScreenSettings {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	}
	return m
}

func TestSettings_ToggleHazard(t *testing.T) {
	m, _, _, prefs := newTestModel()
	m = openSettings(m)

	// Second row is wind
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = run(m, cmd)

	if prefs.prefs.Wind {
		t.Error("wind should be disabled in the store")
	}
	if m.prefs.Wind {
		t.Error("wind should be disabled in the model")
	}
	if !m.prefs.Fires {
		t.Error("other hazards should be untouched")
	}
}

func TestSettings_ToggleNotifications(t *testing.T) {
	m, _, _, prefs := newTestModel()
	m = openSettings(m)

	for i := 0; i < len(models.Hazards); i++ {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(m, cmd)

	if prefs.prefs.NotificationsEnabled {
		t.Error("notifications should be off")
	}
	if !strings.Contains(m.View(), "Background checks will not raise any alerts.") {
		t.Error("settings should explain that notifications are off")
	}
}

func TestSettings_CycleTheme(t *testing.T) {
	m, _, _, prefs := newTestModel()
	m = openSettings(m)

	for i := 0; i < settingsItemCount+5; i++ {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.settingsCursor != settingsItemCount-1 {
		t.Fatalf("cursor = %d, want last row", m.settingsCursor)
	}

	want := []models.ThemeMode{models.ThemeLight, models.ThemeDark, models.ThemeSystem}
	for _, w := range want {
		var cmd tea.Cmd
		m, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
		m = run(m, cmd)
		if prefs.prefs.ThemeMode != w {
			t.Errorf("theme = %v, want %v", prefs.prefs.ThemeMode, w)
		}
	}
}

func TestSettings_View(t *testing.T) {
	m, _, _, _ := newTestModel()
	m = openSettings(m)

	view := m.View()
	for _, h := range models.Hazards {
		if !strings.Contains(view, h.Label()) {
			t.Errorf("settings view missing %q", h.Label())
		}
	}
	if !strings.Contains(view, "Theme: System") {
		t.Error("settings view should show the theme")
	}
}

func TestSettings_QQuits(t *testing.T) {
	m, _, _, _ := newTestModel()
	m = openSettings(m)

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit on the settings screen")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit on the settings screen")
	}
}
