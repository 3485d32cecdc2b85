package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/weather-alert/internal/alerts"
	"github.com/ngmaloney/weather-alert/internal/checker"
	"github.com/ngmaloney/weather-alert/internal/geo"
	"github.com/ngmaloney/weather-alert/internal/locations"
	"github.com/ngmaloney/weather-alert/internal/models"
)

// Screen is one of the top-level views
type Screen int

const (
	ScreenHome Screen = iota
	ScreenAlerts
	ScreenSettings
	screenCount
)

func (s Screen) String() string {
	switch s {
	case ScreenHome:
		return "Home"
	case ScreenAlerts:
		return "Alerts"
	case ScreenSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

// LocationService is the location and conditions backend
type LocationService interface {
	Search(ctx context.Context, query string) (*locations.Snapshot, error)
	Refresh(ctx context.Context, c models.Coordinate) (*locations.Snapshot, error)
	Current(ctx context.Context) (*locations.Snapshot, error)
	Save(loc models.Location) (models.Location, error)
	List() ([]models.Location, error)
	Delete(id int64) error
}

// AlertService returns the alert list for a location
type AlertService interface {
	Fetch(ctx context.Context, req alerts.Request) alerts.Result
}

// PreferenceStore loads and updates user preferences
type PreferenceStore interface {
	Get() (models.Preferences, error)
	SetHazard(h models.Hazard, on bool) (models.Preferences, error)
	SetNotifications(on bool) (models.Preferences, error)
	SetTheme(mode models.ThemeMode) (models.Preferences, error)
}

// StatusSource reports background checker state
type StatusSource interface {
	Status() (checker.RunState, error)
}

// Deps are the services the UI drives. Status may be nil.
type Deps struct {
	Locations   LocationService
	Alerts      AlertService
	Preferences PreferenceStore
	Status      StatusSource
	RadiusKm    float64

	// InitialQuery, when set, is searched on start instead of restoring
	// the last location
	InitialQuery string
}

const statusRefresh = 30 * time.Second

type statusTickMsg struct{}

func statusTick() tea.Cmd {
	return tea.Tick(statusRefresh, func(time.Time) tea.Msg { return statusTickMsg{} })
}

// Model represents the application's state
type Model struct {
	deps   Deps
	screen Screen
	width  int
	height int
	err    error
	notice string

	// Home
	searchInput textinput.Model
	snapshot    *locations.Snapshot
	loading     bool
	showSaved   bool
	saved       []models.Location
	savedList   list.Model

	// Alerts
	alerts          []models.AlertItem
	alertsMessage   string
	alertsFromCache bool
	loadingAlerts   bool
	alertCursor     int

	// Settings
	prefs          models.Preferences
	settingsCursor int

	status  *checker.RunState
	spinner spinner.Model
}

// NewModel creates a new application model
func NewModel(deps Deps) Model {
	if deps.RadiusKm <= 0 {
		deps.RadiusKm = geo.DefaultRadiusKm
	}

	ti := textinput.New()
	ti.Placeholder = "Search for a city (e.g. Boston, MA or Paris)..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti.SetValue(deps.InitialQuery)

	return Model{
		deps:        deps,
		screen:      ScreenHome,
		loading:     deps.InitialQuery != "",
		searchInput: ti,
		savedList:   newSavedList(nil, 60, 12),
		prefs:       models.DefaultPreferences(),
		spinner:     s,
	}
}

// Init loads the last location, saved locations, preferences and checker status
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.spinner.Tick,
		loadSaved(m.deps.Locations),
		loadPreferences(m.deps.Preferences),
	}
	if m.deps.InitialQuery != "" {
		cmds = append(cmds, searchLocation(m.deps.Locations, m.deps.InitialQuery))
	} else {
		cmds = append(cmds, loadCurrent(m.deps.Locations))
	}
	if m.deps.Status != nil {
		cmds = append(cmds, loadStatus(m.deps.Status), statusTick())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.savedList.SetSize(msg.Width-4, msg.Height-14)
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if msg.snap == nil {
			return m, nil
		}
		m.snapshot = msg.snap
		m.alerts = nil
		m.alertsMessage = ""
		m.alertCursor = 0
		m.loadingAlerts = true
		return m, fetchAlerts(m.deps.Alerts, msg.snap.Location.Coordinate(), m.deps.RadiusKm, false)

	case alertsFetchedMsg:
		if m.snapshot == nil || msg.coord != m.snapshot.Location.Coordinate() {
			return m, nil
		}
		m.loadingAlerts = false
		m.alerts = msg.result.Alerts
		m.alertsMessage = msg.result.Message
		m.alertsFromCache = msg.result.FromCache
		if m.alertCursor >= len(m.alerts) {
			m.alertCursor = 0
		}
		return m, nil

	case savedLocationsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.saved = msg.locations
		m.savedList.SetItems(savedItems(msg.locations))
		return m, nil

	case locationSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.notice = "Saved " + msg.location.DisplayName()
		return m, loadSaved(m.deps.Locations)

	case locationDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.notice = "Location deleted"
		return m, loadSaved(m.deps.Locations)

	case preferencesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.prefs = msg.prefs
		applyTheme(m.prefs.ThemeMode)
		return m, nil

	case checkerStatusMsg:
		if msg.err == nil {
			st := msg.state
			m.status = &st
		}
		return m, nil

	case statusTickMsg:
		return m, tea.Batch(loadStatus(m.deps.Status), statusTick())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.screen == ScreenHome && !m.showSaved {
		m.searchInput, cmd = m.searchInput.Update(msg)
	}
	return m, cmd
}

// handleKey handles global keys then defers to the active screen
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m.switchScreen((m.screen + 1) % screenCount)
	case "shift+tab":
		return m.switchScreen((m.screen + screenCount - 1) % screenCount)
	}

	// Clear inline messages on the next keypress
	m.err = nil
	m.notice = ""

	switch m.screen {
	case ScreenAlerts:
		return m.updateAlerts(msg)
	case ScreenSettings:
		return m.updateSettings(msg)
	default:
		return m.updateHome(msg)
	}
}

func (m Model) switchScreen(s Screen) (tea.Model, tea.Cmd) {
	m.screen = s
	m.err = nil
	m.notice = ""
	if s == ScreenHome && !m.showSaved {
		m.searchInput.Focus()
		return m, textinput.Blink
	}
	m.searchInput.Blur()
	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var body string
	switch m.screen {
	case ScreenAlerts:
		body = m.viewAlerts()
	case ScreenSettings:
		body = m.viewSettings()
	default:
		body = m.viewHome()
	}

	sections := []string{
		titleStyle.Render("⛈  Weather Alert"),
		m.viewTabs(),
		"",
		body,
	}
	if m.err != nil {
		sections = append(sections, "", errorStyle.Render("✗ "+m.err.Error()))
	}
	if m.notice != "" {
		sections = append(sections, "", successStyle.Render("✓ "+m.notice))
	}
	sections = append(sections, helpStyle.Render(m.help()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewTabs() string {
	tabs := make([]string, 0, screenCount)
	for s := ScreenHome; s < screenCount; s++ {
		style := tabStyle
		if s == m.screen {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(s.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) help() string {
	switch {
	case m.screen == ScreenAlerts:
		return "↑/↓: Navigate • R: Refresh • Tab: Next screen • Q: Quit"
	case m.screen == ScreenSettings:
		return "↑/↓: Navigate • Enter/Space: Toggle • Tab: Next screen • Q: Quit"
	case m.showSaved:
		return "↑/↓: Navigate • Enter: Select • D: Delete • Esc: Back • Q: Quit"
	default:
		return "Enter: Search • Ctrl+S: Save • Ctrl+L: Saved • Ctrl+R: Refresh • Tab: Next screen • Ctrl+C: Quit"
	}
}
