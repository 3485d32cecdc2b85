package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/weather-alert/internal/alerts"
	"github.com/ngmaloney/weather-alert/internal/checker"
	"github.com/ngmaloney/weather-alert/internal/locations"
	"github.com/ngmaloney/weather-alert/internal/models"
)

// Message types for async operations

// snapshotMsg is sent when a location and its conditions have loaded
type snapshotMsg struct {
	snap *locations.Snapshot
	err  error
}

// savedLocationsMsg carries the saved location list
type savedLocationsMsg struct {
	locations []models.Location
	err       error
}

// locationSavedMsg is sent after ctrl+s
type locationSavedMsg struct {
	location models.Location
	err      error
}

// locationDeletedMsg is sent after a saved location is removed
type locationDeletedMsg struct {
	err error
}

// alertsFetchedMsg carries the alert list for the current location
type alertsFetchedMsg struct {
	coord  models.Coordinate
	result alerts.Result
}

// preferencesMsg carries preferences after a load or change
type preferencesMsg struct {
	prefs models.Preferences
	err   error
}

// checkerStatusMsg carries the background checker state
type checkerStatusMsg struct {
	state checker.RunState
	err   error
}

const (
	lookupTimeout = 15 * time.Second
	fetchTimeout  = 30 * time.Second
)

func loadCurrent(svc LocationService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		snap, err := svc.Current(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func searchLocation(svc LocationService, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		snap, err := svc.Search(ctx, query)
		return snapshotMsg{snap: snap, err: err}
	}
}

func refreshLocation(svc LocationService, c models.Coordinate) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		snap, err := svc.Refresh(ctx, c)
		return snapshotMsg{snap: snap, err: err}
	}
}

func loadSaved(svc LocationService) tea.Cmd {
	return func() tea.Msg {
		locs, err := svc.List()
		return savedLocationsMsg{locations: locs, err: err}
	}
}

func saveLocation(svc LocationService, loc models.Location) tea.Cmd {
	return func() tea.Msg {
		saved, err := svc.Save(loc)
		return locationSavedMsg{location: saved, err: err}
	}
}

func deleteLocation(svc LocationService, id int64) tea.Cmd {
	return func() tea.Msg {
		return locationDeletedMsg{err: svc.Delete(id)}
	}
}

func fetchAlerts(svc AlertService, c models.Coordinate, radiusKm float64, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		res := svc.Fetch(ctx, alerts.Request{Coordinate: c, RadiusKm: radiusKm, Force: force})
		return alertsFetchedMsg{coord: c, result: res}
	}
}

func loadPreferences(store PreferenceStore) tea.Cmd {
	return func() tea.Msg {
		p, err := store.Get()
		return preferencesMsg{prefs: p, err: err}
	}
}

func changePreferences(change func() (models.Preferences, error)) tea.Cmd {
	return func() tea.Msg {
		p, err := change()
		return preferencesMsg{prefs: p, err: err}
	}
}

func loadStatus(src StatusSource) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		st, err := src.Status()
		return checkerStatusMsg{state: st, err: err}
	}
}
