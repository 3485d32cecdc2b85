package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/ngmaloney/weather-alert/internal/models"
)

// locationItem wraps a saved Location for use in a list
type locationItem struct {
	loc models.Location
}

// FilterValue implements list.Item
func (l locationItem) FilterValue() string {
	return l.loc.CityName + " " + l.loc.Country
}

// Title implements list.DefaultItem
func (l locationItem) Title() string {
	return l.loc.DisplayName()
}

// Description implements list.DefaultItem
func (l locationItem) Description() string {
	return l.loc.FormattedLocation()
}

func savedItems(locs []models.Location) []list.Item {
	items := make([]list.Item, len(locs))
	for i, loc := range locs {
		items[i] = locationItem{loc: loc}
	}
	return items
}

// newSavedList creates the saved locations list. Quitting is handled by
// the model so Esc only closes the list.
func newSavedList(locs []models.Location, width, height int) list.Model {
	l := list.New(savedItems(locs), list.NewDefaultDelegate(), width, height)
	l.Title = "Saved Locations"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	return l
}
