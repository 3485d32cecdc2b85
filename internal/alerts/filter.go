// Package alerts turns raw API events into the alert list for a location
package alerts

import (
	"time"

	"github.com/ngmaloney/weather-alert/internal/geo"
	"github.com/ngmaloney/weather-alert/internal/models"
)

// InRange keeps events whose geometry matches the geofence and drops
// repeats within the batch. The first occurrence of a key wins and API
// order is preserved.
func InRange(center models.Coordinate, events []models.Event, radiusKm float64) []models.Event {
	seen := make(map[models.AlertKey]struct{}, len(events))
	out := make([]models.Event, 0, len(events))

	for _, e := range events {
		if !geo.MatchGeometry(center, e.EventValues.Location, radiusKm) {
			continue
		}
		key := models.KeyOf(e)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Filter applies InRange and converts the survivors to AlertItems
func Filter(center models.Coordinate, events []models.Event, radiusKm float64, now time.Time) []models.AlertItem {
	kept := InRange(center, events, radiusKm)
	items := make([]models.AlertItem, len(kept))
	for i, e := range kept {
		items[i] = models.AlertFromEvent(e, now)
	}
	return items
}
