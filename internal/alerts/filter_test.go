package alerts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/weather-alert/internal/geo"
	"github.com/ngmaloney/weather-alert/internal/models"
)

var nyc = models.Coordinate{Latitude: 40.7128, Longitude: -74.006}

func pointEvent(title, severity string, lon, lat float64) models.Event {
	coords, _ := json.Marshal([]float64{lon, lat})
	return models.Event{
		Insight:   "floods",
		StartTime: "2024-05-01T10:00:00Z",
		EndTime:   "2024-05-01T22:00:00Z",
		Severity:  severity,
		EventValues: models.EventValues{
			Title:    title,
			Location: &models.Geometry{Type: models.GeometryPoint, Coordinates: coords},
		},
	}
}

func TestInRange_DropsOutOfRange(t *testing.T) {
	events := []models.Event{
		pointEvent("Near", "Severe", -74.0, 40.8),
		pointEvent("Boston", "Severe", -71.0589, 42.3601),
		{EventValues: models.EventValues{Title: "No geometry"}},
	}

	got := InRange(nyc, events, geo.DefaultRadiusKm)
	require.Len(t, got, 1)
	assert.Equal(t, "Near", got[0].EventValues.Title)
}

func TestInRange_DeduplicatesFirstWins(t *testing.T) {
	first := pointEvent("Flood Warning", "Severe", -74.0, 40.8)
	first.EventValues.Description = "first"
	dup := pointEvent("Flood Warning", "Severe", -74.0, 40.8)
	dup.EventValues.Description = "second"
	other := pointEvent("Flood Warning", "Moderate", -74.0, 40.8)

	got := InRange(nyc, []models.Event{first, dup, other}, geo.DefaultRadiusKm)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].EventValues.Description)
	assert.Equal(t, "Moderate", got[1].Severity)
}

func TestInRange_DuplicateOutOfRangeDoesNotShadow(t *testing.T) {
	// same key, but the first copy has no geometry and is dropped by range
	noGeom := pointEvent("Wind Advisory", "Moderate", 0, 0)
	noGeom.EventValues.Location = nil
	near := pointEvent("Wind Advisory", "Moderate", -74.0, 40.8)

	got := InRange(nyc, []models.Event{noGeom, near}, geo.DefaultRadiusKm)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].EventValues.Location)
}

func TestInRange_PreservesOrder(t *testing.T) {
	events := []models.Event{
		pointEvent("C", "Severe", -74.0, 40.8),
		pointEvent("A", "Severe", -74.0, 40.75),
		pointEvent("B", "Severe", -74.01, 40.7),
	}

	got := InRange(nyc, events, geo.DefaultRadiusKm)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{
		got[0].EventValues.Title, got[1].EventValues.Title, got[2].EventValues.Title,
	})
}

func TestFilter_ConvertsToAlertItems(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []models.Event{pointEvent("Flood Warning", "Severe", -74.0, 40.8)}

	got := Filter(nyc, events, geo.DefaultRadiusKm, now)
	require.Len(t, got, 1)
	assert.Equal(t, "Flood Warning", got[0].Event)
	assert.Equal(t, models.DefaultSender, got[0].SenderName)
	assert.Equal(t, models.SeveritySevere, got[0].Severity)
}

func TestFilter_Empty(t *testing.T) {
	assert.Empty(t, Filter(nyc, nil, geo.DefaultRadiusKm, time.Now()))
}
