package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/ngmaloney/weather-alert/internal/models"
)

var (
	nyc    = models.Coordinate{Latitude: 40.7128, Longitude: -74.0060}
	london = models.Coordinate{Latitude: 51.5074, Longitude: -0.1278}
	paris  = models.Coordinate{Latitude: 48.8566, Longitude: 2.3522}
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Coordinate
		want float64
		tol  float64
	}{
		{"same point", nyc, nyc, 0, 1e-9},
		{"nyc to london", nyc, london, 5570, 10},
		{"london to paris", london, paris, 343.5, 2},
		{"one degree of latitude", models.Coordinate{}, models.Coordinate{Latitude: 1}, 111.19, 0.05},
		{"antipodes", models.Coordinate{}, models.Coordinate{Latitude: 0, Longitude: 180}, math.Pi * EarthRadiusKm, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("DistanceKm() = %v, want %v ± %v", got, tt.want, tt.tol)
			}
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	other := models.Coordinate{Latitude: 34.0522, Longitude: -118.2437}
	if d1, d2 := DistanceKm(nyc, other), DistanceKm(other, nyc); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("DistanceKm not symmetric: %v vs %v", d1, d2)
	}
}

func TestWithinRange(t *testing.T) {
	near := models.Coordinate{Latitude: 40.8, Longitude: -74.0}      // ~10km
	far := models.Coordinate{Latitude: 42.3601, Longitude: -71.0589} // Boston

	if !WithinRange(nyc, near, DefaultRadiusKm) {
		t.Error("WithinRange(nyc, near) = false, want true")
	}
	if WithinRange(nyc, far, DefaultRadiusKm) {
		t.Error("WithinRange(nyc, boston) = true, want false")
	}
	if !WithinRange(nyc, nyc, 0) {
		t.Error("WithinRange with zero radius should include the center itself")
	}
	if WithinRange(london, paris, DefaultRadiusKm) {
		t.Error("WithinRange(london, paris, 50) = true, want false")
	}
	if !WithinRange(london, paris, 350) {
		t.Error("WithinRange(london, paris, 350) = false, want true")
	}
}

func TestWithinRange_Boundary(t *testing.T) {
	d := DistanceKm(london, paris)
	if !WithinRange(london, paris, d) {
		t.Errorf("WithinRange at exactly %v km = false, want true", d)
	}
	if WithinRange(london, paris, d-0.001) {
		t.Error("WithinRange just inside the distance = true, want false")
	}
}

func TestPolygonInRange(t *testing.T) {
	tests := []struct {
		name  string
		rings [][][]float64
		want  bool
	}{
		{"empty", nil, false},
		{"vertex near", [][][]float64{{{-74.0, 40.8}, {-80, 30}, {-81, 31}}}, true},
		{"all vertices far", [][][]float64{{{-80, 30}, {-81, 31}, {-80, 31}}}, false},
		{"inner ring ignored", [][][]float64{{{-80, 30}, {-81, 31}}, {{-74.0, 40.8}}}, false},
		{"short vertex skipped", [][][]float64{{{-74.0}, {-74.0, 40.8}}}, true},
		// encloses nyc but every vertex is ~200km away
		{"large enclosing polygon", [][][]float64{{{-76.5, 38.9}, {-71.5, 38.9}, {-71.5, 42.5}, {-76.5, 42.5}, {-76.5, 38.9}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolygonInRange(nyc, tt.rings, DefaultRadiusKm); got != tt.want {
				t.Errorf("PolygonInRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchGeometry(t *testing.T) {
	geom := func(typ, coords string) *models.Geometry {
		return &models.Geometry{Type: typ, Coordinates: json.RawMessage(coords)}
	}

	tests := []struct {
		name string
		g    *models.Geometry
		want bool
	}{
		{"nil geometry", nil, false},
		{"near point", geom("Point", `[-74.0, 40.8]`), true},
		{"far point", geom("Point", `[-71.0589, 42.3601]`), false},
		{"point missing latitude", geom("Point", `[-74.0]`), false},
		{"malformed point", geom("Point", `{"x":1}`), false},
		{"near polygon", geom("Polygon", `[[[-74.0, 40.8], [-80, 30], [-81, 31]]]`), true},
		{"malformed polygon", geom("Polygon", `[1, 2, 3]`), false},
		{"multipolygon second matches", geom("MultiPolygon", `[[[[-80, 30], [-81, 31]]], [[[-74.0, 40.8], [-75, 41]]]]`), true},
		{"multipolygon none match", geom("MultiPolygon", `[[[[-80, 30], [-81, 31]]]]`), false},
		{"unsupported type", geom("LineString", `[[-74.0, 40.8], [-75, 41]]`), false},
		{"no coordinates", geom("Point", ``), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchGeometry(nyc, tt.g, DefaultRadiusKm); got != tt.want {
				t.Errorf("MatchGeometry() = %v, want %v", got, tt.want)
			}
		})
	}
}
