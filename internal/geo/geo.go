// Package geo decides whether hazard geometries fall within range of a
// reference coordinate
package geo

import (
	"github.com/golang/geo/s2"

	"github.com/ngmaloney/weather-alert/internal/models"
)

const (
	// EarthRadiusKm is the mean Earth radius used for great-circle distances
	EarthRadiusKm = 6371.0

	// DefaultRadiusKm is the geofence radius used when none is configured
	DefaultRadiusKm = 50.0
)

// DistanceKm calculates the great-circle distance in km between two points.
// s2 computes the central angle with the haversine formula.
func DistanceKm(a, b models.Coordinate) float64 {
	p := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	q := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p.Distance(q).Radians() * EarthRadiusKm
}

// WithinRange reports whether target lies within radiusKm of center
func WithinRange(center, target models.Coordinate, radiusKm float64) bool {
	return DistanceKm(center, target) <= radiusKm
}

// PolygonInRange reports whether any vertex of the outer ring lies within
// radiusKm of center. Vertices are [lon, lat]. Inner rings are ignored, as
// are vertices with fewer than two ordinates.
//
// A polygon that encloses center but has every vertex farther than radiusKm
// does not match.
func PolygonInRange(center models.Coordinate, rings [][][]float64, radiusKm float64) bool {
	if len(rings) == 0 {
		return false
	}
	for _, v := range rings[0] {
		if len(v) < 2 {
			continue
		}
		if WithinRange(center, models.Coordinate{Latitude: v[1], Longitude: v[0]}, radiusKm) {
			return true
		}
	}
	return false
}

// MatchGeometry applies the geofence to an event geometry. Missing,
// malformed or unsupported geometries never match.
func MatchGeometry(center models.Coordinate, g *models.Geometry, radiusKm float64) bool {
	if g == nil {
		return false
	}

	switch g.Type {
	case models.GeometryPoint:
		p, err := g.Point()
		if err != nil {
			return false
		}
		return WithinRange(center, models.Coordinate{Latitude: p[1], Longitude: p[0]}, radiusKm)

	case models.GeometryPolygon:
		rings, err := g.Polygon()
		if err != nil {
			return false
		}
		return PolygonInRange(center, rings, radiusKm)

	case models.GeometryMultiPolygon:
		polys, err := g.MultiPolygon()
		if err != nil {
			return false
		}
		for _, rings := range polys {
			if PolygonInRange(center, rings, radiusKm) {
				return true
			}
		}
		return false
	}

	return false
}
