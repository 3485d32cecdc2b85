package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Geometry types understood by the geofence matcher
const (
	GeometryPoint        = "Point"
	GeometryPolygon      = "Polygon"
	GeometryMultiPolygon = "MultiPolygon"
)

// Event is a single hazard event as returned by the events API
type Event struct {
	Insight     string      `json:"insight"`
	StartTime   string      `json:"startTime"`
	EndTime     string      `json:"endTime"`
	UpdateTime  string      `json:"updateTime"`
	Severity    string      `json:"severity"`
	Certainty   string      `json:"certainty"`
	Urgency     string      `json:"urgency"`
	EventValues EventValues `json:"eventValues"`
}

// EventValues carries the descriptive payload of an event
type EventValues struct {
	Origin      string    `json:"origin"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Instruction string    `json:"instruction,omitempty"`
	Location    *Geometry `json:"location,omitempty"`
	Distance    *float64  `json:"distance,omitempty"`
	Direction   *float64  `json:"direction,omitempty"`
}

// Geometry is a GeoJSON-like shape. Coordinates are kept raw and decoded
// on demand because their nesting depends on Type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Point decodes a Point geometry as [lon, lat]
func (g *Geometry) Point() ([]float64, error) {
	var p []float64
	if err := g.decode(GeometryPoint, &p); err != nil {
		return nil, err
	}
	if len(p) < 2 {
		return nil, fmt.Errorf("point has %d ordinates, want 2", len(p))
	}
	return p, nil
}

// Polygon decodes a Polygon geometry as rings of [lon, lat] pairs
func (g *Geometry) Polygon() ([][][]float64, error) {
	var rings [][][]float64
	if err := g.decode(GeometryPolygon, &rings); err != nil {
		return nil, err
	}
	return rings, nil
}

// MultiPolygon decodes a MultiPolygon geometry as a list of polygons
func (g *Geometry) MultiPolygon() ([][][][]float64, error) {
	var polys [][][][]float64
	if err := g.decode(GeometryMultiPolygon, &polys); err != nil {
		return nil, err
	}
	return polys, nil
}

func (g *Geometry) decode(want string, v any) error {
	if g == nil {
		return fmt.Errorf("geometry is nil")
	}
	if g.Type != want {
		return fmt.Errorf("geometry type is %q, want %q", g.Type, want)
	}
	if len(g.Coordinates) == 0 {
		return fmt.Errorf("geometry has no coordinates")
	}
	if err := json.Unmarshal(g.Coordinates, v); err != nil {
		return fmt.Errorf("decoding %s coordinates: %w", want, err)
	}
	return nil
}

// Key renders the geometry as a stable string for batch deduplication
func (g *Geometry) Key() string {
	if g == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, g.Coordinates); err != nil {
		return g.Type + ":" + string(g.Coordinates)
	}
	return g.Type + ":" + buf.String()
}

// EventsResponse is the envelope of the events endpoint
type EventsResponse struct {
	Data struct {
		Events []Event `json:"events"`
	} `json:"data"`
}
