package models

import (
	"fmt"
	"time"
)

// Coordinate is a point on Earth in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Valid reports whether the coordinate lies within the legal lat/lon ranges
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// IsZero reports whether the coordinate is the unset 0,0 value
func (c Coordinate) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// String formats the coordinate as "lat,lon", the form used in API queries
func (c Coordinate) String() string {
	return fmt.Sprintf("%g,%g", c.Latitude, c.Longitude)
}

// Location is a resolved place: a coordinate plus the names shown to the user
type Location struct {
	ID        int64     `json:"id,omitempty" db:"id"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	CityName  string    `json:"city_name" db:"city_name"`
	Country   string    `json:"country" db:"country"`
	CreatedAt time.Time `json:"created_at,omitempty" db:"-"`
}

// Coordinate returns the location's point
func (l Location) Coordinate() Coordinate {
	return Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

// FormattedLocation is the "lat,lon" identity used to detect duplicate saves
func (l Location) FormattedLocation() string {
	return l.Coordinate().String()
}

// DisplayName renders "City, Country", falling back to the coordinate
func (l Location) DisplayName() string {
	switch {
	case l.CityName != "" && l.Country != "":
		return l.CityName + ", " + l.Country
	case l.CityName != "":
		return l.CityName
	default:
		return l.FormattedLocation()
	}
}
