// Package locations manages the current location, saved locations and the
// current conditions shown on the home screen
package locations

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ngmaloney/weather-alert/internal/database"
	"github.com/ngmaloney/weather-alert/internal/models"
)

const lastLocationKey = "last_location"

var (
	// ErrLocationExists is returned when saving a coordinate already saved
	ErrLocationExists = errors.New("Location already saved")

	// ErrNoLocation is returned when saving the unset 0,0 coordinate
	ErrNoLocation = errors.New("no location selected")
)

// Repository handles persistence for saved locations and the last known
// location used by the background checker
type Repository struct {
	db *sqlx.DB
	kv *database.KV
}

// NewRepository creates a new location repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, kv: database.NewKV(db)}
}

type locationRow struct {
	ID                int64   `db:"id"`
	FormattedLocation string  `db:"formatted_location"`
	Latitude          float64 `db:"latitude"`
	Longitude         float64 `db:"longitude"`
	CityName          string  `db:"city_name"`
	Country           string  `db:"country"`
	CreatedAt         int64   `db:"created_at"`
}

func (r locationRow) location() models.Location {
	return models.Location{
		ID:        r.ID,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		CityName:  r.CityName,
		Country:   r.Country,
		CreatedAt: time.UnixMilli(r.CreatedAt),
	}
}

// Save stores loc unless it is 0,0 or its coordinate is already saved
func (r *Repository) Save(loc *models.Location) error {
	if loc.Coordinate().IsZero() {
		return ErrNoLocation
	}
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now()
	}

	res, err := r.db.Exec(`
		INSERT INTO saved_locations (formatted_location, latitude, longitude, city_name, country, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(formatted_location) DO NOTHING
	`,
		loc.FormattedLocation(),
		loc.Latitude,
		loc.Longitude,
		loc.CityName,
		loc.Country,
		loc.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving location: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking saved location: %w", err)
	}
	if n == 0 {
		return ErrLocationExists
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	loc.ID = id

	return nil
}

// List retrieves all saved locations, oldest first
func (r *Repository) List() ([]models.Location, error) {
	var rows []locationRow
	err := r.db.Select(&rows, `
		SELECT id, formatted_location, latitude, longitude, city_name, country, created_at
		FROM saved_locations ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}

	locs := make([]models.Location, len(rows))
	for i, row := range rows {
		locs[i] = row.location()
	}
	return locs, nil
}

// Delete removes a saved location by id
func (r *Repository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM saved_locations WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting location: %w", err)
	}
	return nil
}

// LastLocation returns the most recently viewed location. ok is false when
// none has been recorded.
func (r *Repository) LastLocation() (loc models.Location, ok bool, err error) {
	err = r.kv.Get(lastLocationKey, &loc)
	if errors.Is(err, database.ErrNotFound) {
		return models.Location{}, false, nil
	}
	if err != nil {
		return models.Location{}, false, err
	}
	return loc, true, nil
}

// SetLastLocation records loc as the location the checker should watch
func (r *Repository) SetLastLocation(loc models.Location) error {
	return r.kv.Set(lastLocationKey, loc)
}
