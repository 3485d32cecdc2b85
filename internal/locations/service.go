package locations

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ngmaloney/weather-alert/internal/geocoding"
	"github.com/ngmaloney/weather-alert/internal/models"
	"github.com/ngmaloney/weather-alert/internal/tomorrow"
)

// Geocoder resolves names and coordinates
type Geocoder interface {
	Search(ctx context.Context, query string) (*models.Location, error)
	Reverse(ctx context.Context, c models.Coordinate) (*models.Location, error)
}

// ConditionsFetcher retrieves current weather
type ConditionsFetcher interface {
	CurrentWeather(ctx context.Context, c models.Coordinate) (*models.Conditions, error)
}

// Snapshot is what the home screen shows for one location
type Snapshot struct {
	Location   models.Location
	Conditions *models.Conditions
	WeatherErr error
}

// Service orchestrates location operations
type Service struct {
	repo     *Repository
	geocoder Geocoder
	weather  ConditionsFetcher
	log      logrus.FieldLogger
}

// NewService creates a new location service
func NewService(repo *Repository, geocoder Geocoder, weather ConditionsFetcher, log logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		geocoder: geocoder,
		weather:  weather,
		log:      log,
	}
}

// Search geocodes query and refreshes the home snapshot for the result
func (s *Service) Search(ctx context.Context, query string) (*Snapshot, error) {
	loc, err := s.geocoder.Search(ctx, query)
	if err != nil {
		if errors.Is(err, geocoding.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	return s.Refresh(ctx, loc.Coordinate())
}

// Refresh records c as the last known location, resolves its names and
// fetches current conditions. Naming and weather failures are reported in
// the snapshot rather than failing the refresh.
func (s *Service) Refresh(ctx context.Context, c models.Coordinate) (*Snapshot, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid coordinate %s", c)
	}

	loc := models.Location{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		CityName:  geocoding.UnknownCity,
		Country:   geocoding.UnknownCountry,
	}

	if named, err := s.geocoder.Reverse(ctx, c); err != nil {
		s.log.WithError(err).WithField("location", c.String()).Warn("reverse geocoding failed")
	} else {
		loc.CityName = named.CityName
		loc.Country = named.Country
	}

	if err := s.repo.SetLastLocation(loc); err != nil {
		return nil, fmt.Errorf("saving last location: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"location": loc.FormattedLocation(),
		"city":     loc.CityName,
	}).Info("location updated")

	snap := &Snapshot{Location: loc}
	conditions, err := s.weather.CurrentWeather(ctx, c)
	if err != nil {
		s.log.WithError(err).Warn("fetching current weather failed")
		snap.WeatherErr = err
	} else {
		snap.Conditions = conditions
	}
	return snap, nil
}

// Current returns the snapshot for the last known location, if any
func (s *Service) Current(ctx context.Context) (*Snapshot, error) {
	loc, ok, err := s.repo.LastLocation()
	if err != nil || !ok {
		return nil, err
	}
	return s.Refresh(ctx, loc.Coordinate())
}

// Save stores loc as a saved location
func (s *Service) Save(loc models.Location) (models.Location, error) {
	if err := s.repo.Save(&loc); err != nil {
		return loc, err
	}
	return loc, nil
}

// List returns saved locations
func (s *Service) List() ([]models.Location, error) {
	return s.repo.List()
}

// Delete removes a saved location
func (s *Service) Delete(id int64) error {
	return s.repo.Delete(id)
}

var _ ConditionsFetcher = (*tomorrow.Client)(nil)
var _ Geocoder = (*geocoding.Geocoder)(nil)
