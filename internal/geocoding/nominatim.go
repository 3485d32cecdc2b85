// Package geocoding resolves place names to coordinates and back using
// OpenStreetMap Nominatim
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ngmaloney/weather-alert/internal/models"
)

const (
	nominatimURL = "https://nominatim.openstreetmap.org"
	userAgent    = "WeatherAlert/1.0" // Required by Nominatim ToS

	UnknownCity    = "Unknown Location"
	UnknownCountry = "Unknown Country"
)

// ErrNotFound is returned when a search has no results
var ErrNotFound = errors.New("Location not found")

// Geocoder converts place names to coordinates and coordinates to names
type Geocoder struct {
	baseURL    string
	httpClient *http.Client
	lastCall   time.Time
	mu         sync.Mutex
}

// NewGeocoder creates a new geocoder
func NewGeocoder() *Geocoder {
	return &Geocoder{
		baseURL: nominatimURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// nominatimAddress is the address breakdown Nominatim returns
type nominatimAddress struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	County  string `json:"county"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// nominatimResponse represents a Nominatim place
type nominatimResponse struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

// Search finds the best match for a free-text place query
func (g *Geocoder) Search(ctx context.Context, query string) (*models.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	params := url.Values{}
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("addressdetails", "1")
	params.Add("q", query)

	var results []nominatimResponse
	if err := g.get(ctx, "search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	return results[0].location()
}

// Reverse resolves a coordinate to a city and country. Missing names fall
// back to UnknownCity and UnknownCountry.
func (g *Geocoder) Reverse(ctx context.Context, c models.Coordinate) (*models.Location, error) {
	params := url.Values{}
	params.Add("format", "jsonv2")
	params.Add("lat", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	params.Add("lon", strconv.FormatFloat(c.Longitude, 'f', -1, 64))

	var result nominatimResponse
	if err := g.get(ctx, "reverse", params, &result); err != nil {
		return nil, err
	}

	return &models.Location{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		CityName:  result.Address.cityName(),
		Country:   result.Address.countryName(),
	}, nil
}

func (g *Geocoder) get(ctx context.Context, path string, params url.Values, out any) error {
	// Build URL
	reqURL := fmt.Sprintf("%s/%s?%s", g.baseURL, path, params.Encode())

	// Rate limiting: Nominatim requires 1 req/sec max
	if err := g.throttle(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	// Set required User-Agent header (Nominatim ToS requirement)
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (g *Geocoder) throttle(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastCall.IsZero() {
		if wait := time.Second - time.Since(g.lastCall); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	g.lastCall = time.Now()
	return nil
}

func (r nominatimResponse) location() (*models.Location, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude: %w", err)
	}

	return &models.Location{
		Latitude:  lat,
		Longitude: lon,
		CityName:  r.Address.cityName(),
		Country:   r.Address.countryName(),
	}, nil
}

// cityName picks the most specific populated name
func (a nominatimAddress) cityName() string {
	for _, name := range []string{a.City, a.Town, a.Village} {
		if strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	for _, name := range []string{a.County, a.State} {
		if n := strings.TrimSpace(strings.TrimPrefix(name, "County ")); n != "" {
			return n
		}
	}
	return UnknownCity
}

func (a nominatimAddress) countryName() string {
	if strings.TrimSpace(a.Country) == "" {
		return UnknownCountry
	}
	return a.Country
}
