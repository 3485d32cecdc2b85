// Package tomorrow is a client for the Tomorrow.io realtime weather and
// events APIs
package tomorrow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/ngmaloney/weather-alert/internal/models"
)

const (
	DefaultBaseURL = "https://api.tomorrow.io/v4"
	userAgent      = "WeatherAlert/1.0 (github.com/ngmaloney/weather-alert)"
)

// WeatherClient defines the interface for fetching data from the weather API
type WeatherClient interface {
	// CurrentWeather retrieves realtime conditions for a coordinate
	CurrentWeather(ctx context.Context, c models.Coordinate) (*models.Conditions, error)

	// Events retrieves active hazard events around a coordinate
	Events(ctx context.Context, c models.Coordinate) ([]models.Event, error)
}

// APIError is returned for any non-200 response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d", e.StatusCode)
}

// StatusCode extracts the HTTP status from err, or 0 if err is not an APIError
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Options configures a Client
type Options struct {
	BaseURL  string
	APIKey   string
	RetryMax int
	Timeout  time.Duration
	Logger   logrus.FieldLogger
}

// Client implements WeatherClient against the Tomorrow.io v4 API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new API client. Server errors are retried up to
// opts.RetryMax times; 429 responses are never retried.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Logger != nil {
		rc.Logger = leveledLogger{opts.Logger}
	} else {
		rc.Logger = nil
	}

	httpClient := rc.StandardClient()
	httpClient.Timeout = opts.Timeout

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// checkRetry retries connection errors and 5xx but leaves 429 to the caller,
// whose quota handling would only be defeated by immediate retries
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// CurrentWeather retrieves realtime conditions in metric units
func (c *Client) CurrentWeather(ctx context.Context, coord models.Coordinate) (*models.Conditions, error) {
	params := url.Values{}
	params.Set("location", coord.String())
	params.Set("units", "metric")

	var resp models.RealtimeResponse
	if err := c.get(ctx, "weather/realtime", params, &resp); err != nil {
		return nil, err
	}
	return resp.Conditions(), nil
}

// Events retrieves active events for every hazard category around coord
func (c *Client) Events(ctx context.Context, coord models.Coordinate) ([]models.Event, error) {
	params := url.Values{}
	params.Set("location", coord.String())
	for _, h := range models.Hazards {
		params.Add("insights", string(h))
	}
	params.Set("buffer", "1.0")

	var resp models.EventsResponse
	if err := c.get(ctx, "events", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Events, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger
type leveledLogger struct {
	log logrus.FieldLogger
}

func (l leveledLogger) fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.log.WithFields(l.fields(kv)).Error(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.log.WithFields(l.fields(kv)).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.log.WithFields(l.fields(kv)).Debug(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.log.WithFields(l.fields(kv)).Warn(msg) }
