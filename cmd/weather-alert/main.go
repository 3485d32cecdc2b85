package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ngmaloney/weather-alert/internal/alerts"
	"github.com/ngmaloney/weather-alert/internal/checker"
	"github.com/ngmaloney/weather-alert/internal/config"
	"github.com/ngmaloney/weather-alert/internal/database"
	"github.com/ngmaloney/weather-alert/internal/geocoding"
	"github.com/ngmaloney/weather-alert/internal/locations"
	"github.com/ngmaloney/weather-alert/internal/observability"
	"github.com/ngmaloney/weather-alert/internal/preferences"
	"github.com/ngmaloney/weather-alert/internal/ratelimit"
	"github.com/ngmaloney/weather-alert/internal/tomorrow"
	"github.com/ngmaloney/weather-alert/internal/ui"
)

const defaultLogFile = "data/weather-alert.log"

func main() {
	location := flag.String("location", "", "Search for a location on start (e.g. \"Boston, MA\")")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs always go to a file
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = defaultLogFile
	}
	log, closer, err := observability.NewLogger(observability.LoggerOptions{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   logFile,
	})
	if err != nil {
		fmt.Printf("Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Error("opening database failed")
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	client := tomorrow.NewClient(tomorrow.Options{
		BaseURL:  cfg.APIBaseURL,
		APIKey:   cfg.APIKey,
		RetryMax: cfg.HTTPRetryMax,
		Logger:   log,
	})

	clock := clockwork.NewRealClock()
	alertService := alerts.NewService(client, ratelimit.NewWithStore(ratelimit.NewSQLStore(db), clock), newCache(cfg, clock, log), clock, observability.NewMetrics(), log)
	locationService := locations.NewService(locations.NewRepository(db), geocoding.NewGeocoder(), client, log)

	model := ui.NewModel(ui.Deps{
		Locations:    locationService,
		Alerts:       alertService,
		Preferences:  preferences.NewRepository(db),
		Status:       checker.NewStateStore(database.NewKV(db)),
		RadiusKm:     cfg.RadiusKm,
		InitialQuery: *location,
	})

	log.Info("weather-alert started")
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.WithError(err).Error("ui exited with error")
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}

// newCache uses Redis when configured so the cache survives restarts,
// falling back to memory
func newCache(cfg *config.Config, clock clockwork.Clock, log logrus.FieldLogger) alerts.Cache {
	if cfg.RedisURL == "" {
		return alerts.NewMemoryCache(clock)
	}
	cache, err := alerts.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("redis cache unavailable, using memory cache")
		return alerts.NewMemoryCache(clock)
	}
	return cache
}
