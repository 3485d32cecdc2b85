// Package preferences persists the single user preference record
package preferences

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ngmaloney/weather-alert/internal/models"
)

// Repository reads and writes the user_preferences row
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a preference repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the stored preferences, or the defaults if none were saved
func (r *Repository) Get() (models.Preferences, error) {
	var p models.Preferences
	err := r.db.Get(&p, `
		SELECT fires, wind, winter, thunderstorms, floods, temperature, tropical,
			marine, fog, tornado, notifications_enabled, theme_mode
		FROM user_preferences WHERE id = 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultPreferences(), nil
	}
	if err != nil {
		return models.Preferences{}, fmt.Errorf("querying preferences: %w", err)
	}
	p.ThemeMode = models.ParseThemeMode(string(p.ThemeMode))
	return p, nil
}

// Save upserts the preference row
func (r *Repository) Save(p models.Preferences) error {
	_, err := r.db.NamedExec(`
		INSERT INTO user_preferences (id, fires, wind, winter, thunderstorms, floods,
			temperature, tropical, marine, fog, tornado, notifications_enabled, theme_mode)
		VALUES (1, :fires, :wind, :winter, :thunderstorms, :floods,
			:temperature, :tropical, :marine, :fog, :tornado, :notifications_enabled, :theme_mode)
		ON CONFLICT(id) DO UPDATE SET
			fires = excluded.fires,
			wind = excluded.wind,
			winter = excluded.winter,
			thunderstorms = excluded.thunderstorms,
			floods = excluded.floods,
			temperature = excluded.temperature,
			tropical = excluded.tropical,
			marine = excluded.marine,
			fog = excluded.fog,
			tornado = excluded.tornado,
			notifications_enabled = excluded.notifications_enabled,
			theme_mode = excluded.theme_mode
	`, p)
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// SetHazard toggles one category and persists the result
func (r *Repository) SetHazard(h models.Hazard, on bool) (models.Preferences, error) {
	p, err := r.Get()
	if err != nil {
		return p, err
	}
	p.Set(h, on)
	return p, r.Save(p)
}

// SetNotifications switches notifications on or off
func (r *Repository) SetNotifications(on bool) (models.Preferences, error) {
	p, err := r.Get()
	if err != nil {
		return p, err
	}
	p.NotificationsEnabled = on
	return p, r.Save(p)
}

// SetTheme stores the theme mode
func (r *Repository) SetTheme(mode models.ThemeMode) (models.Preferences, error) {
	p, err := r.Get()
	if err != nil {
		return p, err
	}
	p.ThemeMode = mode
	return p, r.Save(p)
}
