package models

import "strings"

// Hazard is one of the fixed event categories a user can toggle
type Hazard string

const (
	HazardFires        Hazard = "fires"
	HazardWind         Hazard = "wind"
	HazardWinter       Hazard = "winter"
	HazardThunderstorm Hazard = "thunderstorms"
	HazardFlood        Hazard = "floods"
	HazardTemperature  Hazard = "temperature"
	HazardTropical     Hazard = "tropical"
	HazardMarine       Hazard = "marine"
	HazardFog          Hazard = "fog"
	HazardTornado      Hazard = "tornado"
)

// Hazards lists every category in match order. It is also the insights
// list sent to the events API.
var Hazards = []Hazard{
	HazardFires,
	HazardWind,
	HazardWinter,
	HazardThunderstorm,
	HazardFlood,
	HazardTemperature,
	HazardTropical,
	HazardMarine,
	HazardFog,
	HazardTornado,
}

// matchToken is the substring searched for in an event's insight
func (h Hazard) matchToken() string {
	switch h {
	case HazardThunderstorm:
		return "thunderstorm"
	case HazardFlood:
		return "flood"
	default:
		return string(h)
	}
}

// Label is the name shown in settings
func (h Hazard) Label() string {
	s := string(h)
	return strings.ToUpper(s[:1]) + s[1:]
}

// CategorizeInsight maps an event insight to the first matching hazard
func CategorizeInsight(insight string) (Hazard, bool) {
	lower := strings.ToLower(insight)
	for _, h := range Hazards {
		if strings.Contains(lower, h.matchToken()) {
			return h, true
		}
	}
	return "", false
}

// ThemeMode selects the colour scheme of the terminal UI
type ThemeMode string

const (
	ThemeSystem ThemeMode = "SYSTEM"
	ThemeLight  ThemeMode = "LIGHT"
	ThemeDark   ThemeMode = "DARK"
)

// ParseThemeMode falls back to ThemeSystem for unknown values
func ParseThemeMode(s string) ThemeMode {
	switch ThemeMode(strings.ToUpper(s)) {
	case ThemeLight:
		return ThemeLight
	case ThemeDark:
		return ThemeDark
	default:
		return ThemeSystem
	}
}

// Next cycles system → light → dark → system
func (t ThemeMode) Next() ThemeMode {
	switch t {
	case ThemeSystem:
		return ThemeLight
	case ThemeLight:
		return ThemeDark
	default:
		return ThemeSystem
	}
}

// Preferences is the single-row user preference record
type Preferences struct {
	Fires                bool      `db:"fires"`
	Wind                 bool      `db:"wind"`
	Winter               bool      `db:"winter"`
	Thunderstorms        bool      `db:"thunderstorms"`
	Floods               bool      `db:"floods"`
	Temperature          bool      `db:"temperature"`
	Tropical             bool      `db:"tropical"`
	Marine               bool      `db:"marine"`
	Fog                  bool      `db:"fog"`
	Tornado              bool      `db:"tornado"`
	NotificationsEnabled bool      `db:"notifications_enabled"`
	ThemeMode            ThemeMode `db:"theme_mode"`
}

// DefaultPreferences has every toggle on and follows the system theme
func DefaultPreferences() Preferences {
	return Preferences{
		Fires:                true,
		Wind:                 true,
		Winter:               true,
		Thunderstorms:        true,
		Floods:               true,
		Temperature:          true,
		Tropical:             true,
		Marine:               true,
		Fog:                  true,
		Tornado:              true,
		NotificationsEnabled: true,
		ThemeMode:            ThemeSystem,
	}
}

func (p *Preferences) field(h Hazard) *bool {
	switch h {
	case HazardFires:
		return &p.Fires
	case HazardWind:
		return &p.Wind
	case HazardWinter:
		return &p.Winter
	case HazardThunderstorm:
		return &p.Thunderstorms
	case HazardFlood:
		return &p.Floods
	case HazardTemperature:
		return &p.Temperature
	case HazardTropical:
		return &p.Tropical
	case HazardMarine:
		return &p.Marine
	case HazardFog:
		return &p.Fog
	case HazardTornado:
		return &p.Tornado
	}
	return nil
}

// Enabled reports whether a hazard category is switched on
func (p Preferences) Enabled(h Hazard) bool {
	f := p.field(h)
	return f != nil && *f
}

// Set switches a hazard category on or off
func (p *Preferences) Set(h Hazard, on bool) {
	if f := p.field(h); f != nil {
		*f = on
	}
}

// ShouldProcess is the preference gate applied before geofencing. An
// insight matching no known category is dropped.
func (p Preferences) ShouldProcess(insight string) bool {
	if !p.NotificationsEnabled {
		return false
	}
	h, ok := CategorizeInsight(insight)
	if !ok {
		return false
	}
	return p.Enabled(h)
}
