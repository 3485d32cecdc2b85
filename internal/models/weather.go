package models

import "time"

// Conditions represents current weather conditions at a location
type Conditions struct {
	Temperature              float64 // °C
	Humidity                 float64 // %
	WindSpeed                float64 // m/s
	Pressure                 float64 // hPa, surface level
	PrecipitationProbability float64 // %
	WeatherCode              int
	ObservedAt               time.Time
}

// Description returns the human readable label for the weather code
func (c Conditions) Description() string {
	return WeatherDescription(c.WeatherCode)
}

var weatherCodes = map[int]string{
	1000: "Clear, Sunny",
	1100: "Mostly Clear",
	1101: "Partly Cloudy",
	1102: "Mostly Cloudy",
	1001: "Cloudy",
	2000: "Fog",
	2100: "Light Fog",
	4000: "Drizzle",
	4001: "Rain",
	4200: "Light Rain",
	4201: "Heavy Rain",
	5000: "Snow",
	5001: "Flurries",
	5100: "Light Snow",
	5101: "Heavy Snow",
	6000: "Freezing Drizzle",
	6001: "Freezing Rain",
	6200: "Light Freezing Rain",
	6201: "Heavy Freezing Rain",
	7000: "Ice Pellets",
	7101: "Heavy Ice Pellets",
	7102: "Light Ice Pellets",
	8000: "Thunderstorm",
}

// WeatherDescription maps a weather code to its label, "Unknown" if unmapped
func WeatherDescription(code int) string {
	if d, ok := weatherCodes[code]; ok {
		return d
	}
	return "Unknown"
}

// RealtimeResponse is the envelope of the realtime weather endpoint
type RealtimeResponse struct {
	Data struct {
		Time   string `json:"time"`
		Values struct {
			Temperature              float64 `json:"temperature"`
			Humidity                 float64 `json:"humidity"`
			WindSpeed                float64 `json:"windSpeed"`
			PressureSurfaceLevel     float64 `json:"pressureSurfaceLevel"`
			PrecipitationProbability float64 `json:"precipitationProbability"`
			WeatherCode              int     `json:"weatherCode"`
		} `json:"values"`
	} `json:"data"`
	Location struct {
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
		Name string  `json:"name"`
		Type string  `json:"type"`
	} `json:"location"`
}

// Conditions converts the response into the domain model
func (r RealtimeResponse) Conditions() *Conditions {
	v := r.Data.Values
	observed, _ := time.Parse(time.RFC3339, r.Data.Time)
	return &Conditions{
		Temperature:              v.Temperature,
		Humidity:                 v.Humidity,
		WindSpeed:                v.WindSpeed,
		Pressure:                 v.PressureSurfaceLevel,
		PrecipitationProbability: v.PrecipitationProbability,
		WeatherCode:              v.WeatherCode,
		ObservedAt:               observed,
	}
}
