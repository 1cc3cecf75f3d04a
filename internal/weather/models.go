// Package weather provides weather snapshots and forecasts for farm locations.
package weather

import (
	"errors"
	"math"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Snapshot is a single point-in-time weather read for one coordinate:
// current conditions plus a short daily series (today and tomorrow).
// Snapshots are transient and fetched fresh per evaluation.
type Snapshot struct {
	Lat float64
	Lon float64

	Current Current
	Daily   []Day

	FetchedAt time.Time
}

// Today returns the snapshot's first daily entry, or a zero Day if the
// provider returned no daily series.
func (s *Snapshot) Today() Day {
	if len(s.Daily) > 0 {
		return s.Daily[0]
	}
	return Day{}
}

// Current holds instantaneous conditions. Temperature is optional because
// some provider responses omit it; evaluation falls back through it.
type Current struct {
	Temperature   *float64 // Celsius
	Humidity      float64  // percent (0-100)
	Precipitation float64  // mm
	WindSpeed     float64  // km/h
	WeatherCode   int
}

// Day holds one day of the forecast series. All fields are optional:
// a provider response missing a series must degrade, not fail.
type Day struct {
	Date             string   // ISO date (YYYY-MM-DD)
	TempMin          *float64 // Celsius
	TempMax          *float64 // Celsius
	PrecipitationSum *float64 // mm
}

// LocalWeather is the client-facing reshape: current conditions with a
// description, a multi-day forecast, and a resolved location label.
type LocalWeather struct {
	Current  CurrentWeather `json:"current"`
	Forecast []ForecastDay  `json:"forecast"`
	Location string         `json:"location"`
}

// CurrentWeather is the client-facing view of current conditions.
type CurrentWeather struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	WindSpeed   float64 `json:"windSpeed"`
}

// ForecastDay is one upcoming day in the client-facing forecast.
type ForecastDay struct {
	Date        string  `json:"date"`
	DayName     string  `json:"dayName"`
	Temperature float64 `json:"temperature"`
	TempMin     float64 `json:"tempMin"`
	TempMax     float64 `json:"tempMax"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	WindSpeed   float64 `json:"windSpeed"`
}

// Condition describes a WMO weather code in human-readable form.
type Condition struct {
	Description string
	Icon        string
}

// conditionByCode maps WMO weather interpretation codes to descriptions and
// icon identifiers used by the client.
var conditionByCode = map[int]Condition{
	0:  {Description: "Clear sky", Icon: "01d"},
	1:  {Description: "Mainly clear", Icon: "02d"},
	2:  {Description: "Partly cloudy", Icon: "03d"},
	3:  {Description: "Overcast", Icon: "04d"},
	45: {Description: "Fog", Icon: "50d"},
	51: {Description: "Light drizzle", Icon: "09d"},
	61: {Description: "Rain", Icon: "10d"},
	63: {Description: "Moderate rain", Icon: "10d"},
	65: {Description: "Heavy rain", Icon: "10d"},
	71: {Description: "Snow", Icon: "13d"},
	80: {Description: "Rain showers", Icon: "09d"},
	95: {Description: "Thunderstorm", Icon: "11d"},
}

// ConditionForCode returns the condition for a WMO weather code, or a
// generic fallback for unmapped codes.
func ConditionForCode(code int) Condition {
	if c, ok := conditionByCode[code]; ok {
		return c
	}
	return Condition{Description: "Unknown", Icon: "01d"}
}

// ValidateCoordinates checks that both coordinates are finite and within
// geographic bounds.
func ValidateCoordinates(lat, lon float64) error {
	if !isFinite(lat) || !isFinite(lon) {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
