// Package weather provides current surface weather observations used to
// enrich air quality cell readings and to serve the weather endpoint.
package weather

import (
	"context"
	"errors"
	"math"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrNoDataForLocation   = errors.New("no weather data for location")
)

// Observation is the surface weather at a point.
type Observation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// TemperatureC in degrees Celsius.
	TemperatureC float64 `json:"temperatureC"`

	// Humidity percentage, 0-100.
	Humidity float64 `json:"humidity"`

	// WindSpeed in m/s; WindDirection in meteorological degrees (the
	// direction the wind blows from, 0 = north).
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	WindGust      float64 `json:"windGust,omitempty"`

	// RainMM is precipitation over the last hour in millimeters.
	RainMM float64 `json:"rainMm"`

	// Pressure in hPa.
	Pressure float64 `json:"pressure"`

	Condition   Condition `json:"condition"`
	Description string    `json:"description"`

	ObservedAt time.Time `json:"observedAt"`
	FetchedAt  time.Time `json:"-"`
}

// Condition is a coarse weather condition bucket.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionUnknown      Condition = "UNKNOWN"
)

// WindVector converts speed and meteorological direction into east (u) and
// north (v) components of where the air is moving to.
func (o *Observation) WindVector() (u, v float64) {
	// Wind from direction d moves toward d+180.
	rad := (o.WindDirection + 180) * math.Pi / 180
	return o.WindSpeed * math.Sin(rad), o.WindSpeed * math.Cos(rad)
}

// DispersionFactor estimates how the current wind modulates pollutant
// accumulation: calm air concentrates emissions, strong wind clears them.
func (o *Observation) DispersionFactor() float64 {
	switch {
	case o.WindSpeed < 1:
		return 1.3
	case o.WindSpeed < 3:
		return 1.1
	case o.WindSpeed < 8:
		return 0.9
	default:
		return 0.7
	}
}

// Provider defines the interface for weather providers.
type Provider interface {
	// GetCurrent fetches the current observation at a coordinate.
	GetCurrent(ctx context.Context, lat, lon float64) (*Observation, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}
