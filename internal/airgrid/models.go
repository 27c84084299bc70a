// Package airgrid provides point-in-time environmental readings on a
// quantized geographic grid, backed by an external air quality provider.
package airgrid

import (
	"context"
	"errors"
	"time"

	"github.com/cleanroute/cleanroute/internal/aqi"
)

// Provider errors.
var (
	// ErrProviderUnavailable indicates the upstream air quality API is down
	// or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
)

// Wind is a wind vector in m/s (east and north components).
type Wind struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// CellReading is the environmental reading for one grid cell at one instant.
// Pollutant concentrations are optional: a nil pointer means unmeasured.
type CellReading struct {
	AQI  int      `json:"aqi"`
	PM25 *float64 `json:"pm25"`
	PM10 *float64 `json:"pm10"`
	O3   *float64 `json:"o3"`
	NO2  *float64 `json:"no2"`
	CO   *float64 `json:"co"`
	SO2  *float64 `json:"so2"`

	// Aerosol index, precipitation, boundary layer height and wind are
	// carried for downstream consumers; the scoring engine reads only AQI.
	AI   *float64 `json:"ai"`
	Rain float64  `json:"rain"`
	PBL  float64  `json:"pbl"`
	Wind Wind     `json:"wind"`

	FetchedAt time.Time `json:"-"`
}

// Reading converts the measured pollutant fields into an aqi.Reading,
// skipping unmeasured pollutants.
func (c *CellReading) Reading() aqi.Reading {
	r := aqi.Reading{}
	set := func(p aqi.Pollutant, v *float64) {
		if v != nil {
			r[p] = *v
		}
	}
	set(aqi.PollutantPM25, c.PM25)
	set(aqi.PollutantPM10, c.PM10)
	set(aqi.PollutantO3, c.O3)
	set(aqi.PollutantNO2, c.NO2)
	set(aqi.PollutantCO, c.CO)
	set(aqi.PollutantSO2, c.SO2)
	return r
}

// Location is a monitored location near a query point, with its composite
// AQI and the raw pollutant values it reported.
type Location struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Locality       string       `json:"locality,omitempty"`
	Lat            float64      `json:"lat"`
	Lon            float64      `json:"lon"`
	DistanceMeters *float64     `json:"distanceMeters,omitempty"`
	AQI            int          `json:"aqi"`
	Category       aqi.Category `json:"category"`
	Pollutants     CellReading  `json:"pollutants"`
}

// Provider defines the interface for air quality grid providers.
type Provider interface {
	// GetCell fetches the environmental reading at a coordinate and instant.
	GetCell(ctx context.Context, lat, lon float64, when time.Time) (*CellReading, error)

	// GetNearby lists monitored locations within radiusMeters of the point.
	GetNearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]*Location, error)

	// Name returns the provider identifier for logging and metrics.
	Name() string
}
