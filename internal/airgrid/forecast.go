package airgrid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cleanroute/cleanroute/internal/aqi"
)

// ErrNoForecastProvider indicates the service was built without a forecast
// provider.
var ErrNoForecastProvider = errors.New("no air quality forecast provider configured")

// ForecastEntry is one hourly air quality prediction.
type ForecastEntry struct {
	Time       time.Time    `json:"time"`
	AQI        int          `json:"aqi"`
	Category   aqi.Category `json:"category"`
	Pollutants CellReading  `json:"pollutants"`
}

// ForecastProvider produces hourly air quality predictions for a point.
type ForecastProvider interface {
	// GetForecast returns hourly predictions covering at most the next
	// hours hours, in chronological order.
	GetForecast(ctx context.Context, lat, lon float64, hours int) ([]ForecastEntry, error)

	// Name returns the provider identifier for logging and metrics.
	Name() string
}

type forecastCacheEntry struct {
	entries   []ForecastEntry
	expiresAt time.Time
}

type forecastCache struct {
	mu      sync.RWMutex
	entries map[string]forecastCacheEntry
}

func newForecastCache() *forecastCache {
	return &forecastCache{entries: make(map[string]forecastCacheEntry)}
}

func (c *forecastCache) get(key string) ([]ForecastEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.entries, true
}

func (c *forecastCache) set(key string, entries []ForecastEntry, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = forecastCacheEntry{entries: entries, expiresAt: time.Now().Add(ttl)}
}

// GetForecast returns hourly air quality predictions for the next hours
// hours at (lat, lon). Results are cached per rounded coordinate and
// window for ForecastTTL.
func (s *Service) GetForecast(ctx context.Context, lat, lon float64, hours int) ([]ForecastEntry, error) {
	if s.forecast == nil {
		return nil, ErrNoForecastProvider
	}

	key := fmt.Sprintf("forecast:%.4f:%.4f:%d", lat, lon, hours)
	if cached, ok := s.fcCache.get(key); ok {
		return cached, nil
	}

	entries, err := s.forecast.GetForecast(ctx, lat, lon, hours)
	if err != nil {
		return nil, err
	}
	s.fcCache.set(key, entries, s.cfg.ForecastTTL)
	return entries, nil
}

// ForecastSummary aggregates a forecast window.
type ForecastSummary struct {
	Average         int          `json:"average"`
	Max             int          `json:"max"`
	Min             int          `json:"min"`
	AverageCategory aqi.Category `json:"averageCategory"`
	MaxCategory     aqi.Category `json:"maxCategory"`
}

// SummarizeForecast computes the average, maximum and minimum AQI over a
// set of forecast entries. It returns false for an empty set.
func SummarizeForecast(entries []ForecastEntry) (ForecastSummary, bool) {
	if len(entries) == 0 {
		return ForecastSummary{}, false
	}

	sum := 0
	maxAQI := entries[0].AQI
	minAQI := entries[0].AQI
	for _, e := range entries {
		sum += e.AQI
		if e.AQI > maxAQI {
			maxAQI = e.AQI
		}
		if e.AQI < minAQI {
			minAQI = e.AQI
		}
	}
	avg := sum / len(entries)

	return ForecastSummary{
		Average:         avg,
		Max:             maxAQI,
		Min:             minAQI,
		AverageCategory: aqi.Categorize(avg),
		MaxCategory:     aqi.Categorize(maxAQI),
	}, true
}
