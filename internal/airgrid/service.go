package airgrid

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig configures the grid service. Zero values select defaults.
type ServiceConfig struct {
	// CellResolution is the grid cell size in degrees. Default 0.005
	// (roughly 500m at mid latitudes).
	CellResolution float64

	// TTL is how long a cell reading stays fresh. Default 5 minutes.
	TTL time.Duration

	// StaleTTL bounds how old a cached reading may be when served as a
	// fallback after a provider failure. Default 1 hour.
	StaleTTL time.Duration

	// Forecast supplies hourly predictions for GetForecast. Optional;
	// without one GetForecast returns ErrNoForecastProvider.
	Forecast ForecastProvider

	// ForecastTTL is how long a forecast window stays cached. Default 1 hour.
	ForecastTTL time.Duration

	Logger zerolog.Logger
}

// Service serves grid cell readings with quantized caching in front of a
// Provider. Requests for nearby points within the same cell and hour share
// one upstream fetch.
type Service struct {
	provider Provider
	forecast ForecastProvider
	cache    Cache
	fcCache  *forecastCache
	cfg      ServiceConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a grid service. The cache is injected so callers can
// share one across services or substitute a different store.
func NewService(provider Provider, cache Cache, cfg ServiceConfig) *Service {
	if cfg.CellResolution <= 0 {
		cfg.CellResolution = 0.005
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.StaleTTL <= 0 {
		cfg.StaleTTL = time.Hour
	}
	if cfg.ForecastTTL <= 0 {
		cfg.ForecastTTL = time.Hour
	}
	return &Service{
		provider: provider,
		forecast: cfg.Forecast,
		cache:    cache,
		fcCache:  newForecastCache(),
		cfg:      cfg,
		log:      cfg.Logger.With().Str("component", "airgrid").Logger(),
		now:      time.Now,
	}
}

// CellKey returns the cache key for a coordinate and instant: the
// coordinate snapped to the cell grid plus the UTC hour bucket.
func (s *Service) CellKey(lat, lon float64, when time.Time) string {
	res := s.cfg.CellResolution
	qLat := math.Round(lat/res) * res
	qLon := math.Round(lon/res) * res
	return fmt.Sprintf("cell:%.4f:%.4f:%s", qLat, qLon, when.UTC().Format("2006010215"))
}

// GetCell returns the environmental reading for the grid cell containing
// (lat, lon) at the hour containing when. Fresh cache entries are served
// directly; on provider failure a stale entry is served if one exists
// within StaleTTL, otherwise the provider error is returned.
func (s *Service) GetCell(ctx context.Context, lat, lon float64, when time.Time) (*CellReading, error) {
	key := s.CellKey(lat, lon, when)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	reading, err := s.provider.GetCell(ctx, lat, lon, when)
	if err != nil {
		if stale, ok := s.staleFor(key); ok {
			s.log.Warn().Err(err).Str("key", key).
				Msg("provider failed, serving stale cell reading")
			return stale, nil
		}
		return nil, err
	}
	reading.FetchedAt = s.now()
	s.cache.Set(key, reading, s.cfg.TTL)
	// Keep a longer-lived copy for stale-if-error fallback.
	s.cache.Set(staleKey(key), reading, s.cfg.StaleTTL)
	return reading, nil
}

// GetNearby lists monitored locations around a point, straight through to
// the provider. Nearby listings are request-shaped and not cached.
func (s *Service) GetNearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]*Location, error) {
	return s.provider.GetNearby(ctx, lat, lon, radiusMeters, limit)
}

// Provider exposes the underlying provider name for status reporting.
func (s *Service) Provider() string {
	return s.provider.Name()
}

func (s *Service) staleFor(key string) (*CellReading, bool) {
	return s.cache.Get(staleKey(key))
}

func staleKey(key string) string {
	return key + ":stale"
}
