package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger

	// CacheTTL is how long observations stay fresh. Default 10 minutes.
	CacheTTL time.Duration

	// CacheGridSize quantizes query points into cache cells, in degrees.
	// Default 0.05 (~5km): weather varies slowly compared to air quality.
	CacheGridSize float64
}

// Service serves current weather with grid-quantized caching.
type Service struct {
	provider Provider
	log      zerolog.Logger
	cfg      ServiceConfig

	mu    sync.RWMutex
	cache map[string]*cachedObservation
}

type cachedObservation struct {
	observation *Observation
	expiresAt   time.Time
}

// NewService creates a weather service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.CacheGridSize <= 0 {
		cfg.CacheGridSize = 0.05
	}
	return &Service{
		provider: cfg.Provider,
		log:      cfg.Logger.With().Str("component", "weather").Logger(),
		cfg:      cfg,
		cache:    make(map[string]*cachedObservation),
	}
}

// GetCurrent returns the current observation near (lat, lon), cached per
// grid cell.
func (s *Service) GetCurrent(ctx context.Context, lat, lon float64) (*Observation, error) {
	key := s.cacheKey(lat, lon)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.observation, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		return cached.observation, nil
	}

	obs, err := s.provider.GetCurrent(ctx, lat, lon)
	if err != nil {
		s.log.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("failed to fetch weather")
		return nil, err
	}
	obs.FetchedAt = time.Now()
	s.cache[key] = &cachedObservation{
		observation: obs,
		expiresAt:   time.Now().Add(s.cfg.CacheTTL),
	}
	return obs, nil
}

// Provider exposes the underlying provider name for status reporting.
func (s *Service) Provider() string {
	return s.provider.Name()
}

func (s *Service) cacheKey(lat, lon float64) string {
	q := func(v float64) float64 {
		return math.Floor(v/s.cfg.CacheGridSize) * s.cfg.CacheGridSize
	}
	return fmt.Sprintf("%.2f:%.2f", q(lat), q(lon))
}
