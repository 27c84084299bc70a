package routing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger

	// CacheTTL is how long fetched routes stay fresh. Default 5 minutes.
	CacheTTL time.Duration

	// CacheGridSize quantizes endpoints into cache cells, in degrees.
	// Default 0.001 (~110m): close enough endpoints share candidates.
	CacheGridSize float64

	// StaleIfErrorTTL bounds how old cached routes may be when served
	// after a provider failure. Default 15 minutes.
	StaleIfErrorTTL time.Duration
}

// Service fetches candidate routes with endpoint-quantized caching and a
// stale-if-error fallback in front of a Provider.
type Service struct {
	provider Provider
	log      zerolog.Logger
	cfg      ServiceConfig

	mu    sync.RWMutex
	cache map[string]*cachedRoutes
}

type cachedRoutes struct {
	response  *RoutesResponse
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a routing service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CacheGridSize <= 0 {
		cfg.CacheGridSize = 0.001
	}
	if cfg.StaleIfErrorTTL <= 0 {
		cfg.StaleIfErrorTTL = 15 * time.Minute
	}
	return &Service{
		provider: cfg.Provider,
		log:      cfg.Logger.With().Str("component", "routing").Logger(),
		cfg:      cfg,
		cache:    make(map[string]*cachedRoutes),
	}
}

// GetRoutes returns candidate routes between the request's endpoints,
// served from cache when a recent equivalent request exists.
func (s *Service) GetRoutes(ctx context.Context, req RoutesRequest) (*RoutesResponse, error) {
	if !req.Origin.Valid() {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if !req.Destination.Valid() {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if req.MaxAlternatives <= 0 {
		req.MaxAlternatives = 2
	}

	key := s.cacheKey(req)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.response, nil
	}
	s.mu.RUnlock()

	return s.fetch(ctx, req, key)
}

func (s *Service) fetch(ctx context.Context, req RoutesRequest, key string) (*RoutesResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check under the write lock so concurrent misses share one fetch.
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		return cached.response, nil
	}

	resp, err := s.provider.GetRoutes(ctx, req)
	if err != nil {
		s.log.Error().Err(err).
			Float64("origin_lat", req.Origin.Lat).
			Float64("origin_lon", req.Origin.Lon).
			Float64("dest_lat", req.Destination.Lat).
			Float64("dest_lon", req.Destination.Lon).
			Str("profile", string(req.Profile)).
			Msg("failed to fetch routes")

		if cached, ok := s.cache[key]; ok && time.Now().Before(cached.fetchedAt.Add(s.cfg.StaleIfErrorTTL)) {
			s.log.Warn().
				Time("fetched_at", cached.fetchedAt).
				Str("cache_key", key).
				Msg("serving stale routes after provider error")
			return cached.response, nil
		}
		return nil, err
	}

	now := time.Now()
	s.cache[key] = &cachedRoutes{
		response:  resp,
		fetchedAt: now,
		expiresAt: now.Add(s.cfg.CacheTTL),
	}
	return resp, nil
}

// cacheKey quantizes both endpoints onto the cache grid:
// {profile}:{n}:{originLat},{originLon}:{destLat},{destLon}.
func (s *Service) cacheKey(req RoutesRequest) string {
	q := func(v float64) float64 {
		return math.Floor(v/s.cfg.CacheGridSize) * s.cfg.CacheGridSize
	}
	return fmt.Sprintf("%s:%d:%.3f,%.3f:%.3f,%.3f",
		req.Profile, req.MaxAlternatives,
		q(req.Origin.Lat), q(req.Origin.Lon),
		q(req.Destination.Lat), q(req.Destination.Lon),
	)
}

// InvalidateCache drops all cached routes.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedRoutes)
}

// Provider exposes the underlying provider name for status reporting.
func (s *Service) Provider() string {
	return s.provider.Name()
}
