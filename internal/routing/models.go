// Package routing computes candidate routes between two points for
// walking, running and cycling.
package routing

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the
	// circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the provider quota has been exhausted.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates coordinates outside valid ranges.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for routing providers.
type Provider interface {
	// GetRoutes retrieves up to req.MaxAlternatives+1 candidate routes
	// between origin and destination.
	GetRoutes(ctx context.Context, req RoutesRequest) (*RoutesResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Profile is a routing profile understood by the provider.
type Profile string

const (
	// ProfileFoot covers walking and running.
	ProfileFoot Profile = "foot"
	// ProfileBike covers cycling.
	ProfileBike Profile = "bike"
)

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate lies within WGS84 ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// RoutesRequest asks the provider for candidate routes.
type RoutesRequest struct {
	Origin          Coordinate
	Destination     Coordinate
	Profile         Profile
	MaxAlternatives int // additional routes beyond the primary (default 2)
}

// RoutesResponse carries the provider's candidate routes.
type RoutesResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is one candidate route.
type Route struct {
	// Geometry is the route shape as a precision-6 encoded polyline.
	Geometry        string
	DistanceMeters  float64
	DurationSeconds float64
	Summary         string
}

// Error wraps a provider failure with its origin and code.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the request may succeed if retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
