// Package osrm provides a client for the OSRM route service.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanroute/cleanroute/internal/provider/resilience"
	"github.com/cleanroute/cleanroute/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "osrm"

	// DefaultBaseURL points at the public OSRM demo server.
	DefaultBaseURL = "https://router.project-osrm.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OSRM client.
type ClientConfig struct {
	// BaseURL of the OSRM instance. Defaults to the public demo server;
	// production deployments should point at their own instance.
	BaseURL string

	// HTTPClient overrides the resilient client built by default.
	HTTPClient HTTPDoer

	// Timeout for individual requests when the default client is used.
	Timeout time.Duration

	// Registry receives success/failure reports for health tracking.
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// Client is an OSRM route service client. It requests full-overview
// precision-6 polyline geometries so routes can be scored without a second
// round trip.
type Client struct {
	baseURL  string
	http     HTTPDoer
	registry *resilience.Registry
	log      zerolog.Logger
}

// NewClient creates an OSRM client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		client := resilience.NewClient(resilience.ClientConfig{
			Name:    ProviderName,
			Timeout: cfg.Timeout,
			Logger:  cfg.Logger,
		})
		if cfg.Registry != nil {
			cfg.Registry.Register(ProviderName, client)
		}
		httpClient = client
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		http:     httpClient,
		registry: cfg.Registry,
		log:      cfg.Logger.With().Str("provider", ProviderName).Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetRoutes fetches candidate routes between two points.
func (c *Client) GetRoutes(ctx context.Context, req routing.RoutesRequest) (*routing.RoutesResponse, error) {
	maxAlts := req.MaxAlternatives
	if maxAlts <= 0 {
		maxAlts = 2
	}

	// OSRM coordinates are lon,lat pairs in the path.
	endpoint := fmt.Sprintf("%s/route/v1/%s/%s;%s",
		c.baseURL,
		req.Profile,
		coordPair(req.Origin),
		coordPair(req.Destination),
	)
	query := url.Values{
		"alternatives": {strconv.Itoa(maxAlts)},
		"overview":     {"full"},
		"geometries":   {"polyline6"},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.log.Debug().
		Str("profile", string(req.Profile)).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting routes")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.recordFailure(err)
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	result, err := c.parseResponse(resp.StatusCode, body)
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
	return result, nil
}

func (c *Client) parseResponse(statusCode int, body []byte) (*routing.RoutesResponse, error) {
	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if statusCode != http.StatusOK {
			return nil, c.statusError(statusCode)
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	// OSRM reports most failures through the code field, with the HTTP
	// status mirroring it.
	switch parsed.Code {
	case codeOK:
	case codeNoRoute, codeNoSeg:
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     parsed.Code,
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	default:
		if statusCode != http.StatusOK {
			return nil, c.statusError(statusCode)
		}
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     parsed.Code,
			Message:  parsed.Message,
			Err:      routing.ErrProviderUnavailable,
		}
	}

	if len(parsed.Routes) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "EMPTY_RESULT",
			Message:  "provider returned no routes",
			Err:      routing.ErrNoRouteFound,
		}
	}

	routes := make([]routing.Route, len(parsed.Routes))
	for i, r := range parsed.Routes {
		summary := ""
		if len(r.Legs) > 0 {
			summary = r.Legs[0].Summary
		}
		routes[i] = routing.Route{
			Geometry:        r.Geometry,
			DistanceMeters:  r.Distance,
			DurationSeconds: r.Duration,
			Summary:         summary,
		}
	}

	c.log.Debug().Int("route_count", len(routes)).Msg("received routes")
	return &routing.RoutesResponse{
		Routes:    routes,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}, nil
}

func (c *Client) statusError(statusCode int) error {
	if statusCode == http.StatusTooManyRequests {
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "rate limit exceeded, retry later",
			Err:      routing.ErrRateLimitExceeded,
		}
	}
	return &routing.Error{
		Provider: ProviderName,
		Code:     fmt.Sprintf("HTTP_%d", statusCode),
		Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
		Err:      routing.ErrProviderUnavailable,
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, err)
	}
}

func coordPair(c routing.Coordinate) string {
	return strconv.FormatFloat(c.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
}
