// Package openaq provides an airgrid provider backed by the OpenAQ v3 API.
//
// OpenAQ reports per-sensor measurements, so building a cell reading takes
// two calls: one to find monitoring locations near the point, one to fetch
// the latest values for the chosen location's sensors.
package openaq

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

	"github.com/cleanroute/cleanroute/internal/airgrid"
	"github.com/cleanroute/cleanroute/internal/aqi"
	"github.com/cleanroute/cleanroute/internal/provider/resilience"
)

const (
	// ProviderName identifies this air quality provider.
	ProviderName = "openaq"

	// DefaultBaseURL is the OpenAQ API base URL.
	DefaultBaseURL = "https://api.openaq.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultRadiusMeters is how far to look for a monitoring station when
	// resolving a grid cell.
	DefaultRadiusMeters = 12000
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenAQ client.
type ClientConfig struct {
	// APIKey is sent as X-API-Key on every request (required).
	APIKey string

	// BaseURL overrides the OpenAQ API base URL.
	BaseURL string

	// HTTPClient overrides the resilient client built by default.
	HTTPClient HTTPDoer

	// Timeout for individual requests when the default client is used.
	Timeout time.Duration

	// RadiusMeters is the station search radius for cell readings.
	RadiusMeters int

	// Registry receives success/failure reports for health tracking.
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// Client is an OpenAQ v3 API client implementing airgrid.Provider.
type Client struct {
	apiKey   string
	baseURL  string
	radius   int
	http     HTTPDoer
	registry *resilience.Registry
	log      zerolog.Logger
}

// NewClient creates an OpenAQ client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = DefaultRadiusMeters
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
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		radius:   cfg.RadiusMeters,
		http:     httpClient,
		registry: cfg.Registry,
		log:      cfg.Logger.With().Str("provider", ProviderName).Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetCell resolves the nearest monitoring location to (lat, lon) and builds
// a cell reading from its latest measurements. A point with no station in
// range yields a clean reading rather than an error: open country without
// monitoring coverage is not a provider failure.
func (c *Client) GetCell(ctx context.Context, lat, lon float64, _ time.Time) (*airgrid.CellReading, error) {
	locations, err := c.fetchLocations(ctx, lat, lon, c.radius, 1)
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}
	if len(locations) == 0 {
		c.log.Debug().
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("no monitoring location in range")
		return &airgrid.CellReading{}, nil
	}

	reading, err := c.fetchReading(ctx, &locations[0])
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
	return reading, nil
}

// GetNearby lists monitoring locations around a point with their current
// composite AQI.
func (c *Client) GetNearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]*airgrid.Location, error) {
	if radiusMeters <= 0 {
		radiusMeters = c.radius
	}
	if limit <= 0 {
		limit = 10
	}

	locations, err := c.fetchLocations(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}

	out := make([]*airgrid.Location, 0, len(locations))
	for i := range locations {
		loc := &locations[i]
		reading, err := c.fetchReading(ctx, loc)
		if err != nil {
			// One dead station should not empty the listing.
			c.log.Warn().Err(err).Int64("location_id", loc.ID).
				Msg("skipping location with unavailable measurements")
			continue
		}
		out = append(out, &airgrid.Location{
			ID:             loc.ID,
			Name:           loc.Name,
			Locality:       loc.Locality,
			Lat:            loc.Coordinates.Latitude,
			Lon:            loc.Coordinates.Longitude,
			DistanceMeters: loc.Distance,
			AQI:            reading.AQI,
			Category:       aqi.Categorize(reading.AQI),
			Pollutants:     *reading,
		})
	}
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
	return out, nil
}

func (c *Client) fetchLocations(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]location, error) {
	query := url.Values{
		"coordinates": {fmt.Sprintf("%.6f,%.6f", lat, lon)},
		"radius":      {strconv.Itoa(radiusMeters)},
		"limit":       {strconv.Itoa(limit)},
	}
	var parsed locationsResponse
	if err := c.getJSON(ctx, "/v3/locations?"+query.Encode(), &parsed); err != nil {
		return nil, err
	}
	return parsed.Results, nil
}

// fetchReading pulls the latest sensor values for a location and folds them
// into a cell reading with a composite AQI.
func (c *Client) fetchReading(ctx context.Context, loc *location) (*airgrid.CellReading, error) {
	var parsed latestResponse
	path := fmt.Sprintf("/v3/locations/%d/latest", loc.ID)
	if err := c.getJSON(ctx, path, &parsed); err != nil {
		return nil, err
	}

	sensorParam := make(map[int64]string, len(loc.Sensors))
	for _, s := range loc.Sensors {
		sensorParam[s.ID] = s.Parameter.Name
	}

	// A location can host several sensors for the same parameter; the first
	// value seen wins and later ones are ignored.
	reading := &airgrid.CellReading{}
	for _, m := range parsed.Results {
		v := m.Value
		switch sensorParam[m.SensorsID] {
		case "pm25":
			if reading.PM25 == nil {
				reading.PM25 = &v
			}
		case "pm10":
			if reading.PM10 == nil {
				reading.PM10 = &v
			}
		case "o3":
			if reading.O3 == nil {
				reading.O3 = &v
			}
		case "no2":
			if reading.NO2 == nil {
				reading.NO2 = &v
			}
		case "co":
			if reading.CO == nil {
				reading.CO = &v
			}
		case "so2":
			if reading.SO2 == nil {
				reading.SO2 = &v
			}
		}
	}
	reading.AQI = aqi.Composite(reading.Reading())
	return reading, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", airgrid.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", airgrid.ErrProviderUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, err)
	}
}
