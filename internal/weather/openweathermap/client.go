// Package openweathermap provides a weather provider backed by the
// OpenWeatherMap current weather API.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanroute/cleanroute/internal/provider/resilience"
	"github.com/cleanroute/cleanroute/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL overrides the API base URL.
	BaseURL string

	// HTTPClient overrides the resilient client built by default.
	HTTPClient HTTPDoer

	// Timeout for individual requests when the default client is used.
	Timeout time.Duration

	// Registry receives success/failure reports for health tracking.
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client implementing weather.Provider.
type Client struct {
	apiKey   string
	baseURL  string
	http     HTTPDoer
	registry *resilience.Registry
	log      zerolog.Logger
}

// NewClient creates an OpenWeatherMap client.
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
		apiKey:   cfg.APIKey,
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

// GetCurrent fetches the current observation at (lat, lon) in metric units.
func (c *Client) GetCurrent(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	query := url.Values{
		"lat":   {fmt.Sprintf("%.6f", lat)},
		"lon":   {fmt.Sprintf("%.6f", lon)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/weather?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(err)
		return nil, fmt.Errorf("%w: %s", weather.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, weather.ErrNoDataForLocation
	case resp.StatusCode != http.StatusOK:
		err := fmt.Errorf("%w: status %d", weather.ErrProviderUnavailable, resp.StatusCode)
		c.recordFailure(err)
		return nil, err
	}

	var parsed currentWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
	return toObservation(&parsed), nil
}

func toObservation(resp *currentWeatherResponse) *weather.Observation {
	obs := &weather.Observation{
		Lat:           resp.Coord.Lat,
		Lon:           resp.Coord.Lon,
		TemperatureC:  resp.Main.Temp,
		Humidity:      resp.Main.Humidity,
		Pressure:      resp.Main.Pressure,
		WindSpeed:     resp.Wind.Speed,
		WindDirection: resp.Wind.Deg,
		WindGust:      resp.Wind.Gust,
		RainMM:        resp.Rain.OneHour,
		Condition:     weather.ConditionUnknown,
		ObservedAt:    time.Unix(resp.Dt, 0).UTC(),
	}
	if len(resp.Weather) > 0 {
		obs.Condition = toCondition(resp.Weather[0].Main)
		obs.Description = resp.Weather[0].Description
	}
	return obs
}

func toCondition(main string) weather.Condition {
	switch strings.ToLower(main) {
	case "clear":
		return weather.ConditionClear
	case "clouds":
		return weather.ConditionClouds
	case "rain":
		return weather.ConditionRain
	case "drizzle":
		return weather.ConditionDrizzle
	case "thunderstorm":
		return weather.ConditionThunderstorm
	case "snow":
		return weather.ConditionSnow
	case "mist", "fog", "haze", "smoke":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, err)
	}
}
