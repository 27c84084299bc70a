// Package openweathermap provides an airgrid forecast provider backed by
// the OpenWeatherMap air pollution forecast API.
//
// OpenWeatherMap grades air quality on a 1-5 scale rather than the EPA
// 0-500 index, so each hourly entry is mapped to the midpoint of the
// corresponding EPA category band.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanroute/cleanroute/internal/airgrid"
	"github.com/cleanroute/cleanroute/internal/aqi"
	"github.com/cleanroute/cleanroute/internal/provider/resilience"
)

const (
	// ProviderName identifies this forecast provider.
	ProviderName = "openweathermap-air"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the forecast client.
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

// Client is an OpenWeatherMap air pollution forecast client implementing
// airgrid.ForecastProvider.
type Client struct {
	apiKey   string
	baseURL  string
	http     HTTPDoer
	registry *resilience.Registry
	log      zerolog.Logger
	now      func() time.Time
}

// NewClient creates a forecast client.
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
		now:      time.Now,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetForecast fetches hourly air quality predictions at (lat, lon) and
// keeps those falling within the next hours hours.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64, hours int) ([]airgrid.ForecastEntry, error) {
	query := url.Values{
		"lat":   {fmt.Sprintf("%.6f", lat)},
		"lon":   {fmt.Sprintf("%.6f", lon)},
		"appid": {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/air_pollution/forecast?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(err)
		return nil, fmt.Errorf("%w: %s", airgrid.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: status %d", airgrid.ErrProviderUnavailable, resp.StatusCode)
		c.recordFailure(err)
		return nil, err
	}

	var parsed forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}

	cutoff := c.now().UTC().Add(time.Duration(hours) * time.Hour)
	entries := make([]airgrid.ForecastEntry, 0, len(parsed.List))
	for _, item := range parsed.List {
		at := time.Unix(item.Dt, 0).UTC()
		if at.After(cutoff) {
			break
		}
		entries = append(entries, toEntry(at, &item))
	}

	c.log.Debug().Int("entries", len(entries)).Int("hours", hours).
		Msg("fetched air quality forecast")
	return entries, nil
}

func toEntry(at time.Time, item *forecastItem) airgrid.ForecastEntry {
	epa := epaMidpoint(item.Main.AQI)
	entry := airgrid.ForecastEntry{
		Time:     at,
		AQI:      epa,
		Category: aqi.Categorize(epa),
	}
	entry.Pollutants.AQI = epa
	set := func(dst **float64, key string) {
		if v, ok := item.Components[key]; ok {
			value := v
			*dst = &value
		}
	}
	set(&entry.Pollutants.PM25, "pm2_5")
	set(&entry.Pollutants.PM10, "pm10")
	set(&entry.Pollutants.O3, "o3")
	set(&entry.Pollutants.NO2, "no2")
	set(&entry.Pollutants.CO, "co")
	set(&entry.Pollutants.SO2, "so2")
	return entry
}

// epaMidpoint maps OpenWeatherMap's 1-5 air quality grade to the midpoint
// of the matching EPA category band. Unknown grades map to 0.
func epaMidpoint(grade int) int {
	switch grade {
	case 1:
		return 25
	case 2:
		return 75
	case 3:
		return 125
	case 4:
		return 175
	case 5:
		return 250
	default:
		return 0
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, err)
	}
}
