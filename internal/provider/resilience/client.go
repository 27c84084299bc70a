// Package resilience wraps outbound HTTP calls to environmental data
// providers with circuit breaking and retry behavior.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned while a provider's circuit is open.
	ErrCircuitOpen = errors.New("provider circuit open")
)

// UpstreamError is a retryable 5xx response from a provider.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d", e.StatusCode)
}

// ClientConfig configures a resilient provider client. Zero values select
// defaults.
type ClientConfig struct {
	// Name identifies the provider in logs and circuit breaker state.
	Name string

	// Timeout bounds each individual HTTP attempt. Default 10s.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	// Default 3.
	MaxRetries uint64

	// InitialInterval and MaxInterval shape the exponential backoff.
	// Defaults 100ms and 5s.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Breaker overrides the circuit breaker settings.
	Breaker *BreakerConfig

	Logger zerolog.Logger
}

// Client is an HTTP client that retries transient failures with
// exponential backoff and stops calling a provider whose circuit is open.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	cfg     ClientConfig
	log     zerolog.Logger
}

// NewClient creates a resilient client for one provider.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	log := cfg.Logger.With().Str("provider", cfg.Name).Logger()

	bc := DefaultBreakerConfig(cfg.Name)
	if cfg.Breaker != nil {
		bc = *cfg.Breaker
	}
	if bc.OnStateChange == nil {
		bc.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		}
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: NewBreaker[*http.Response](bc), //nolint:bodyclose // type parameter, not a response
		cfg:     cfg,
		log:     log,
	}
}

// Do executes req with retries and circuit breaking. 5xx responses count
// as failures and are retried; a 5xx that survives all retries is returned
// as the response so callers can inspect it. The caller closes the body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext is Do with an explicit context governing retries.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0 // retries are bounded by count, not wall time

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var lastResp *http.Response

	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.http.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				return r, &UpstreamError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				lastResp = resp
			}
			return err
		}
		lastResp = resp
		return nil
	}

	if err := backoff.Retry(attempt, policy); err != nil {
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}
	return lastResp, nil
}

// State returns the client's current circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the circuit breaker's request statistics.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}
