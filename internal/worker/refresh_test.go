package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanroute/cleanroute/internal/airgrid"
	"github.com/cleanroute/cleanroute/internal/worker"
)

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.RefreshAirGrid)
	assert.True(t, cfg.RefreshWeather)
	assert.NotEmpty(t, cfg.Targets)
}

func TestDefaultRefreshTargets(t *testing.T) {
	targets := worker.DefaultRefreshTargets()

	assert.GreaterOrEqual(t, len(targets), 5)

	var centro *worker.RefreshTarget
	for i := range targets {
		if targets[i].Name == "Centro" {
			centro = &targets[i]
			break
		}
	}
	require.NotNil(t, centro, "Centro should be in targets")
	assert.Equal(t, 1, centro.Priority)
	assert.GreaterOrEqual(t, len(centro.Points), 2)
}

func TestRefreshConfig_AllPoints(t *testing.T) {
	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{
				Name:   "Region A",
				Points: []worker.Point{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}},
			},
			{
				Name:   "Region B",
				Points: []worker.Point{{Lat: 3, Lon: 3}},
			},
		},
	}

	assert.Len(t, cfg.AllPoints(), 3)
	assert.Equal(t, 3, cfg.TotalPoints())
}

type stubGridProvider struct {
	calls int64
	err   error
}

func (p *stubGridProvider) GetCell(_ context.Context, _, _ float64, _ time.Time) (*airgrid.CellReading, error) {
	atomic.AddInt64(&p.calls, 1)
	if p.err != nil {
		return nil, p.err
	}
	return &airgrid.CellReading{AQI: 42, FetchedAt: time.Now()}, nil
}

func (p *stubGridProvider) GetNearby(_ context.Context, _, _ float64, _, _ int) ([]*airgrid.Location, error) {
	return nil, nil
}

func (p *stubGridProvider) Name() string { return "stub" }

func TestRefreshJob_Run_WarmsGridCache(t *testing.T) {
	provider := &stubGridProvider{}
	grid := airgrid.NewService(provider, airgrid.NewMemoryCache(), airgrid.ServiceConfig{
		Logger: zerolog.Nop(),
	})

	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{
				Name: "Test",
				Points: []worker.Point{
					{Lat: 19.4326, Lon: -99.1332},
					{Lat: 19.3574, Lon: -99.0671},
				},
			},
		},
		Concurrency:    2,
		Timeout:        time.Second,
		RefreshAirGrid: true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:      cfg,
		Logger:      zerolog.Nop(),
		GridService: grid,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, int64(2), atomic.LoadInt64(&provider.calls))

	// Second run should be served from the warm cache.
	_ = job.Run(context.Background())
	assert.Equal(t, int64(2), atomic.LoadInt64(&provider.calls))
}

func TestRefreshJob_Run_CollectsErrors(t *testing.T) {
	provider := &stubGridProvider{err: errors.New("connection refused")}
	grid := airgrid.NewService(provider, airgrid.NewMemoryCache(), airgrid.ServiceConfig{
		Logger: zerolog.Nop(),
	})

	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{
				Name:   "Test",
				Points: []worker.Point{{Lat: 19.43, Lon: -99.13}},
			},
		},
		Concurrency:    1,
		Timeout:        time.Second,
		RefreshAirGrid: true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:      cfg,
		Logger:      zerolog.Nop(),
		GridService: grid,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "stub", result.Errors[0].Provider)
	assert.Contains(t, result.Errors[0].Error, "connection refused")
}

func TestRefreshJob_Run_NoServices(t *testing.T) {
	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{
				Name:   "Test",
				Points: []worker.Point{{Lat: 19.43, Lon: -99.13}},
			},
		},
		Concurrency:    1,
		Timeout:        time.Second,
		RefreshAirGrid: true,
		RefreshWeather: true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: cfg,
		Logger: zerolog.Nop(),
	})

	result := job.Run(context.Background())

	assert.NotNil(t, result)
	assert.Equal(t, 1, result.TotalPoints)
	assert.Equal(t, 1, result.Successful)
}

func TestRefreshJob_GetMetrics(t *testing.T) {
	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{
				Name:   "Test",
				Points: []worker.Point{{Lat: 19.43, Lon: -99.13}},
			},
		},
		Concurrency: 1,
		Timeout:     time.Second,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: cfg,
		Logger: zerolog.Nop(),
	})

	_ = job.Run(context.Background())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRefreshes)
	assert.NotZero(t, metrics.LastRefreshAt)
}

func TestRefreshJob_MetricsSnapshot(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets: []worker.RefreshTarget{
				{Name: "Test", Points: []worker.Point{{Lat: 19.43, Lon: -99.13}}},
			},
			Concurrency: 1,
			Timeout:     time.Second,
		},
		Logger: zerolog.Nop(),
	})

	_ = job.Run(context.Background())

	snapshot := job.MetricsSnapshot()
	assert.Contains(t, snapshot, "total_refreshes")
	assert.Contains(t, snapshot, "successful_refreshes")
	assert.Contains(t, snapshot, "failed_refreshes")
	assert.Contains(t, snapshot, "airgrid_refreshes")
	assert.Contains(t, snapshot, "last_refresh_at")
}

func TestRefreshJob_Run_WithConcurrency(t *testing.T) {
	points := make([]worker.Point, 10)
	for i := range points {
		points[i] = worker.Point{Lat: 19.0 + float64(i)*0.1, Lon: -99.0 - float64(i)*0.1}
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets:     []worker.RefreshTarget{{Name: "Test", Points: points}},
			Concurrency: 3,
			Timeout:     time.Second,
		},
		Logger: zerolog.Nop(),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 10, result.TotalPoints)
	assert.Equal(t, 10, result.Successful)
}

func TestRefreshJob_Run_ContextCancellation(t *testing.T) {
	points := make([]worker.Point, 100)
	for i := range points {
		points[i] = worker.Point{Lat: 19.0 + float64(i)*0.01, Lon: -99.0 - float64(i)*0.01}
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets:     []worker.RefreshTarget{{Name: "Test", Points: points}},
			Concurrency: 1,
			Timeout:     100 * time.Millisecond,
		},
		Logger: zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)
	assert.NotNil(t, result)
}

func TestNewRefreshJob_DefaultConfig(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger: zerolog.Nop(),
	})

	metrics := job.GetMetrics()
	assert.Equal(t, int64(0), metrics.TotalRefreshes)
}
