// Package worker provides background cache warming for cleanroute.
package worker

import (
	"time"
)

// RefreshTarget represents a geographic region to pre-warm.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon coordinates to refresh.
	// Typically the centers of dense commuter corridors.
	Points []Point

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// RefreshConfig holds configuration for the cache refresh job.
type RefreshConfig struct {
	// Targets are the geographic regions to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshAirGrid enables air quality cell refresh.
	// Default: true
	RefreshAirGrid bool

	// RefreshWeather enables weather refresh.
	// Default: true
	RefreshWeather bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:        DefaultRefreshTargets(),
		Concurrency:    3,
		Timeout:        30 * time.Second,
		RefreshAirGrid: true,
		RefreshWeather: true,
	}
}

// DefaultRefreshTargets returns the default refresh targets for the
// Mexico City metropolitan area and its main commuter corridors.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "Centro",
			Priority: 1,
			Points: []Point{
				{Lat: 19.4326, Lon: -99.1332}, // Zócalo
				{Lat: 19.4361, Lon: -99.1413}, // Alameda Central
				{Lat: 19.4270, Lon: -99.1677}, // Chapultepec
			},
		},
		{
			Name:     "Reforma-Polanco",
			Priority: 1,
			Points: []Point{
				{Lat: 19.4284, Lon: -99.1530}, // Paseo de la Reforma
				{Lat: 19.4336, Lon: -99.1916}, // Polanco
			},
		},
		{
			Name:     "Condesa-Roma",
			Priority: 1,
			Points: []Point{
				{Lat: 19.4113, Lon: -99.1716}, // Condesa
				{Lat: 19.4194, Lon: -99.1599}, // Roma Norte
			},
		},
		{
			Name:     "Coyoacán",
			Priority: 2,
			Points: []Point{
				{Lat: 19.3500, Lon: -99.1620}, // Centro de Coyoacán
				{Lat: 19.3321, Lon: -99.1861}, // Ciudad Universitaria
			},
		},
		{
			Name:     "Santa Fe",
			Priority: 2,
			Points: []Point{
				{Lat: 19.3594, Lon: -99.2597}, // Santa Fe
			},
		},
		{
			Name:     "Norte",
			Priority: 2,
			Points: []Point{
				{Lat: 19.4969, Lon: -99.1190}, // Basílica / La Villa
				{Lat: 19.4739, Lon: -99.2035}, // Azcapotzalco
			},
		},
		{
			Name:     "Iztapalapa",
			Priority: 3,
			Points: []Point{
				{Lat: 19.3574, Lon: -99.0671},
			},
		},
		{
			Name:     "Xochimilco",
			Priority: 3,
			Points: []Point{
				{Lat: 19.2578, Lon: -99.1039},
			},
		},
	}
}

// AllPoints returns all points from all targets.
func (c RefreshConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to refresh.
func (c RefreshConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
