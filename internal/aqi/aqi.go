// Package aqi converts raw pollutant concentrations into US-EPA-style Air
// Quality Index values using piecewise-linear breakpoint tables.
package aqi

import (
	"github.com/rs/zerolog"
)

// Pollutant identifies a pollutant in a reading.
// Particulates are measured in µg/m³, gases in ppm.
type Pollutant string

const (
	PollutantPM25 Pollutant = "pm25"
	PollutantPM10 Pollutant = "pm10"
	PollutantO3   Pollutant = "o3"
	PollutantNO2  Pollutant = "no2"
	PollutantCO   Pollutant = "co"
	PollutantSO2  Pollutant = "so2"
)

// Pollutants lists all pollutants with defined breakpoint tables, in the
// order sub-indices are evaluated.
var Pollutants = []Pollutant{
	PollutantPM25,
	PollutantPM10,
	PollutantO3,
	PollutantNO2,
	PollutantCO,
	PollutantSO2,
}

// Reading maps pollutants to measured concentrations. A pollutant absent
// from the map is unmeasured, which is not the same as a zero concentration.
type Reading map[Pollutant]float64

// Saturated is the sub-index returned for concentrations above the highest
// defined band. The tables stop at index 300 rather than continuing to the
// full EPA 0-500 scale.
const Saturated = 301

// band is one piecewise-linear segment of a breakpoint table: concentrations
// in (Clo, Chi] map linearly onto indices [Ilo, Ihi].
type band struct {
	cLo, cHi float64
	iLo, iHi float64
}

// ppbScale converts ppm gas concentrations to ppb before table lookup.
const ppbScale = 1000

// breakpoints holds the per-pollutant band tables. NO2 and SO2 bands are in
// ppb; their inputs are converted from ppm before lookup.
var breakpoints = map[Pollutant][]band{
	PollutantPM25: {
		{0, 12.0, 0, 50},
		{12.1, 35.4, 50, 100},
		{35.5, 55.4, 100, 150},
		{55.5, 150.4, 150, 200},
		{150.5, 250.4, 200, 300},
	},
	PollutantPM10: {
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
	},
	PollutantO3: {
		{0, 0.054, 0, 50},
		{0.055, 0.070, 51, 100},
		{0.071, 0.085, 101, 150},
		{0.086, 0.105, 151, 200},
		{0.106, 0.200, 201, 300},
	},
	PollutantNO2: {
		{0, 53, 0, 50},
		{54, 100, 51, 100},
		{101, 360, 101, 150},
		{361, 649, 151, 200},
		{650, 1249, 201, 300},
	},
	PollutantCO: {
		{0, 4.4, 0, 50},
		{4.5, 9.4, 51, 100},
		{9.5, 12.4, 101, 150},
		{12.5, 15.4, 151, 200},
		{15.5, 30.4, 201, 300},
	},
	PollutantSO2: {
		{0, 35, 0, 50},
		{36, 75, 51, 100},
		{76, 185, 101, 150},
		{186, 304, 151, 200},
		{305, 604, 201, 300},
	},
}

// Subindex computes the AQI sub-index for a single pollutant concentration.
// The first band whose upper bound covers the concentration is interpolated
// linearly and truncated to an integer. Concentrations above the highest
// band return Saturated. Unknown pollutants return 0.
func Subindex(p Pollutant, concentration float64) int {
	bands, ok := breakpoints[p]
	if !ok {
		return 0
	}

	// NO2 and SO2 tables are in ppb, measurements arrive in ppm.
	if p == PollutantNO2 || p == PollutantSO2 {
		concentration *= ppbScale
	}

	return lookup(bands, concentration)
}

// lookup interpolates a concentration against a band table, truncating the
// result to an integer. Values above the highest band saturate.
func lookup(bands []band, concentration float64) int {
	if concentration <= 0 {
		return 0
	}

	for _, b := range bands {
		if concentration <= b.cHi {
			return int(b.iLo + (concentration-b.cLo)*(b.iHi-b.iLo)/(b.cHi-b.cLo))
		}
	}

	return Saturated
}

// Composite returns the overall AQI for a reading: the maximum sub-index
// across all measured pollutants, or 0 for an empty reading.
func Composite(r Reading) int {
	max := 0
	for _, p := range Pollutants {
		c, ok := r[p]
		if !ok {
			continue
		}
		if sub := Subindex(p, c); sub > max {
			max = sub
		}
	}
	return max
}

// Calculator computes composite AQI values with per-pollutant diagnostics.
type Calculator struct {
	logger zerolog.Logger
}

// NewCalculator creates a Calculator that logs each sub-index at debug level.
func NewCalculator(logger zerolog.Logger) *Calculator {
	return &Calculator{logger: logger}
}

// Composite computes the composite AQI, logging each measured sub-index.
func (c *Calculator) Composite(r Reading) int {
	max := 0
	for _, p := range Pollutants {
		value, ok := r[p]
		if !ok {
			continue
		}
		sub := Subindex(p, value)
		c.logger.Debug().
			Str("pollutant", string(p)).
			Float64("concentration", value).
			Int("subindex", sub).
			Msg("computed AQI sub-index")
		if sub > max {
			max = sub
		}
	}
	return max
}
