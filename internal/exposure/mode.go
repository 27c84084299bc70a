// Package exposure scores routes by pollutant inhalation and selects the
// best route among candidates by weighted distance and exposure.
package exposure

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is a travel mode supported by the scoring engine.
type Mode string

// Supported travel modes.
const (
	ModeWalk Mode = "walk"
	ModeRun  Mode = "run"
	ModeBike Mode = "bike"
)

// ErrUnsupportedMode indicates a travel mode outside the supported set.
var ErrUnsupportedMode = errors.New("unsupported travel mode")

type modeProfile struct {
	// speed in km/h used to estimate segment traversal time.
	speedKmh float64
	// inhalation scales exposure by breathing rate relative to walking.
	inhalation float64
}

var modeProfiles = map[Mode]modeProfile{
	ModeWalk: {speedKmh: 4.8, inhalation: 1.0},
	ModeRun:  {speedKmh: 9.0, inhalation: 1.2},
	ModeBike: {speedKmh: 15.0, inhalation: 0.9},
}

// ParseMode validates a travel mode string, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := modeProfiles[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
	return m, nil
}

// SpeedKmh returns the assumed travel speed for the mode in km/h.
func (m Mode) SpeedKmh() float64 { return modeProfiles[m].speedKmh }

// Inhalation returns the breathing rate multiplier for the mode.
func (m Mode) Inhalation() float64 { return modeProfiles[m].inhalation }

// Valid reports whether the mode is one of the supported modes.
func (m Mode) Valid() bool {
	_, ok := modeProfiles[m]
	return ok
}
