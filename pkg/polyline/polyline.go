// Package polyline provides encoding and decoding utilities for Google's polyline algorithm
// at precision 6 (polyline6), the format emitted by OSRM when geometries=polyline6 is requested.
// The algorithm is documented at: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"
)

// ErrInvalidEncoding is returned by Decode when the input ends in the
// middle of a varint chunk sequence or carries a latitude without a
// matching longitude.
var ErrInvalidEncoding = errors.New("polyline: invalid encoding")

// precisionScale is the fixed coordinate scale factor (6 decimal digits).
const precisionScale = 1e6

// earthRadiusMeters is the mean Earth radius used for haversine distances.
const earthRadiusMeters = 6371000

// Coordinate represents a geographic point with latitude and longitude in WGS84 degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Decode decodes a polyline6-encoded string into a slice of coordinates.
// It returns ErrInvalidEncoding when the input is truncated mid-value.
func Decode(encoded string) ([]Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	var coords []Coordinate
	index := 0
	lat := 0
	lon := 0

	for index < len(encoded) {
		latDelta, newIndex, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		index = newIndex
		lat += latDelta

		lonDelta, newIndex, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		index = newIndex
		lon += lonDelta

		coords = append(coords, Coordinate{
			Lat: float64(lat) / precisionScale,
			Lon: float64(lon) / precisionScale,
		})
	}

	return coords, nil
}

// decodeValue decodes a single zig-zag encoded delta starting at index.
// Returns the decoded delta and the new index position.
func decodeValue(encoded string, index int) (int, int, error) {
	shift := 0
	result := 0
	terminated := false

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			terminated = true
			break
		}
	}

	// Every value ends with a chunk below 0x20; running out of input
	// before seeing one means the string was cut short.
	if !terminated {
		return 0, index, ErrInvalidEncoding
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// Encode encodes a slice of coordinates into a polyline6-encoded string.
// It is the exact inverse of Decode up to the 1e-6 degree quantization.
func Encode(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	encoded := make([]byte, 0, len(coords)*6)
	prevLat := 0
	prevLon := 0

	for _, coord := range coords {
		lat := int(math.Round(coord.Lat * precisionScale))
		lon := int(math.Round(coord.Lon * precisionScale))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat = lat
		prevLon = lon
	}

	return string(encoded)
}

// encodeValue appends a single delta in zig-zag, 5-bit chunked form.
func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	buf = append(buf, byte(value)+63)

	return buf
}

// Distance calculates the great-circle distance between two coordinates in meters
// using the haversine formula.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Midpoint returns the arithmetic midpoint of two coordinates.
// At city scale the flat approximation is within centimeters of the geodesic midpoint.
func Midpoint(a, b Coordinate) Coordinate {
	return Coordinate{
		Lat: (a.Lat + b.Lat) / 2,
		Lon: (a.Lon + b.Lon) / 2,
	}
}

// Length calculates the total length of a polyline in meters.
func Length(coords []Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(coords); i++ {
		total += Distance(coords[i-1], coords[i])
	}
	return total
}
