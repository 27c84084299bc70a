package polyline

import (
	"errors"
	"math"
	"testing"
)

func TestDecode_ValidPolyline(t *testing.T) {
	tests := []struct {
		name     string
		encoded  string
		expected []Coordinate
	}{
		{
			name:    "single point",
			encoded: Encode([]Coordinate{{Lat: 38.5, Lon: -120.2}}),
			expected: []Coordinate{
				{Lat: 38.5, Lon: -120.2},
			},
		},
		{
			name: "two points",
			encoded: Encode([]Coordinate{
				{Lat: 38.5, Lon: -120.2},
				{Lat: 40.7, Lon: -120.95},
			}),
			expected: []Coordinate{
				{Lat: 38.5, Lon: -120.2},
				{Lat: 40.7, Lon: -120.95},
			},
		},
		{
			name: "three points",
			encoded: Encode([]Coordinate{
				{Lat: 38.5, Lon: -120.2},
				{Lat: 40.7, Lon: -120.95},
				{Lat: 43.252, Lon: -126.453},
			}),
			expected: []Coordinate{
				{Lat: 38.5, Lon: -120.2},
				{Lat: 40.7, Lon: -120.95},
				{Lat: 43.252, Lon: -126.453},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Decode(tt.encoded)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d coordinates, got %d", len(tt.expected), len(result))
			}

			for i, coord := range result {
				if !coordsEqual(coord, tt.expected[i], 1e-6) {
					t.Errorf("coordinate %d: expected %+v, got %+v", i, tt.expected[i], coord)
				}
			}
		})
	}
}

func TestDecode_EmptyString(t *testing.T) {
	result, err := Decode("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestDecode_TruncatedInput(t *testing.T) {
	full := Encode([]Coordinate{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
	})

	tests := []struct {
		name    string
		encoded string
	}{
		// A continuation chunk (>= 0x20 before the +63 offset) with
		// nothing after it.
		{name: "cut mid-value", encoded: full[:1]},
		{name: "lone continuation byte", encoded: "_"},
		// Latitude decodes but the string ends before its longitude.
		{name: "missing longitude", encoded: full[:len(full)-1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coords, err := Decode(tt.encoded)
			if err == nil {
				t.Fatalf("expected error, got coords %v", coords)
			}
			if !errors.Is(err, ErrInvalidEncoding) {
				t.Errorf("expected ErrInvalidEncoding, got %v", err)
			}
		})
	}
}

func TestEncode_EmptyCoordinates(t *testing.T) {
	result := Encode(nil)
	if result != "" {
		t.Errorf("expected empty string for nil coordinates, got %q", result)
	}

	result = Encode([]Coordinate{})
	if result != "" {
		t.Errorf("expected empty string for empty coordinates, got %q", result)
	}
}

func TestRoundTrip_HighPrecision(t *testing.T) {
	// Encode->decode must preserve coordinates to 6 decimal places.
	coords := []Coordinate{
		{Lat: 19.432608, Lon: -99.133209},
		{Lat: 19.434117, Lon: -99.140912},
		{Lat: 19.426771, Lon: -99.167556},
		{Lat: -33.856784, Lon: 151.215297},
	}

	encoded := Encode(coords)
	if encoded == "" {
		t.Fatal("expected non-empty encoded string")
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != len(coords) {
		t.Fatalf("round-trip: expected %d coordinates, got %d", len(coords), len(decoded))
	}

	for i, coord := range decoded {
		if !coordsEqual(coord, coords[i], 1e-6) {
			t.Errorf("coordinate %d lost precision: expected %+v, got %+v", i, coords[i], coord)
		}
	}
}

func TestRoundTrip_NegativeDeltas(t *testing.T) {
	// Southbound and westbound paths exercise the negative delta branch.
	coords := []Coordinate{
		{Lat: 52.3676, Lon: 4.9041},
		{Lat: 52.0907, Lon: 4.8812},
		{Lat: 51.9244, Lon: 4.4777},
	}

	decoded, err := Decode(Encode(coords))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, coord := range decoded {
		if !coordsEqual(coord, coords[i], 1e-6) {
			t.Errorf("coordinate %d: expected %+v, got %+v", i, coords[i], coord)
		}
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name           string
		a, b           Coordinate
		expectedMeters float64
		tolerance      float64
	}{
		{
			name:           "same point",
			a:              Coordinate{Lat: 19.4326, Lon: -99.1332},
			b:              Coordinate{Lat: 19.4326, Lon: -99.1332},
			expectedMeters: 0,
			tolerance:      0,
		},
		{
			name:           "1 degree latitude - roughly 111km",
			a:              Coordinate{Lat: 0, Lon: 0},
			b:              Coordinate{Lat: 1, Lon: 0},
			expectedMeters: 111000,
			tolerance:      1000,
		},
		{
			name:           "0.01 degree longitude at equator - roughly 1.11km",
			a:              Coordinate{Lat: 0, Lon: 0},
			b:              Coordinate{Lat: 0, Lon: 0.01},
			expectedMeters: 1112,
			tolerance:      5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Distance(tt.a, tt.b)
			if diff := math.Abs(result - tt.expectedMeters); diff > tt.tolerance {
				t.Errorf("expected ~%.0fm (±%.0f), got %.1fm", tt.expectedMeters, tt.tolerance, result)
			}
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Coordinate{Lat: 19.4326, Lon: -99.1332}
	b := Coordinate{Lat: 19.3570, Lon: -99.0622}

	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestMidpoint(t *testing.T) {
	a := Coordinate{Lat: 10, Lon: 20}
	b := Coordinate{Lat: 12, Lon: 24}

	mid := Midpoint(a, b)
	if mid.Lat != 11 || mid.Lon != 22 {
		t.Errorf("expected (11, 22), got %+v", mid)
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		name           string
		coords         []Coordinate
		expectedMeters float64
		tolerance      float64
	}{
		{
			name:           "empty",
			coords:         nil,
			expectedMeters: 0,
			tolerance:      0,
		},
		{
			name:           "single point",
			coords:         []Coordinate{{Lat: 19.43, Lon: -99.13}},
			expectedMeters: 0,
			tolerance:      0,
		},
		{
			name: "two legs along the equator",
			coords: []Coordinate{
				{Lat: 0, Lon: 0},
				{Lat: 0, Lon: 0.01},
				{Lat: 0, Lon: 0.02},
			},
			expectedMeters: 2225,
			tolerance:      10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Length(tt.coords)
			if diff := math.Abs(result - tt.expectedMeters); diff > tt.tolerance {
				t.Errorf("expected ~%.0fm (±%.0f), got %.1fm", tt.expectedMeters, tt.tolerance, result)
			}
		})
	}
}

func coordsEqual(a, b Coordinate, tolerance float64) bool {
	return math.Abs(a.Lat-b.Lat) <= tolerance && math.Abs(a.Lon-b.Lon) <= tolerance
}

func BenchmarkDecode(b *testing.B) {
	encoded := Encode([]Coordinate{
		{Lat: 19.432608, Lon: -99.133209},
		{Lat: 19.434117, Lon: -99.140912},
		{Lat: 19.426771, Lon: -99.167556},
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decode(encoded)
	}
}

func BenchmarkEncode(b *testing.B) {
	coords := []Coordinate{
		{Lat: 19.432608, Lon: -99.133209},
		{Lat: 19.434117, Lon: -99.140912},
		{Lat: 19.426771, Lon: -99.167556},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Encode(coords)
	}
}
