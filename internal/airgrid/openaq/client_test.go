package openaq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanroute/cleanroute/internal/airgrid"
)

const locationsBody = `{
	"results": [
		{
			"id": 2178,
			"name": "Centro",
			"locality": "Mexico City",
			"distance": 412.7,
			"coordinates": {"latitude": 19.4326, "longitude": -99.1332},
			"sensors": [
				{"id": 11, "parameter": {"name": "pm25", "units": "µg/m³"}},
				{"id": 12, "parameter": {"name": "o3", "units": "ppm"}},
				{"id": 13, "parameter": {"name": "no2", "units": "ppm"}}
			]
		}
	]
}`

const latestBody = `{
	"results": [
		{"sensorsId": 11, "value": 15.0},
		{"sensorsId": 12, "value": 0.040},
		{"sensorsId": 13, "value": 0.030},
		{"sensorsId": 99, "value": 123.0}
	]
}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/locations", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("X-API-Key = %q, want test-key", r.Header.Get("X-API-Key"))
		}
		if r.URL.Query().Get("coordinates") == "" {
			t.Error("missing coordinates parameter")
		}
		_, _ = w.Write([]byte(locationsBody))
	})
	mux.HandleFunc("/v3/locations/2178/latest", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(latestBody))
	})
	return httptest.NewServer(mux)
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_GetCell(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	reading, err := newTestClient(server).GetCell(context.Background(), 19.43, -99.13, time.Now())
	if err != nil {
		t.Fatalf("GetCell: %v", err)
	}

	if reading.PM25 == nil || *reading.PM25 != 15.0 {
		t.Errorf("PM25 = %v, want 15.0", reading.PM25)
	}
	if reading.O3 == nil || *reading.O3 != 0.040 {
		t.Errorf("O3 = %v, want 0.040", reading.O3)
	}
	if reading.PM10 != nil {
		t.Errorf("PM10 = %v, want nil (unmeasured)", reading.PM10)
	}
	// pm25 15 -> 56, o3 0.040 -> 37, no2 0.030 -> 28; composite is the max.
	if reading.AQI != 56 {
		t.Errorf("AQI = %d, want 56", reading.AQI)
	}
}

func TestClient_GetCell_DuplicateSensorsFirstValueWins(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/locations", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"results": [
				{
					"id": 3001,
					"name": "Doble",
					"coordinates": {"latitude": 19.43, "longitude": -99.13},
					"sensors": [
						{"id": 21, "parameter": {"name": "pm25", "units": "µg/m³"}},
						{"id": 22, "parameter": {"name": "pm25", "units": "µg/m³"}}
					]
				}
			]
		}`))
	})
	mux.HandleFunc("/v3/locations/3001/latest", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"results": [
				{"sensorsId": 21, "value": 15.0},
				{"sensorsId": 22, "value": 90.0}
			]
		}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	reading, err := newTestClient(server).GetCell(context.Background(), 19.43, -99.13, time.Now())
	if err != nil {
		t.Fatalf("GetCell: %v", err)
	}
	if reading.PM25 == nil || *reading.PM25 != 15.0 {
		t.Errorf("PM25 = %v, want first-seen 15.0", reading.PM25)
	}
	if reading.AQI != 56 {
		t.Errorf("AQI = %d, want 56", reading.AQI)
	}
}

func TestClient_GetCell_NoStationInRange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/locations", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	reading, err := newTestClient(server).GetCell(context.Background(), 0, 0, time.Now())
	if err != nil {
		t.Fatalf("GetCell: %v", err)
	}
	if reading.AQI != 0 || reading.PM25 != nil {
		t.Errorf("reading = %+v, want empty clean reading", reading)
	}
}

func TestClient_GetCell_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server).GetCell(context.Background(), 19.43, -99.13, time.Now())
	if !errors.Is(err, airgrid.ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestClient_GetNearby(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	locations, err := newTestClient(server).GetNearby(context.Background(), 19.43, -99.13, 5000, 5)
	if err != nil {
		t.Fatalf("GetNearby: %v", err)
	}
	if len(locations) != 1 {
		t.Fatalf("locations = %d, want 1", len(locations))
	}

	loc := locations[0]
	if loc.ID != 2178 || loc.Name != "Centro" {
		t.Errorf("location = %+v", loc)
	}
	if loc.AQI != 56 {
		t.Errorf("AQI = %d, want 56", loc.AQI)
	}
	if loc.Category.Label != "Moderate" {
		t.Errorf("category = %q, want Moderate", loc.Category.Label)
	}
	if loc.DistanceMeters == nil || *loc.DistanceMeters != 412.7 {
		t.Errorf("distance = %v, want 412.7", loc.DistanceMeters)
	}
}
