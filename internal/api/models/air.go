package models

// AirCurrentResponse answers GET /v1/air/current.
type AirCurrentResponse struct {
	Location Point  `json:"location"`
	AQI      int    `json:"aqi"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Message  string `json:"message,omitempty"`

	Pollutants map[string]float64 `json:"pollutants,omitempty"`

	Rain float64  `json:"rain"`
	PBL  float64  `json:"pbl,omitempty"`
	Wind WindInfo `json:"wind"`
}

// WindInfo is a wind vector in m/s.
type WindInfo struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// AirLocation is one monitored location in a nearby listing.
type AirLocation struct {
	ID             int64              `json:"id"`
	Name           string             `json:"name"`
	Locality       string             `json:"locality,omitempty"`
	Location       Point              `json:"location"`
	DistanceMeters *float64           `json:"distanceMeters,omitempty"`
	AQI            int                `json:"aqi"`
	Category       string             `json:"category"`
	Color          string             `json:"color"`
	Pollutants     map[string]float64 `json:"pollutants,omitempty"`
}

// AirForecastEntry is one hourly prediction in a forecast response.
type AirForecastEntry struct {
	Time       Timestamp          `json:"time"`
	AQI        int                `json:"aqi"`
	Category   string             `json:"category"`
	Color      string             `json:"color"`
	Message    string             `json:"message,omitempty"`
	Pollutants map[string]float64 `json:"pollutants,omitempty"`
}

// AirForecastSummary aggregates the forecast window.
type AirForecastSummary struct {
	Average         int    `json:"average"`
	Max             int    `json:"max"`
	Min             int    `json:"min"`
	AverageCategory string `json:"averageCategory"`
	MaxCategory     string `json:"maxCategory"`
}

// AirForecastResponse answers GET /v1/air/forecast.
type AirForecastResponse struct {
	Location Point               `json:"location"`
	Hours    int                 `json:"hours"`
	Summary  *AirForecastSummary `json:"summary,omitempty"`
	Hourly   []AirForecastEntry  `json:"hourly"`
}

// AirNearbyResponse answers GET /v1/air/nearby.
type AirNearbyResponse struct {
	Center       Point         `json:"center"`
	RadiusMeters int           `json:"radiusMeters"`
	Locations    []AirLocation `json:"locations"`
}
