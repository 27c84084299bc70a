package models

// WeatherCurrentResponse answers GET /v1/weather/current.
type WeatherCurrentResponse struct {
	Location Point `json:"location"`

	TemperatureC  float64 `json:"temperatureC"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	RainMM        float64 `json:"rainMm"`

	Condition   string `json:"condition"`
	Description string `json:"description,omitempty"`

	// DispersionFactor indicates how the wind modulates pollutant
	// accumulation; below 1.0 means faster dispersion.
	DispersionFactor float64 `json:"dispersionFactor"`

	ObservedAt Timestamp `json:"observedAt"`
}
