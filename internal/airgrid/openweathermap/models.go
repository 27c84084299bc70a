package openweathermap

// forecastResponse is the OpenWeatherMap air pollution forecast payload.
type forecastResponse struct {
	List []forecastItem `json:"list"`
}

type forecastItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI int `json:"aqi"`
	} `json:"main"`
	// Components carries pollutant concentrations in µg/m³.
	Components map[string]float64 `json:"components"`
}
