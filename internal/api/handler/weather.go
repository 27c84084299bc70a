package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cleanroute/cleanroute/internal/api/models"
	"github.com/cleanroute/cleanroute/internal/api/response"
	"github.com/cleanroute/cleanroute/internal/weather"
)

// WeatherHandler serves the weather endpoint.
type WeatherHandler struct {
	weather *weather.Service
	log     zerolog.Logger
}

// NewWeatherHandler creates a WeatherHandler.
func NewWeatherHandler(svc *weather.Service, log zerolog.Logger) *WeatherHandler {
	return &WeatherHandler{weather: svc, log: log}
}

// GetCurrent handles GET /v1/weather/current.
func (h *WeatherHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	point, ok := latLonParams(w, r)
	if !ok {
		return
	}

	obs, err := h.weather.GetCurrent(r.Context(), point.Lat, point.Lon)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to fetch weather")
		response.ServiceUnavailable(w, r, "weather provider unavailable")
		return
	}

	out := models.WeatherCurrentResponse{
		Location:         point,
		TemperatureC:     obs.TemperatureC,
		Humidity:         obs.Humidity,
		Pressure:         obs.Pressure,
		WindSpeed:        obs.WindSpeed,
		WindDirection:    obs.WindDirection,
		RainMM:           obs.RainMM,
		Condition:        string(obs.Condition),
		Description:      obs.Description,
		DispersionFactor: obs.DispersionFactor(),
		ObservedAt:       models.Timestamp(obs.ObservedAt),
	}
	response.JSON(w, r, http.StatusOK, out)
}
