package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanroute/cleanroute/internal/airgrid"
	"github.com/cleanroute/cleanroute/internal/api/models"
	"github.com/cleanroute/cleanroute/internal/api/response"
	"github.com/cleanroute/cleanroute/internal/aqi"
)

// AirHandler serves air quality endpoints.
type AirHandler struct {
	grid *airgrid.Service
	log  zerolog.Logger
}

// NewAirHandler creates an AirHandler.
func NewAirHandler(grid *airgrid.Service, log zerolog.Logger) *AirHandler {
	return &AirHandler{grid: grid, log: log}
}

// GetCurrent handles GET /v1/air/current: the cell reading at a point.
func (h *AirHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	point, ok := latLonParams(w, r)
	if !ok {
		return
	}

	reading, err := h.grid.GetCell(r.Context(), point.Lat, point.Lon, time.Now())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to fetch cell reading")
		response.ServiceUnavailable(w, r, "air quality provider unavailable")
		return
	}

	category := aqi.Categorize(reading.AQI)
	out := models.AirCurrentResponse{
		Location:   point,
		AQI:        reading.AQI,
		Category:   category.Label,
		Color:      category.Color,
		Message:    category.Message,
		Pollutants: pollutantMap(reading),
		Rain:       reading.Rain,
		PBL:        reading.PBL,
		Wind:       models.WindInfo{U: reading.Wind.U, V: reading.Wind.V},
	}
	response.JSON(w, r, http.StatusOK, out)
}

// GetNearby handles GET /v1/air/nearby: monitored locations around a point.
func (h *AirHandler) GetNearby(w http.ResponseWriter, r *http.Request) {
	point, ok := latLonParams(w, r)
	if !ok {
		return
	}

	radius := 10000
	if raw := r.URL.Query().Get("radius"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 25000 {
			response.BadRequest(w, r, "invalid radius", []models.FieldError{
				{Field: "radius", Message: "must be between 1 and 25000 meters", Code: "invalid"},
			})
			return
		}
		radius = v
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 100 {
			response.BadRequest(w, r, "invalid limit", []models.FieldError{
				{Field: "limit", Message: "must be between 1 and 100", Code: "invalid"},
			})
			return
		}
		limit = v
	}

	locations, err := h.grid.GetNearby(r.Context(), point.Lat, point.Lon, radius, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list nearby locations")
		response.ServiceUnavailable(w, r, "air quality provider unavailable")
		return
	}

	out := models.AirNearbyResponse{
		Center:       point,
		RadiusMeters: radius,
		Locations:    make([]models.AirLocation, len(locations)),
	}
	for i, loc := range locations {
		out.Locations[i] = models.AirLocation{
			ID:             loc.ID,
			Name:           loc.Name,
			Locality:       loc.Locality,
			Location:       models.Point{Lat: loc.Lat, Lon: loc.Lon},
			DistanceMeters: loc.DistanceMeters,
			AQI:            loc.AQI,
			Category:       loc.Category.Label,
			Color:          loc.Category.Color,
			Pollutants:     pollutantMap(&loc.Pollutants),
		}
	}
	response.JSON(w, r, http.StatusOK, out)
}

// GetForecast handles GET /v1/air/forecast: hourly air quality predictions
// for the next 24 or 48 hours at a point.
func (h *AirHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	point, ok := latLonParams(w, r)
	if !ok {
		return
	}

	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 48 {
			response.BadRequest(w, r, "invalid hours", []models.FieldError{
				{Field: "hours", Message: "must be between 1 and 48", Code: "invalid"},
			})
			return
		}
		hours = v
	}

	entries, err := h.grid.GetForecast(r.Context(), point.Lat, point.Lon, hours)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to fetch air quality forecast")
		response.ServiceUnavailable(w, r, "air quality forecast unavailable")
		return
	}

	out := models.AirForecastResponse{
		Location: point,
		Hours:    hours,
		Hourly:   make([]models.AirForecastEntry, len(entries)),
	}
	for i, entry := range entries {
		out.Hourly[i] = models.AirForecastEntry{
			Time:       models.Timestamp(entry.Time),
			AQI:        entry.AQI,
			Category:   entry.Category.Label,
			Color:      entry.Category.Color,
			Message:    entry.Category.Message,
			Pollutants: pollutantMap(&entry.Pollutants),
		}
	}
	if summary, ok := airgrid.SummarizeForecast(entries); ok {
		out.Summary = &models.AirForecastSummary{
			Average:         summary.Average,
			Max:             summary.Max,
			Min:             summary.Min,
			AverageCategory: summary.AverageCategory.Label,
			MaxCategory:     summary.MaxCategory.Label,
		}
	}
	response.JSON(w, r, http.StatusOK, out)
}

// latLonParams parses the lat and lon query parameters, writing a 400 and
// returning false when they are missing or out of range.
func latLonParams(w http.ResponseWriter, r *http.Request) (models.Point, bool) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		response.BadRequest(w, r, "invalid coordinates", []models.FieldError{
			{Field: "lat", Message: "lat and lon must be valid coordinates", Code: "invalid"},
		})
		return models.Point{}, false
	}
	return models.Point{Lat: lat, Lon: lon}, true
}

func pollutantMap(reading *airgrid.CellReading) map[string]float64 {
	out := make(map[string]float64)
	for pollutant, value := range reading.Reading() {
		out[string(pollutant)] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
