// Package handler provides HTTP handlers for the CleanRoute API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanroute/cleanroute/internal/api/models"
	"github.com/cleanroute/cleanroute/internal/api/response"
	"github.com/cleanroute/cleanroute/internal/aqi"
	"github.com/cleanroute/cleanroute/internal/exposure"
	"github.com/cleanroute/cleanroute/internal/routing"
)

// RouteHandler serves route selection and scoring endpoints.
type RouteHandler struct {
	routes *routing.Service
	scorer *exposure.Scorer
	log    zerolog.Logger
}

// NewRouteHandler creates a RouteHandler.
func NewRouteHandler(routes *routing.Service, scorer *exposure.Scorer, log zerolog.Logger) *RouteHandler {
	return &RouteHandler{routes: routes, scorer: scorer, log: log}
}

// GetOptimalRoute handles GET /v1/routes/optimal. It fetches candidate
// routes, scores each one for pollutant exposure, and selects the best by
// weighted distance and exposure.
func (h *RouteHandler) GetOptimalRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	origin, err := parsePoint(q.Get("origin"))
	if err != nil {
		response.BadRequest(w, r, "invalid origin", []models.FieldError{
			{Field: "origin", Message: err.Error(), Code: "invalid"},
		})
		return
	}
	dest, err := parsePoint(q.Get("destination"))
	if err != nil {
		response.BadRequest(w, r, "invalid destination", []models.FieldError{
			{Field: "destination", Message: err.Error(), Code: "invalid"},
		})
		return
	}

	mode, err := exposure.ParseMode(valueOr(q.Get("mode"), "bike"))
	if err != nil {
		response.BadRequest(w, r, "invalid mode", []models.FieldError{
			{Field: "mode", Message: "mode must be walk, run or bike", Code: "invalid"},
		})
		return
	}

	alpha, err := parseWeight(q.Get("alpha"), 0.5)
	if err != nil {
		response.BadRequest(w, r, "invalid alpha", []models.FieldError{
			{Field: "alpha", Message: err.Error(), Code: "invalid"},
		})
		return
	}
	beta, err := parseWeight(q.Get("beta"), 0.5)
	if err != nil {
		response.BadRequest(w, r, "invalid beta", []models.FieldError{
			{Field: "beta", Message: err.Error(), Code: "invalid"},
		})
		return
	}

	var aqiThreshold *int
	if raw := q.Get("aqi_threshold"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			response.BadRequest(w, r, "invalid aqi_threshold", []models.FieldError{
				{Field: "aqi_threshold", Message: "must be a non-negative integer", Code: "invalid"},
			})
			return
		}
		aqiThreshold = &v
	}

	alternatives := 3
	if raw := q.Get("alternatives"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > 5 {
			response.BadRequest(w, r, "invalid alternatives", []models.FieldError{
				{Field: "alternatives", Message: "must be an integer between 0 and 5", Code: "invalid"},
			})
			return
		}
		alternatives = v
	}

	departAt := time.Now()
	if raw := q.Get("depart_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(w, r, "invalid depart_at", []models.FieldError{
				{Field: "depart_at", Message: "must be RFC3339", Code: "invalid"},
			})
			return
		}
		departAt = parsed
	}

	routesResp, err := h.routes.GetRoutes(r.Context(), routing.RoutesRequest{
		Origin:          routing.Coordinate{Lat: origin.Lat, Lon: origin.Lon},
		Destination:     routing.Coordinate{Lat: dest.Lat, Lon: dest.Lon},
		Profile:         profileFor(mode),
		MaxAlternatives: alternatives,
	})
	if err != nil {
		h.writeRoutingError(w, r, err)
		return
	}

	candidates, scores, err := h.scoreAll(r.Context(), routesResp.Routes, mode, departAt)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to score candidate routes")
		response.InternalError(w, r, "failed to score candidate routes")
		return
	}

	best, ranked, err := exposure.Select(candidates, exposure.SelectOptions{
		Alpha:        alpha,
		Beta:         beta,
		AQIThreshold: aqiThreshold,
	})
	if err != nil {
		response.NoRoute(w, r, "no candidate routes to select from")
		return
	}

	out := models.OptimalRouteResponse{
		Origin:      origin,
		Destination: dest,
		Mode:        string(mode),
		Weights:     models.Weights{Alpha: alpha, Beta: beta},
		AQIThresh:   aqiThreshold,
		Provider:    routesResp.Provider,
		Explanation: fmt.Sprintf("Optimal balance between distance and clean air (alpha=%g, beta=%g)", alpha, beta),
		Candidates:  make([]models.RouteCandidate, len(ranked)),
	}
	for i, rk := range ranked {
		out.Candidates[i] = toCandidate(routesResp.Routes[i], scores[i], rk, i == best)
	}
	out.Selected = out.Candidates[best]

	response.JSON(w, r, http.StatusOK, out)
}

// ScoreRoute handles POST /v1/routes/score: exposure for a caller-supplied
// encoded geometry.
func (h *RouteHandler) ScoreRoute(w http.ResponseWriter, r *http.Request) {
	var req models.ScoreRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if req.Geometry == "" {
		response.BadRequest(w, r, "missing geometry", []models.FieldError{
			{Field: "geometry", Message: "geometry is required", Code: "required"},
		})
		return
	}

	mode, err := exposure.ParseMode(valueOr(req.Mode, "walk"))
	if err != nil {
		response.BadRequest(w, r, "invalid mode", []models.FieldError{
			{Field: "mode", Message: "mode must be walk, run or bike", Code: "invalid"},
		})
		return
	}

	departAt := time.Now()
	if req.DepartAt != nil {
		departAt = req.DepartAt.Time()
	}

	score, err := h.scorer.ScorePolyline(r.Context(), req.Geometry, mode, departAt)
	if err != nil {
		response.BadRequest(w, r, "could not decode geometry", []models.FieldError{
			{Field: "geometry", Message: "must be a precision-6 encoded polyline", Code: "invalid"},
		})
		return
	}

	out := models.ScoreRouteResponse{
		Mode:        string(mode),
		DistanceKm:  round(score.DistanceMeters/1000, 2),
		DurationMin: round(score.DurationSeconds/60, 1),
		Exposure:    round(score.Exposure, 1),
		MaxAQI:      score.MaxAQI,
		Category:    aqi.Categorize(score.MaxAQI).Label,
	}
	if req.IncludeSegments {
		out.Segments = make([]models.ScoredSegment, len(score.Segments))
		for i, seg := range score.Segments {
			out.Segments[i] = models.ScoredSegment{
				From:        models.Point{Lat: seg.From.Lat, Lon: seg.From.Lon},
				To:          models.Point{Lat: seg.To.Lat, Lon: seg.To.Lon},
				LengthM:     round(seg.LengthMeters, 1),
				DurationSec: round(seg.DurationSeconds, 1),
				AQI:         seg.AQI,
				Exposure:    round(seg.Exposure, 1),
			}
		}
	}
	response.JSON(w, r, http.StatusOK, out)
}

func (h *RouteHandler) scoreAll(ctx context.Context, routes []routing.Route, mode exposure.Mode, departAt time.Time) ([]exposure.Candidate, []*exposure.Score, error) {
	candidates := make([]exposure.Candidate, len(routes))
	scores := make([]*exposure.Score, len(routes))
	for i, rt := range routes {
		score, err := h.scorer.ScorePolyline(ctx, rt.Geometry, mode, departAt)
		if err != nil {
			return nil, nil, fmt.Errorf("scoring route %d: %w", i, err)
		}
		scores[i] = score
		candidates[i] = exposure.Candidate{
			DistanceMeters: rt.DistanceMeters,
			Exposure:       score.Exposure,
			MaxAQI:         score.MaxAQI,
		}
	}
	return candidates, scores, nil
}

func (h *RouteHandler) writeRoutingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, routing.ErrNoRouteFound):
		response.NoRoute(w, r, "no route found between the given points")
	case errors.Is(err, routing.ErrInvalidCoordinates):
		response.BadRequest(w, r, "coordinates out of range", nil)
	case errors.Is(err, routing.ErrRateLimitExceeded),
		errors.Is(err, routing.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, "routing provider unavailable")
	default:
		h.log.Error().Err(err).Msg("routing request failed")
		response.InternalError(w, r, "routing request failed")
	}
}

func toCandidate(rt routing.Route, score *exposure.Score, rk exposure.Ranked, selected bool) models.RouteCandidate {
	return models.RouteCandidate{
		Geometry:     rt.Geometry,
		DistanceKm:   round(rt.DistanceMeters/1000, 2),
		DurationMin:  round(score.DurationSeconds/60, 1),
		Exposure:     round(score.Exposure, 1),
		MaxAQI:       score.MaxAQI,
		AvgAQI:       round(avgAQI(score.Segments), 1),
		Category:     aqi.Categorize(score.MaxAQI).Label,
		NormDistance: round(rk.NormDistance, 3),
		NormExposure: round(rk.NormExposure, 3),
		Score:        round(rk.Score, 3),
		Selected:     selected,
		Penalized:    rk.Penalized,
		Summary:      rt.Summary,
	}
}

func avgAQI(segments []exposure.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	sum := 0.0
	for _, seg := range segments {
		sum += float64(seg.AQI)
	}
	return sum / float64(len(segments))
}

// parsePoint parses a "lat,lon" query value.
func parsePoint(raw string) (models.Point, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return models.Point{}, errors.New("expected lat,lon")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Point{}, errors.New("latitude is not a number")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Point{}, errors.New("longitude is not a number")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return models.Point{}, errors.New("coordinates out of range")
	}
	return models.Point{Lat: lat, Lon: lon}, nil
}

func parseWeight(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, errors.New("must be a number between 0 and 1")
	}
	return v, nil
}

func profileFor(mode exposure.Mode) routing.Profile {
	if mode == exposure.ModeBike {
		return routing.ProfileBike
	}
	return routing.ProfileFoot
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
