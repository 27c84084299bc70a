package exposure

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cleanroute/cleanroute/internal/airgrid"
	"github.com/cleanroute/cleanroute/pkg/polyline"
)

const tracerName = "github.com/cleanroute/cleanroute/internal/exposure"

// GridReader supplies the environmental reading for a coordinate at an
// instant. *airgrid.Service satisfies it.
type GridReader interface {
	GetCell(ctx context.Context, lat, lon float64, when time.Time) (*airgrid.CellReading, error)
}

// Segment is the scored breakdown of one polyline leg.
type Segment struct {
	From            polyline.Coordinate `json:"from"`
	To              polyline.Coordinate `json:"to"`
	LengthMeters    float64             `json:"lengthMeters"`
	DurationSeconds float64             `json:"durationSeconds"`
	AQI             int                 `json:"aqi"`
	Exposure        float64             `json:"exposure"`
}

// Score is the exposure summary for one route geometry.
type Score struct {
	Exposure        float64   `json:"exposure"`
	MaxAQI          int       `json:"maxAqi"`
	DistanceMeters  float64   `json:"distanceMeters"`
	DurationSeconds float64   `json:"durationSeconds"`
	Segments        []Segment `json:"segments,omitempty"`
}

// ScorerConfig configures the exposure scorer. Zero values select defaults.
type ScorerConfig struct {
	// Concurrency bounds the number of in-flight grid lookups per route.
	// Default 8.
	Concurrency int

	Logger zerolog.Logger
}

// Scorer computes inhaled pollutant exposure along encoded route geometries.
type Scorer struct {
	grid   GridReader
	cfg    ScorerConfig
	log    zerolog.Logger
	tracer trace.Tracer
}

// NewScorer creates a scorer reading air quality from grid.
func NewScorer(grid GridReader, cfg ScorerConfig) *Scorer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Scorer{
		grid:   grid,
		cfg:    cfg,
		log:    cfg.Logger.With().Str("component", "exposure").Logger(),
		tracer: otel.Tracer(tracerName),
	}
}

// ScorePolyline decodes a precision-6 encoded polyline and integrates
// exposure over its segments for the given mode and departure time.
//
// Each segment's traversal time is estimated from the mode's speed with a
// one second floor, and its air quality is sampled at the segment midpoint.
// A failed grid lookup degrades that segment to AQI 0 rather than failing
// the route. Geometries with fewer than two points score zero.
func (s *Scorer) ScorePolyline(ctx context.Context, encoded string, mode Mode, departAt time.Time) (*Score, error) {
	if !mode.Valid() {
		return nil, ErrUnsupportedMode
	}

	ctx, span := s.tracer.Start(ctx, "exposure.score_polyline",
		trace.WithAttributes(attribute.String("mode", string(mode))))
	defer span.End()

	points, err := polyline.Decode(encoded)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return &Score{}, nil
	}

	segments := s.buildSegments(points, mode)
	s.sampleAQI(ctx, segments, departAt)

	score := &Score{Segments: segments}
	inhalation := mode.Inhalation()
	for i := range segments {
		seg := &segments[i]
		seg.Exposure = float64(seg.AQI) * (seg.DurationSeconds / 60) * inhalation
		score.Exposure += seg.Exposure
		score.DistanceMeters += seg.LengthMeters
		score.DurationSeconds += seg.DurationSeconds
		if seg.AQI > score.MaxAQI {
			score.MaxAQI = seg.AQI
		}
	}

	span.SetAttributes(
		attribute.Int("segments", len(segments)),
		attribute.Float64("exposure", score.Exposure),
		attribute.Int("max_aqi", score.MaxAQI),
	)
	return score, nil
}

func (s *Scorer) buildSegments(points []polyline.Coordinate, mode Mode) []Segment {
	speedMps := mode.SpeedKmh() / 3.6
	segments := make([]Segment, len(points)-1)
	for i := range segments {
		from, to := points[i], points[i+1]
		length := polyline.Distance(from, to)
		segments[i] = Segment{
			From:            from,
			To:              to,
			LengthMeters:    length,
			DurationSeconds: math.Max(1.0, length/speedMps),
		}
	}
	return segments
}

// sampleAQI fills each segment's AQI from the grid at its midpoint, fanning
// out up to cfg.Concurrency lookups at once. Results land at their segment
// index, so ordering is preserved regardless of completion order.
func (s *Scorer) sampleAQI(ctx context.Context, segments []Segment, departAt time.Time) {
	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup
	for i := range segments {
		wg.Add(1)
		sem <- struct{}{}
		go func(seg *Segment) {
			defer wg.Done()
			defer func() { <-sem }()

			mid := polyline.Midpoint(seg.From, seg.To)
			reading, err := s.grid.GetCell(ctx, mid.Lat, mid.Lon, departAt)
			if err != nil {
				s.log.Warn().Err(err).
					Float64("lat", mid.Lat).
					Float64("lon", mid.Lon).
					Msg("grid lookup failed, scoring segment as clean air")
				return
			}
			seg.AQI = reading.AQI
		}(&segments[i])
	}
	wg.Wait()
}
