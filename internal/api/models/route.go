package models

// Weights are the selection weights applied to a route query.
type Weights struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// RouteCandidate is one scored candidate route.
type RouteCandidate struct {
	Geometry string `json:"geometry"`

	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`

	Exposure float64 `json:"exposure"`
	MaxAQI   int     `json:"maxAqi"`
	AvgAQI   float64 `json:"avgAqi"`
	Category string  `json:"category"`

	NormDistance float64 `json:"normDistance"`
	NormExposure float64 `json:"normExposure"`
	Score        float64 `json:"score"`

	Selected  bool `json:"selected"`
	Penalized bool `json:"penalized,omitempty"`

	Summary string `json:"summary,omitempty"`
}

// OptimalRouteResponse answers GET /v1/routes/optimal.
type OptimalRouteResponse struct {
	Origin      Point            `json:"origin"`
	Destination Point            `json:"destination"`
	Mode        string           `json:"mode"`
	Weights     Weights          `json:"weights"`
	AQIThresh   *int             `json:"aqiThreshold,omitempty"`
	Provider    string           `json:"provider"`
	Explanation string           `json:"explanation"`
	Selected    RouteCandidate   `json:"selected"`
	Candidates  []RouteCandidate `json:"candidates"`
}

// ScoreRouteRequest is the body of POST /v1/routes/score.
type ScoreRouteRequest struct {
	// Geometry is a precision-6 encoded polyline.
	Geometry string `json:"geometry"`
	Mode     string `json:"mode"`
	// DepartAt defaults to now when omitted.
	DepartAt *Timestamp `json:"departAt,omitempty"`
	// IncludeSegments adds the per-segment breakdown to the response.
	IncludeSegments bool `json:"includeSegments,omitempty"`
}

// ScoredSegment is the per-segment exposure breakdown.
type ScoredSegment struct {
	From        Point   `json:"from"`
	To          Point   `json:"to"`
	LengthM     float64 `json:"lengthM"`
	DurationSec float64 `json:"durationSec"`
	AQI         int     `json:"aqi"`
	Exposure    float64 `json:"exposure"`
}

// ScoreRouteResponse answers POST /v1/routes/score.
type ScoreRouteResponse struct {
	Mode        string          `json:"mode"`
	DistanceKm  float64         `json:"distanceKm"`
	DurationMin float64         `json:"durationMin"`
	Exposure    float64         `json:"exposure"`
	MaxAQI      int             `json:"maxAqi"`
	Category    string          `json:"category"`
	Segments    []ScoredSegment `json:"segments,omitempty"`
}
