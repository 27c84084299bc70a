package exposure

import "errors"

// ErrNoRoutes indicates selection was attempted over an empty candidate set.
var ErrNoRoutes = errors.New("no candidate routes")

// normEpsilon keeps min-max normalization finite when all candidates share
// the same distance or exposure.
const normEpsilon = 1e-9

// thresholdPenalty multiplies the effective exposure of routes whose peak
// AQI exceeds the caller's threshold, pushing them behind compliant routes
// without excluding them outright.
const thresholdPenalty = 10.0

// Candidate pairs a route's distance with its exposure score for selection.
type Candidate struct {
	DistanceMeters float64
	Exposure       float64
	MaxAQI         int
}

// Ranked is a candidate with its normalized components and combined score.
type Ranked struct {
	Candidate
	NormDistance float64
	NormExposure float64
	Score        float64
	Penalized    bool
}

// SelectOptions tunes route selection.
type SelectOptions struct {
	// Alpha weights normalized distance and Beta weights normalized
	// exposure in the combined score. Callers typically pass weights
	// summing to 1.
	Alpha float64
	Beta  float64

	// AQIThreshold, when non-nil, penalizes routes whose peak AQI exceeds
	// it by scaling their exposure before normalization.
	AQIThreshold *int
}

// Select ranks candidates by weighted, min-max normalized distance and
// exposure, returning the index of the best route and the full ranking in
// candidate order. The lowest score wins; on a tie the earliest candidate
// is kept, so provider route ordering acts as the final tie-break.
func Select(candidates []Candidate, opts SelectOptions) (int, []Ranked, error) {
	if len(candidates) == 0 {
		return 0, nil, ErrNoRoutes
	}

	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{Candidate: c}
		if opts.AQIThreshold != nil && c.MaxAQI > *opts.AQIThreshold {
			ranked[i].Exposure = c.Exposure * thresholdPenalty
			ranked[i].Penalized = true
		}
	}

	minD, maxD := ranked[0].DistanceMeters, ranked[0].DistanceMeters
	minE, maxE := ranked[0].Exposure, ranked[0].Exposure
	for _, r := range ranked[1:] {
		minD = min(minD, r.DistanceMeters)
		maxD = max(maxD, r.DistanceMeters)
		minE = min(minE, r.Exposure)
		maxE = max(maxE, r.Exposure)
	}

	rangeD := maxD - minD + normEpsilon
	rangeE := maxE - minE + normEpsilon

	best := 0
	for i := range ranked {
		r := &ranked[i]
		r.NormDistance = (r.DistanceMeters - minD) / rangeD
		r.NormExposure = (r.Exposure - minE) / rangeE
		r.Score = opts.Alpha*r.NormDistance + opts.Beta*r.NormExposure
		if r.Score < ranked[best].Score {
			best = i
		}
	}
	return best, ranked, nil
}
