package osrm

// osrmResponse is the OSRM route service response envelope.
type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Routes  []osrmRoute `json:"routes"`
}

// OSRM response codes this client distinguishes.
const (
	codeOK      = "Ok"
	codeNoRoute = "NoRoute"
	codeNoSeg   = "NoSegment"
)

type osrmRoute struct {
	// Geometry is the encoded polyline; precision follows the request's
	// geometries parameter (this client always asks for polyline6).
	Geometry string    `json:"geometry"`
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
	Legs     []osrmLeg `json:"legs"`
}

type osrmLeg struct {
	Summary  string  `json:"summary"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}
