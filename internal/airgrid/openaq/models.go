package openaq

// locationsResponse is the OpenAQ v3 locations listing.
type locationsResponse struct {
	Results []location `json:"results"`
}

type location struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Locality    string      `json:"locality"`
	Distance    *float64    `json:"distance"`
	Coordinates coordinates `json:"coordinates"`
	Sensors     []sensor    `json:"sensors"`
}

type coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type sensor struct {
	ID        int64     `json:"id"`
	Parameter parameter `json:"parameter"`
}

type parameter struct {
	Name  string `json:"name"`
	Units string `json:"units"`
}

// latestResponse is the OpenAQ v3 latest-measurements listing for a location.
type latestResponse struct {
	Results []measurement `json:"results"`
}

type measurement struct {
	SensorsID int64   `json:"sensorsId"`
	Value     float64 `json:"value"`
}
