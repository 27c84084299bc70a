package aqi

// Category describes the health-risk band of a composite AQI value, with the
// display color and advisory message used by the air endpoints.
type Category struct {
	Label   string `json:"category"`
	Color   string `json:"color"`
	Message string `json:"message"`
}

// Categorize maps a composite AQI value onto its health-risk band.
func Categorize(aqi int) Category {
	switch {
	case aqi <= 50:
		return Category{
			Label:   "Good",
			Color:   "#00e400",
			Message: "Air quality is satisfactory",
		}
	case aqi <= 100:
		return Category{
			Label:   "Moderate",
			Color:   "#ffff00",
			Message: "Air quality is acceptable",
		}
	case aqi <= 150:
		return Category{
			Label:   "Unhealthy for sensitive groups",
			Color:   "#ff7e00",
			Message: "Sensitive groups may experience health effects",
		}
	case aqi <= 200:
		return Category{
			Label:   "Unhealthy",
			Color:   "#ff0000",
			Message: "Everyone may experience health effects",
		}
	case aqi <= 300:
		return Category{
			Label:   "Very unhealthy",
			Color:   "#8f3f97",
			Message: "Health alert: everyone may experience serious health effects",
		}
	default:
		return Category{
			Label:   "Hazardous",
			Color:   "#7e0023",
			Message: "Emergency health alert",
		}
	}
}
