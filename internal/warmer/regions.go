package warmer

// Region is a fixed search area warmed on every pass, queried the way a
// client near the city center would.
type Region struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters int
}

// MetroRegions are the city centers warmed by default. Dense downtowns get a
// smaller radius.
var MetroRegions = []Region{
	{Name: "new-york", Latitude: 40.7128, Longitude: -74.0060, RadiusMeters: 5000},
	{Name: "los-angeles", Latitude: 34.0522, Longitude: -118.2437, RadiusMeters: 8000},
	{Name: "chicago", Latitude: 41.8781, Longitude: -87.6298, RadiusMeters: 5000},
	{Name: "houston", Latitude: 29.7604, Longitude: -95.3698, RadiusMeters: 8000},
	{Name: "phoenix", Latitude: 33.4484, Longitude: -112.0740, RadiusMeters: 8000},
	{Name: "philadelphia", Latitude: 39.9526, Longitude: -75.1652, RadiusMeters: 4000},
	{Name: "san-francisco", Latitude: 37.7749, Longitude: -122.4194, RadiusMeters: 3000},
	{Name: "seattle", Latitude: 47.6062, Longitude: -122.3321, RadiusMeters: 4000},
}
