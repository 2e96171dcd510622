package api

// ServiceArea is the lat/lon rectangle the service answers for. A disabled
// area admits every point.
type ServiceArea struct {
	Enabled bool
	MinLat  float64
	MaxLat  float64
	MinLon  float64
	MaxLon  float64
}

// Contains reports whether the point is inside the area, edges included.
func (a ServiceArea) Contains(lat, lon float64) bool {
	if !a.Enabled {
		return true
	}
	return lat >= a.MinLat && lat <= a.MaxLat && lon >= a.MinLon && lon <= a.MaxLon
}
