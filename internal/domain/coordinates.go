package domain

// Geographic position of a geocoded address (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// LonLat returns the point in [lon, lat] order as routing APIs expect it.
func (c Coordinates) LonLat() []float64 { return []float64{c.Lon, c.Lat} }
