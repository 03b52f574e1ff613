package domain

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Pair returns the coordinate as a fixed [lon, lat] pair for JSON read models.
func (c Coordinates) Pair() [2]float64 { return [2]float64{c.Lon, c.Lat} }

// CoordinatesFromPairs converts [lon, lat] pairs back into Coordinates.
func CoordinatesFromPairs(pairs [][2]float64) []Coordinates {
	out := make([]Coordinates, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Coordinates{Lon: p[0], Lat: p[1]})
	}
	return out
}

// PairsFromCoordinates is the inverse of CoordinatesFromPairs.
func PairsFromCoordinates(coords []Coordinates) [][2]float64 {
	out := make([][2]float64, 0, len(coords))
	for _, c := range coords {
		out = append(out, c.Pair())
	}
	return out
}
