package domain

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-polyline"
)

// ErrDegenerateGeometry is returned when merged steps do not form a path.
var ErrDegenerateGeometry = errors.New("geometry has fewer than two distinct coordinates")

// MergeLegGeometry stitches the step geometries of one routed leg into a
// single (lon, lat) path. Steps without geometry are skipped, and a point
// equal to the one right before it is dropped, since consecutive steps
// share their joining coordinate.
func MergeLegGeometry(steps []RouteStep) ([]Coordinates, error) {
	size := 0
	for _, s := range steps {
		size += len(s.Geometry)
	}

	path := make([]Coordinates, 0, size)
	for _, s := range steps {
		for _, c := range s.Geometry {
			if n := len(path); n > 0 && path[n-1] == c {
				continue
			}
			path = append(path, c)
		}
	}

	if len(path) < 2 {
		return nil, fmt.Errorf("merge leg geometry: %d steps: %w", len(steps), ErrDegenerateGeometry)
	}
	return path, nil
}

// EncodePolyline encodes a (lon, lat) path as a precision-5 polyline.
func EncodePolyline(path []Coordinates) string {
	if len(path) == 0 {
		return ""
	}
	latLon := make([][]float64, 0, len(path))
	for _, c := range path {
		latLon = append(latLon, []float64{c.Lat, c.Lon})
	}
	return string(polyline.EncodeCoords(latLon))
}
