package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
)

func TestMergeLegGeometryDropsSharedJoin(t *testing.T) {
	a := Coordinates{Lon: -122.42, Lat: 37.77}
	b := Coordinates{Lon: -122.40, Lat: 37.79}
	c := Coordinates{Lon: -122.38, Lat: 37.80}

	path, err := MergeLegGeometry([]RouteStep{
		{Geometry: []Coordinates{a, b}},
		{Geometry: []Coordinates{b, c}},
	})
	require.NoError(t, err)
	assert.Equal(t, []Coordinates{a, b, c}, path)
}

func TestMergeLegGeometrySkipsEmptySteps(t *testing.T) {
	a := Coordinates{Lon: 1, Lat: 1}
	b := Coordinates{Lon: 2, Lat: 2}

	path, err := MergeLegGeometry([]RouteStep{
		{},
		{Geometry: []Coordinates{a, b}},
		{Geometry: nil},
		{Geometry: []Coordinates{b}},
	})
	require.NoError(t, err)
	assert.Equal(t, []Coordinates{a, b}, path)
}

func TestMergeLegGeometryKeepsNonAdjacentRepeats(t *testing.T) {
	a := Coordinates{Lon: 1, Lat: 1}
	b := Coordinates{Lon: 2, Lat: 2}

	path, err := MergeLegGeometry([]RouteStep{{Geometry: []Coordinates{a, b, a}}})
	require.NoError(t, err)
	assert.Equal(t, []Coordinates{a, b, a}, path)
}

func TestMergeLegGeometryDegenerate(t *testing.T) {
	a := Coordinates{Lon: 5, Lat: 5}

	tests := map[string][]RouteStep{
		"no steps":     nil,
		"all empty":    {{}, {}},
		"single point": {{Geometry: []Coordinates{a}}, {Geometry: []Coordinates{a, a}}},
	}
	for name, steps := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := MergeLegGeometry(steps)
			assert.ErrorIs(t, err, ErrDegenerateGeometry)
		})
	}
}

func TestEncodePolylineUsesLatLonOrder(t *testing.T) {
	path := []Coordinates{{Lon: -120.2, Lat: 38.5}, {Lon: -120.95, Lat: 40.7}, {Lon: -126.453, Lat: 43.252}}

	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", EncodePolyline(path))

	decoded, _, err := polyline.DecodeCoords([]byte(EncodePolyline(path)))
	require.NoError(t, err)
	assert.InDelta(t, 38.5, decoded[0][0], 1e-5)
	assert.InDelta(t, -120.2, decoded[0][1], 1e-5)

	assert.Empty(t, EncodePolyline(nil))
}
