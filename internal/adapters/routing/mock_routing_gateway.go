package routing

import (
	"context"
	"math"
	"roadtrip-planner/internal/domain"
	"sync/atomic"
)

const (
	ProviderMock = "mock"

	earthRadiusMeters        = 6371000
	mockSpeedMetersPerSecond = 25.0
)

// MockRoutingGateway routes every pair as a straight line split into two
// steps that share their midpoint. It is used by tests and by
// ROUTING_PROVIDER=mock for local runs without a routing engine.
type MockRoutingGateway struct {
	// Err, when set, is returned by every call.
	Err   error
	calls atomic.Int32
}

func NewMockRoutingGateway() *MockRoutingGateway {
	return &MockRoutingGateway{}
}

// Calls reports how many times Route was invoked.
func (m *MockRoutingGateway) Calls() int { return int(m.calls.Load()) }

func (m *MockRoutingGateway) Route(ctx context.Context, coords []domain.Coordinates) (*domain.RouteResult, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if err := validateChain(coords); err != nil {
		return nil, err
	}

	out := &domain.RouteResult{Provider: ProviderMock, Legs: make([]domain.RouteLeg, 0, len(coords)-1)}
	for i := 0; i+1 < len(coords); i++ {
		from, to := coords[i], coords[i+1]
		mid := domain.Coordinates{Lon: (from.Lon + to.Lon) / 2, Lat: (from.Lat + to.Lat) / 2}
		meters := haversine(from, to)

		out.Legs = append(out.Legs, domain.RouteLeg{
			DistanceMeters:  meters,
			DurationSeconds: meters / mockSpeedMetersPerSecond,
			Steps: []domain.RouteStep{
				{DistanceMeters: meters / 2, Geometry: []domain.Coordinates{from, mid}},
				{DistanceMeters: meters / 2, Geometry: []domain.Coordinates{mid, to}},
				{Geometry: nil},
			},
		})
	}
	return out, nil
}

// haversine returns the great-circle distance in meters.
func haversine(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
