package services

import (
	"context"
	"fmt"
	"roadtrip-planner/internal/domain"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuildLegSkeletonConnectsConsecutiveStops(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory,
		stopDef{name: "A", untimed: true},
		stopDef{name: "B", untimed: true},
		stopDef{name: "C", untimed: true},
		stopDef{name: "D", untimed: true},
	)

	legs, err := f.legs.RebuildLegSkeleton(context.Background(), f.trip.ID)
	require.NoError(t, err)
	require.Len(t, legs, 3)

	stops := f.itinerary(t).Stops
	assert.True(t, domain.LegsMatchStops(f.itinerary(t).Legs, stops))
	for i, l := range legs {
		assert.Equal(t, i, l.Position)
		assert.Equal(t, stops[i].ID, l.FromStopID)
		assert.Equal(t, stops[i+1].ID, l.ToStopID)
		assert.Equal(t, domain.ProviderPending, l.Provider)
		assert.Zero(t, l.DistanceMeters)
		assert.Nil(t, l.CalculatedAt)
	}
	assert.Zero(t, f.gateway.Calls())
}

func TestRebuildLegSkeletonSingleStop(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, stopDef{name: "A", untimed: true})

	legs, err := f.legs.RebuildLegSkeleton(context.Background(), f.trip.ID)
	require.NoError(t, err)
	assert.Empty(t, legs)
}

func TestRecalculateLegsRoutesWholeChainOnce(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)

	res, err := f.legs.RecalculateLegsFromOsrm(context.Background(), f.trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.gateway.Calls())
	assert.Equal(t, "mock", res.Provider)
	require.Len(t, res.Legs, 2)

	stops := f.itinerary(t).Stops
	total := 0
	for i, l := range f.itinerary(t).Legs {
		assert.Equal(t, stops[i].ID, l.FromStopID)
		assert.Positive(t, l.DistanceMeters)
		assert.Positive(t, l.DurationSeconds)
		assert.NotNil(t, l.CalculatedAt)
		require.Len(t, l.Geometry, 3, "midpoint shared by both steps appears once")
		assert.Equal(t, stops[i].Place.Coordinates, l.Geometry[0])
		assert.Equal(t, stops[i+1].Place.Coordinates, l.Geometry[2])
		total += l.DistanceMeters
	}
	assert.Equal(t, total, res.TotalDistanceMeters)
}

func TestRecalculateLegsKeepsLegsOnGatewayFailure(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)
	ctx := context.Background()

	skeleton, err := f.legs.RebuildLegSkeleton(ctx, f.trip.ID)
	require.NoError(t, err)

	f.gateway.Err = fmt.Errorf("osrm: connection refused: %w", domain.ErrUpstreamUnavailable)
	_, err = f.legs.RecalculateLegsFromOsrm(ctx, f.trip.ID)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, skeleton, f.itinerary(t).Legs)
}

func TestRecalculateLegsFewerThanTwoStops(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, stopDef{name: "A", untimed: true})

	res, err := f.legs.RecalculateLegsFromOsrm(context.Background(), f.trip.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Legs)
	assert.Zero(t, f.gateway.Calls())
}

func TestUpdateLegMetrics(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)
	ctx := context.Background()

	legs, err := f.legs.RebuildLegSkeleton(ctx, f.trip.ID)
	require.NoError(t, err)

	require.NoError(t, f.legs.UpdateLegMetrics(ctx, f.trip.ID, legs[1].ID, 12000, 900))
	got := f.itinerary(t).Legs[1]
	assert.Equal(t, 12000, got.DistanceMeters)
	assert.Equal(t, 900, got.DurationSeconds)

	err = f.legs.UpdateLegMetrics(ctx, f.trip.ID, uuid.New(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.legs.UpdateLegMetrics(ctx, f.trip.ID, legs[0].ID, -1, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLegGeometryFallsBackToSegment(t *testing.T) {
	from := domain.Coordinates{Lon: 1, Lat: 2}
	to := domain.Coordinates{Lon: 3, Lat: 4}

	got := legGeometry([]domain.RouteStep{{Geometry: []domain.Coordinates{from}}}, from, to)
	assert.Equal(t, []domain.Coordinates{from, to}, got)
	assert.Nil(t, legGeometry(nil, from, from))
}
