package routing

import (
	"context"
	"roadtrip-planner/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRoutingGateway(t *testing.T) {
	gw := NewMockRoutingGateway()

	res, err := gw.Route(context.Background(), chain)
	require.NoError(t, err)
	require.Len(t, res.Legs, 2)
	assert.Equal(t, 1, gw.Calls())

	// San Francisco to Monterey is roughly 140 km as the crow flies.
	assert.InDelta(t, 140000, res.Legs[0].DistanceMeters, 10000)
	assert.InDelta(t, res.Legs[0].DistanceMeters/mockSpeedMetersPerSecond, res.Legs[0].DurationSeconds, 1e-9)

	path, err := domain.MergeLegGeometry(res.Legs[0].Steps)
	require.NoError(t, err)
	assert.Equal(t, chain[0], path[0])
	assert.Equal(t, chain[1], path[2])

	gw.Err = domain.ErrUpstreamUnavailable
	_, err = gw.Route(context.Background(), chain)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 2, gw.Calls())
}
