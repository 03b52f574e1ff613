package ports

import (
	"context"
	"roadtrip-planner/internal/domain"
)

// Contract for the external routing engine.
type RoutingGateway interface {
	// Route computes one route through all coordinates, in order (at least two).
	// Failures wrap domain.ErrUpstreamUnavailable or domain.ErrInvalidInput.
	Route(ctx context.Context, coords []domain.Coordinates) (*domain.RouteResult, error)
}

// Optional cache consulted by gateways before calling out.
type RouteCache interface {
	Get(ctx context.Context, key string) (*domain.RouteResult, bool, error)
	Put(ctx context.Context, key string, result *domain.RouteResult) error
}
