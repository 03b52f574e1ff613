package ports

import (
	"context"
	"roadtrip-planner/internal/domain"

	"github.com/google/uuid"
)

// Port: persistence boundary for trips, their stops and their legs.
// Stops and legs are always returned ordered by position.
type TripRepository interface {
	GetTrip(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error)
	UpdateTripSchedule(ctx context.Context, tripID uuid.UUID, defaults domain.ScheduleDefaults) error

	ListStops(ctx context.Context, tripID uuid.UUID) ([]*domain.Stop, error)
	GetStop(ctx context.Context, tripID, stopID uuid.UUID) (*domain.Stop, error)
	GetPlace(ctx context.Context, placeID uuid.UUID) (*domain.Place, error)
	InsertStop(ctx context.Context, stop *domain.Stop) error
	DeleteStop(ctx context.Context, tripID, stopID uuid.UUID) error
	UpdateStopSchedule(ctx context.Context, tripID, stopID uuid.UUID, schedule domain.StopSchedule) error
	// UpdateStopPositions applies updates one row at a time, in order. The
	// (trip, position) uniqueness is checked after every row, so callers
	// permuting positions must go through a collision-free intermediate state.
	UpdateStopPositions(ctx context.Context, tripID uuid.UUID, updates []domain.PositionUpdate) error

	ListLegs(ctx context.Context, tripID uuid.UUID) ([]*domain.Leg, error)
	ReplaceLegs(ctx context.Context, tripID uuid.UUID, legs []*domain.Leg) error
	UpdateLegMetrics(ctx context.Context, tripID, legID uuid.UUID, distanceMeters, durationSeconds int) error
	UpdateLegRoute(ctx context.Context, tripID, legID uuid.UUID, route domain.LegRoute) error
}

// TripStore hands out request-scoped units of work. The repository passed
// to fn is only valid inside fn; a returned error rolls everything back.
type TripStore interface {
	Tx(ctx context.Context, fn func(repo TripRepository) error) error
}
