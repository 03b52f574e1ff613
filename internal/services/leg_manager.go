package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/platform/obs"
	"roadtrip-planner/internal/ports"
	"slices"
	"time"

	"github.com/google/uuid"
)

// LegRecalculation is the outcome of one routed pass over a trip.
type LegRecalculation struct {
	Legs                 []*domain.Leg
	Provider             string
	TotalDistanceMeters  int
	TotalDurationSeconds int
}

// LegManager owns the trip's legs. It never writes stop fields.
type LegManager struct {
	store   ports.TripStore
	gateway ports.RoutingGateway
	now     func() time.Time
}

func NewLegManager(store ports.TripStore, gateway ports.RoutingGateway) *LegManager {
	return &LegManager{store: store, gateway: gateway, now: time.Now}
}

// RebuildLegSkeleton replaces every leg with one unrouted leg per
// consecutive stop pair.
func (m *LegManager) RebuildLegSkeleton(ctx context.Context, tripID uuid.UUID) (_ []*domain.Leg, err error) {
	defer obs.Time(ctx, "legs.RebuildLegSkeleton")(&err)

	var legs []*domain.Leg
	err = m.store.Tx(ctx, func(repo ports.TripRepository) error {
		if _, err := repo.GetTrip(ctx, tripID); err != nil {
			return err
		}
		stops, err := repo.ListStops(ctx, tripID)
		if err != nil {
			return err
		}
		legs = domain.SkeletonLegs(tripID, domain.ByPosition(stops))
		return repo.ReplaceLegs(ctx, tripID, legs)
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild leg skeleton: %w", err)
	}
	return legs, nil
}

func (m *LegManager) UpdateLegMetrics(ctx context.Context, tripID, legID uuid.UUID, distanceMeters, durationSeconds int) (err error) {
	defer obs.Time(ctx, "legs.UpdateLegMetrics")(&err)

	if distanceMeters < 0 || durationSeconds < 0 {
		return fmt.Errorf("update leg metrics: negative value: %w", domain.ErrInvalidInput)
	}
	return m.store.Tx(ctx, func(repo ports.TripRepository) error {
		if err := repo.UpdateLegMetrics(ctx, tripID, legID, distanceMeters, durationSeconds); err != nil {
			return fmt.Errorf("update leg metrics: %w", err)
		}
		return nil
	})
}

// RecalculateLegsFromOsrm routes the whole stop chain with a single
// gateway call and writes distance, duration and geometry onto every leg.
// The gateway is called outside any transaction; nothing is written when
// it fails.
func (m *LegManager) RecalculateLegsFromOsrm(ctx context.Context, tripID uuid.UUID) (_ *LegRecalculation, err error) {
	defer obs.Time(ctx, "legs.RecalculateLegsFromOsrm")(&err)

	var stops []*domain.Stop
	err = m.store.Tx(ctx, func(repo ports.TripRepository) error {
		if _, err := repo.GetTrip(ctx, tripID); err != nil {
			return err
		}
		list, err := repo.ListStops(ctx, tripID)
		stops = domain.ByPosition(list)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("recalculate legs: %w", err)
	}

	if len(stops) < 2 {
		legs, err := m.RebuildLegSkeleton(ctx, tripID)
		if err != nil {
			return nil, err
		}
		return &LegRecalculation{Legs: legs}, nil
	}

	coords := make([]domain.Coordinates, 0, len(stops))
	for _, s := range stops {
		coords = append(coords, s.Place.Coordinates)
	}

	route, err := m.gateway.Route(ctx, coords)
	if err != nil {
		return nil, fmt.Errorf("recalculate legs: route %d stops: %w", len(stops), err)
	}
	if len(route.Legs) != len(stops)-1 {
		return nil, fmt.Errorf("recalculate legs: got %d routed legs for %d stops: %w",
			len(route.Legs), len(stops), domain.ErrUpstreamUnavailable)
	}

	calculatedAt := m.now().UTC()
	routes := make([]domain.LegRoute, 0, len(route.Legs))
	out := &LegRecalculation{Provider: route.Provider}
	for i, rl := range route.Legs {
		lr := domain.LegRoute{
			DistanceMeters:  int(math.Round(rl.DistanceMeters)),
			DurationSeconds: int(math.Round(rl.DurationSeconds)),
			Provider:        route.Provider,
			Geometry:        legGeometry(rl.Steps, coords[i], coords[i+1]),
			CalculatedAt:    calculatedAt,
		}
		routes = append(routes, lr)
		out.TotalDistanceMeters += lr.DistanceMeters
		out.TotalDurationSeconds += lr.DurationSeconds
	}

	err = m.store.Tx(ctx, func(repo ports.TripRepository) error {
		current, err := repo.ListStops(ctx, tripID)
		if err != nil {
			return err
		}
		current = domain.ByPosition(current)
		if !slices.Equal(domain.StopIDs(current), domain.StopIDs(stops)) {
			return errStopsChanged
		}

		legs, err := repo.ListLegs(ctx, tripID)
		if err != nil {
			return err
		}
		if !domain.LegsMatchStops(legs, current) {
			legs = domain.SkeletonLegs(tripID, current)
			if err := repo.ReplaceLegs(ctx, tripID, legs); err != nil {
				return err
			}
		}

		for i, l := range legs {
			if err := repo.UpdateLegRoute(ctx, tripID, l.ID, routes[i]); err != nil {
				return err
			}
			applyRoute(l, routes[i])
		}
		out.Legs = legs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recalculate legs: %w", err)
	}
	return out, nil
}

var errStopsChanged = errors.New("stop order changed while routing")

// legGeometry merges the step geometry of one leg. A leg whose steps do
// not form a path falls back to the straight segment between its stops.
func legGeometry(steps []domain.RouteStep, from, to domain.Coordinates) []domain.Coordinates {
	path, err := domain.MergeLegGeometry(steps)
	if err == nil {
		return path
	}
	if from == to {
		return nil
	}
	return []domain.Coordinates{from, to}
}

func applyRoute(l *domain.Leg, r domain.LegRoute) {
	at := r.CalculatedAt
	l.DistanceMeters = r.DistanceMeters
	l.DurationSeconds = r.DurationSeconds
	l.Provider = r.Provider
	l.Geometry = r.Geometry
	l.CalculatedAt = &at
}

// SyncLegSkeleton rebuilds the skeleton only when the stored legs no
// longer connect the stops in order. Routed legs that still match are kept.
func (m *LegManager) SyncLegSkeleton(ctx context.Context, tripID uuid.UUID) (rebuilt bool, err error) {
	defer obs.Time(ctx, "legs.SyncLegSkeleton")(&err)

	err = m.store.Tx(ctx, func(repo ports.TripRepository) error {
		stops, err := repo.ListStops(ctx, tripID)
		if err != nil {
			return err
		}
		stops = domain.ByPosition(stops)
		legs, err := repo.ListLegs(ctx, tripID)
		if err != nil {
			return err
		}
		if domain.LegsMatchStops(legs, stops) {
			return nil
		}
		rebuilt = true
		return repo.ReplaceLegs(ctx, tripID, domain.SkeletonLegs(tripID, stops))
	})
	if err != nil {
		return false, fmt.Errorf("sync leg skeleton: %w", err)
	}
	return rebuilt, nil
}
