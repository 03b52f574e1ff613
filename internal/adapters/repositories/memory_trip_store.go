package repositories

import (
	"context"
	"fmt"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/ports"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// In-memory implementation of the TripStore port.
//
// It enforces the (trip, position) uniqueness eagerly, row by row, the same
// way the Postgres constraint does, and rolls a unit of work back by
// restoring a snapshot. Units of work are serialized.
type MemoryTripStore struct {
	mu     sync.Mutex
	places map[uuid.UUID]domain.Place
	trips  map[uuid.UUID]domain.Trip
	stops  map[uuid.UUID]domain.Stop
	legs   map[uuid.UUID]domain.Leg
}

func NewMemoryTripStore() *MemoryTripStore {
	return &MemoryTripStore{
		places: make(map[uuid.UUID]domain.Place),
		trips:  make(map[uuid.UUID]domain.Trip),
		stops:  make(map[uuid.UUID]domain.Stop),
		legs:   make(map[uuid.UUID]domain.Leg),
	}
}

// AddPlace registers a place outside of any unit of work.
func (s *MemoryTripStore) AddPlace(p domain.Place) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.places[p.ID] = p
}

// AddTrip registers a trip outside of any unit of work.
func (s *MemoryTripStore) AddTrip(t domain.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[t.ID] = cloneTrip(t)
}

func (s *MemoryTripStore) Tx(ctx context.Context, fn func(repo ports.TripRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(&memoryTripRepository{s: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	trips map[uuid.UUID]domain.Trip
	stops map[uuid.UUID]domain.Stop
	legs  map[uuid.UUID]domain.Leg
}

func (s *MemoryTripStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		trips: make(map[uuid.UUID]domain.Trip, len(s.trips)),
		stops: make(map[uuid.UUID]domain.Stop, len(s.stops)),
		legs:  make(map[uuid.UUID]domain.Leg, len(s.legs)),
	}
	for k, v := range s.trips {
		snap.trips[k] = cloneTrip(v)
	}
	for k, v := range s.stops {
		snap.stops[k] = cloneStop(v)
	}
	for k, v := range s.legs {
		snap.legs[k] = cloneLeg(v)
	}
	return snap
}

func (s *MemoryTripStore) restore(snap memorySnapshot) {
	s.trips = snap.trips
	s.stops = snap.stops
	s.legs = snap.legs
}

// memoryTripRepository runs with the store lock held by Tx.
type memoryTripRepository struct {
	s *MemoryTripStore
}

func (r *memoryTripRepository) GetTrip(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error) {
	t, ok := r.s.trips[tripID]
	if !ok {
		return nil, fmt.Errorf("get trip %s: %w", tripID, domain.ErrNotFound)
	}
	out := cloneTrip(t)
	return &out, nil
}

func (r *memoryTripRepository) UpdateTripSchedule(ctx context.Context, tripID uuid.UUID, defaults domain.ScheduleDefaults) error {
	t, ok := r.s.trips[tripID]
	if !ok {
		return fmt.Errorf("update trip schedule %s: %w", tripID, domain.ErrNotFound)
	}
	t.Schedule = defaults
	r.s.trips[tripID] = cloneTrip(t)
	return nil
}

func (r *memoryTripRepository) ListStops(ctx context.Context, tripID uuid.UUID) ([]*domain.Stop, error) {
	out := make([]*domain.Stop, 0)
	for _, st := range r.s.stops {
		if st.TripID != tripID {
			continue
		}
		c := cloneStop(st)
		c.Place = r.s.places[st.Place.ID]
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Stop) int { return a.Position - b.Position })
	return out, nil
}

func (r *memoryTripRepository) GetStop(ctx context.Context, tripID, stopID uuid.UUID) (*domain.Stop, error) {
	st, ok := r.s.stops[stopID]
	if !ok || st.TripID != tripID {
		return nil, fmt.Errorf("get stop %s of trip %s: %w", stopID, tripID, domain.ErrNotFound)
	}
	c := cloneStop(st)
	c.Place = r.s.places[st.Place.ID]
	return &c, nil
}

func (r *memoryTripRepository) GetPlace(ctx context.Context, placeID uuid.UUID) (*domain.Place, error) {
	p, ok := r.s.places[placeID]
	if !ok {
		return nil, fmt.Errorf("get place %s: %w", placeID, domain.ErrNotFound)
	}
	return &p, nil
}

func (r *memoryTripRepository) InsertStop(ctx context.Context, stop *domain.Stop) error {
	if _, ok := r.s.trips[stop.TripID]; !ok {
		return fmt.Errorf("insert stop: trip %s: %w", stop.TripID, domain.ErrNotFound)
	}
	if _, ok := r.s.places[stop.Place.ID]; !ok {
		return fmt.Errorf("insert stop: place %s: %w", stop.Place.ID, domain.ErrNotFound)
	}
	if r.positionTaken(stop.TripID, stop.ID, stop.Position) {
		return fmt.Errorf("insert stop at position %d: %w", stop.Position, domain.ErrPositionConflict)
	}
	r.s.stops[stop.ID] = cloneStop(*stop)
	return nil
}

// DeleteStop removes the stop and every leg that references it.
func (r *memoryTripRepository) DeleteStop(ctx context.Context, tripID, stopID uuid.UUID) error {
	st, ok := r.s.stops[stopID]
	if !ok || st.TripID != tripID {
		return fmt.Errorf("delete stop %s of trip %s: %w", stopID, tripID, domain.ErrNotFound)
	}
	delete(r.s.stops, stopID)
	for id, l := range r.s.legs {
		if l.FromStopID == stopID || l.ToStopID == stopID {
			delete(r.s.legs, id)
		}
	}
	return nil
}

func (r *memoryTripRepository) UpdateStopSchedule(ctx context.Context, tripID, stopID uuid.UUID, schedule domain.StopSchedule) error {
	st, ok := r.s.stops[stopID]
	if !ok || st.TripID != tripID {
		return fmt.Errorf("update stop schedule %s: %w", stopID, domain.ErrNotFound)
	}
	st.Schedule = schedule
	r.s.stops[stopID] = cloneStop(st)
	return nil
}

func (r *memoryTripRepository) UpdateStopPositions(ctx context.Context, tripID uuid.UUID, updates []domain.PositionUpdate) error {
	for _, u := range updates {
		st, ok := r.s.stops[u.StopID]
		if !ok || st.TripID != tripID {
			return fmt.Errorf("update stop position %s: %w", u.StopID, domain.ErrNotFound)
		}
		if r.positionTaken(tripID, u.StopID, u.Position) {
			return fmt.Errorf("update stop %s to position %d: %w", u.StopID, u.Position, domain.ErrPositionConflict)
		}
		st.Position = u.Position
		r.s.stops[u.StopID] = st
	}
	return nil
}

func (r *memoryTripRepository) positionTaken(tripID, stopID uuid.UUID, position int) bool {
	for id, st := range r.s.stops {
		if id != stopID && st.TripID == tripID && st.Position == position {
			return true
		}
	}
	return false
}

func (r *memoryTripRepository) ListLegs(ctx context.Context, tripID uuid.UUID) ([]*domain.Leg, error) {
	out := make([]*domain.Leg, 0)
	for _, l := range r.s.legs {
		if l.TripID != tripID {
			continue
		}
		c := cloneLeg(l)
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Leg) int { return a.Position - b.Position })
	return out, nil
}

func (r *memoryTripRepository) ReplaceLegs(ctx context.Context, tripID uuid.UUID, legs []*domain.Leg) error {
	if _, ok := r.s.trips[tripID]; !ok {
		return fmt.Errorf("replace legs: trip %s: %w", tripID, domain.ErrNotFound)
	}
	for id, l := range r.s.legs {
		if l.TripID == tripID {
			delete(r.s.legs, id)
		}
	}
	for _, l := range legs {
		r.s.legs[l.ID] = cloneLeg(*l)
	}
	return nil
}

func (r *memoryTripRepository) UpdateLegMetrics(ctx context.Context, tripID, legID uuid.UUID, distanceMeters, durationSeconds int) error {
	l, ok := r.s.legs[legID]
	if !ok || l.TripID != tripID {
		return fmt.Errorf("update leg metrics %s: %w", legID, domain.ErrNotFound)
	}
	l.DistanceMeters = distanceMeters
	l.DurationSeconds = durationSeconds
	r.s.legs[legID] = l
	return nil
}

func (r *memoryTripRepository) UpdateLegRoute(ctx context.Context, tripID, legID uuid.UUID, route domain.LegRoute) error {
	l, ok := r.s.legs[legID]
	if !ok || l.TripID != tripID {
		return fmt.Errorf("update leg route %s: %w", legID, domain.ErrNotFound)
	}
	at := route.CalculatedAt
	l.DistanceMeters = route.DistanceMeters
	l.DurationSeconds = route.DurationSeconds
	l.Provider = route.Provider
	l.Geometry = slices.Clone(route.Geometry)
	l.CalculatedAt = &at
	r.s.legs[legID] = l
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

func cloneTrip(t domain.Trip) domain.Trip {
	t.Schedule.StartAt = cloneTime(t.Schedule.StartAt)
	t.Schedule.EndAt = cloneTime(t.Schedule.EndAt)
	if t.Schedule.DefaultArrival != nil {
		a := *t.Schedule.DefaultArrival
		t.Schedule.DefaultArrival = &a
	}
	if t.Schedule.DefaultDeparture != nil {
		d := *t.Schedule.DefaultDeparture
		t.Schedule.DefaultDeparture = &d
	}
	return t
}

func cloneStop(s domain.Stop) domain.Stop {
	s.Schedule.PlannedStart = cloneTime(s.Schedule.PlannedStart)
	s.Schedule.PlannedEnd = cloneTime(s.Schedule.PlannedEnd)
	s.Schedule.Stay.Nights = cloneInt(s.Schedule.Stay.Nights)
	s.Schedule.Stay.Minutes = cloneInt(s.Schedule.Stay.Minutes)
	return s
}

func cloneLeg(l domain.Leg) domain.Leg {
	l.Geometry = slices.Clone(l.Geometry)
	l.CalculatedAt = cloneTime(l.CalculatedAt)
	return l
}
