package services

import (
	"context"
	"roadtrip-planner/internal/adapters/repositories"
	"roadtrip-planner/internal/adapters/routing"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/ports"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var tripStart = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store   *repositories.MemoryTripStore
	gateway *routing.MockRoutingGateway
	trip    domain.Trip
	stops   map[string]uuid.UUID

	schedule  *ScheduleEngine
	conflicts *ConflictResolver
	legs      *LegManager
	editor    *TripEditor
}

type stopDef struct {
	name  string
	day   int
	hour  int
	hours int
	// untimed leaves planned start/end unset.
	untimed bool
	locked  bool
}

func newFixture(t *testing.T, policy LockPolicy, defs ...stopDef) *fixture {
	t.Helper()

	f := &fixture{
		store:   repositories.NewMemoryTripStore(),
		gateway: routing.NewMockRoutingGateway(),
		stops:   make(map[string]uuid.UUID),
	}
	start := tripStart
	f.trip = domain.Trip{
		ID:       uuid.New(),
		Name:     "Coast run",
		Schedule: domain.ScheduleDefaults{TimeZone: "UTC", StartAt: &start},
	}
	f.store.AddTrip(f.trip)

	places := make([]domain.Place, 0, len(defs))
	for i, s := range defs {
		place := domain.Place{
			ID:          uuid.New(),
			Name:        s.name,
			Coordinates: domain.Coordinates{Lon: -122.4 + float64(i)*0.5, Lat: 37.7 + float64(i)*0.3},
		}
		f.store.AddPlace(place)
		places = append(places, place)
	}

	err := f.store.Tx(context.Background(), func(repo ports.TripRepository) error {
		for i, s := range defs {
			stop := &domain.Stop{
				ID:       uuid.New(),
				TripID:   f.trip.ID,
				Place:    places[i],
				Position: i,
				Schedule: domain.StopSchedule{
					Kind:        domain.StopKindWaypoint,
					StartLocked: s.locked,
					EndLocked:   s.locked,
				},
			}
			if !s.untimed {
				st := tripStart.AddDate(0, 0, s.day).Add(time.Duration(s.hour) * time.Hour)
				en := st.Add(time.Duration(s.hours) * time.Hour)
				stop.Schedule.PlannedStart = &st
				stop.Schedule.PlannedEnd = &en
			}
			if err := repo.InsertStop(context.Background(), stop); err != nil {
				return err
			}
			f.stops[s.name] = stop.ID
		}
		return nil
	})
	require.NoError(t, err)

	f.schedule = NewScheduleEngine(f.store, policy)
	f.conflicts = NewConflictResolver(f.store)
	f.legs = NewLegManager(f.store, f.gateway)
	f.editor = NewTripEditor(f.store, f.schedule, f.conflicts, f.legs)
	return f
}

func (f *fixture) id(name string) uuid.UUID { return f.stops[name] }

func (f *fixture) ids(names ...string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(names))
	for _, n := range names {
		out = append(out, f.stops[n])
	}
	return out
}

func (f *fixture) itinerary(t *testing.T) *Itinerary {
	t.Helper()
	it, ok, err := f.schedule.GetItinerary(context.Background(), f.trip.ID)
	require.NoError(t, err)
	require.True(t, ok)
	return it
}

func (f *fixture) stop(t *testing.T, name string) *domain.Stop {
	t.Helper()
	for _, s := range f.itinerary(t).Stops {
		if s.ID == f.id(name) {
			return s
		}
	}
	t.Fatalf("stop %s not found", name)
	return nil
}

func threeDayTrip() []stopDef {
	return []stopDef{
		{name: "A", day: 0, hour: 9, hours: 2},
		{name: "B", day: 1, hour: 9, hours: 2},
		{name: "C", day: 2, hour: 9, hours: 2},
	}
}
