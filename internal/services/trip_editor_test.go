package services

import (
	"context"
	"fmt"
	"roadtrip-planner/internal/domain"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorderStopsRejectsIncompleteList(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)
	ctx := context.Background()

	tests := map[string][]uuid.UUID{
		"missing stop":   f.ids("A", "B"),
		"duplicate stop": f.ids("A", "A", "B"),
		"foreign stop":   append(f.ids("A", "B"), uuid.New()),
	}
	for name, ids := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.editor.ReorderStops(ctx, f.trip.ID, ids, true, false)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, f.ids("A", "B", "C"), domain.StopIDs(f.itinerary(t).Stops))
		})
	}
}

func TestReorderStopsRefreshesLegs(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)

	res, err := f.editor.ReorderStops(context.Background(), f.trip.ID, f.ids("B", "A", "C"), false, false)
	require.NoError(t, err)
	assert.Nil(t, res.Schedule)
	assert.Empty(t, res.LegWarning)
	require.NotNil(t, res.Legs)

	it := f.itinerary(t)
	assert.Equal(t, f.ids("B", "A", "C"), domain.StopIDs(it.Stops))
	assert.True(t, domain.LegsMatchStops(it.Legs, it.Stops))
	assert.Equal(t, "mock", it.Legs[0].Provider)
}

func TestReorderStopsSurvivesGatewayFailure(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)
	f.gateway.Err = fmt.Errorf("osrm: 503: %w", domain.ErrUpstreamUnavailable)

	res, err := f.editor.ReorderStops(context.Background(), f.trip.ID, f.ids("C", "A", "B"), true, false)
	require.NoError(t, err)
	assert.NotEmpty(t, res.LegWarning)
	assert.Nil(t, res.Legs)
	assert.Equal(t, 3, res.Schedule.UpdatedStops)

	it := f.itinerary(t)
	assert.Equal(t, f.ids("C", "A", "B"), domain.StopIDs(it.Stops))
	assert.True(t, domain.LegsMatchStops(it.Legs, it.Stops))
	assert.Equal(t, domain.ProviderPending, it.Legs[0].Provider)
}

func TestResolveConflictsByReorder(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory,
		stopDef{name: "A", day: 2, hour: 9, hours: 1},
		stopDef{name: "B", day: 0, hour: 9, hours: 1},
		stopDef{name: "C", day: 0, hour: 15, hours: 1},
	)
	ctx := context.Background()

	res, err := f.editor.ResolveConflictsByReorder(ctx, f.trip.ID, true, false)
	require.NoError(t, err)
	assert.True(t, res.Reorder.Applied)
	require.NotNil(t, res.Schedule)

	it := f.itinerary(t)
	assert.Equal(t, f.ids("B", "C", "A"), domain.StopIDs(it.Stops))
	assert.True(t, day(1, 15).Equal(*it.Stops[1].Schedule.PlannedStart))
	assert.True(t, domain.LegsMatchStops(it.Legs, it.Stops))

	report, err := f.conflicts.DetectOrderConflicts(ctx, f.trip.ID)
	require.NoError(t, err)
	assert.False(t, report.HasConflict)
}

func TestEditorUpdateStopScheduleReportsConflict(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)

	start := day(4, 9)
	res, err := f.editor.UpdateStopSchedule(context.Background(), f.trip.ID, f.id("A"), domain.StopSchedule{
		Kind:         domain.StopKindWaypoint,
		PlannedStart: &start,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Check)
	assert.True(t, res.Check.WouldConflict)
	assert.True(t, start.Equal(*f.stop(t, "A").Schedule.PlannedStart), "edit is committed anyway")
}

func TestAddStopAtPositionShiftsLaterStops(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)
	place := domain.Place{ID: uuid.New(), Name: "Big Sur", Coordinates: domain.Coordinates{Lon: -121.8, Lat: 36.27}}
	f.store.AddPlace(place)

	pos := 1
	res, err := f.editor.AddStop(context.Background(), f.trip.ID, AddStopInput{
		PlaceID:  place.ID,
		Position: &pos,
		Schedule: domain.StopSchedule{Kind: domain.StopKindOvernight},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Stop)

	it := f.itinerary(t)
	assert.Equal(t, []uuid.UUID{f.id("A"), res.Stop.ID, f.id("B"), f.id("C")}, domain.StopIDs(it.Stops))
	for i, s := range it.Stops {
		assert.Equal(t, i, s.Position)
	}
	assert.Equal(t, "Big Sur", it.Stops[1].Place.Name)
	assert.Len(t, it.Legs, 3)
	assert.True(t, domain.LegsMatchStops(it.Legs, it.Stops))
}

func TestAddStopAppendsByDefault(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)
	place := domain.Place{ID: uuid.New(), Name: "Monterey"}
	f.store.AddPlace(place)

	res, err := f.editor.AddStop(context.Background(), f.trip.ID, AddStopInput{PlaceID: place.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stop.Position)

	_, err = f.editor.AddStop(context.Background(), f.trip.ID, AddStopInput{PlaceID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddStopFillsEndFromStay(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)
	place := domain.Place{ID: uuid.New(), Name: "Santa Barbara"}
	f.store.AddPlace(place)
	ctx := context.Background()

	minutes := 45
	tests := []struct {
		name     string
		schedule domain.StopSchedule
		want     time.Duration
	}{
		{name: "overnight default", schedule: domain.StopSchedule{Kind: domain.StopKindOvernight}, want: 24 * time.Hour},
		{name: "waypoint minutes", schedule: domain.StopSchedule{Kind: domain.StopKindWaypoint, Stay: domain.StayDuration{Minutes: &minutes}}, want: 45 * time.Minute},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := day(3+i, 17)
			tt.schedule.PlannedStart = &start

			res, err := f.editor.AddStop(ctx, f.trip.ID, AddStopInput{PlaceID: place.ID, Schedule: tt.schedule})
			require.NoError(t, err)

			var end *time.Time
			for _, st := range f.itinerary(t).Stops {
				if st.ID == res.Stop.ID {
					end = st.Schedule.PlannedEnd
				}
			}
			require.NotNil(t, end)
			assert.Equal(t, tt.want, end.Sub(start))
		})
	}
}

func TestRemoveStopClosesGap(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)
	ctx := context.Background()

	res, err := f.editor.RemoveStop(ctx, f.trip.ID, f.id("A"))
	require.NoError(t, err)
	assert.True(t, res.Reorder.Applied)

	it := f.itinerary(t)
	assert.Equal(t, f.ids("B", "C"), domain.StopIDs(it.Stops))
	assert.Equal(t, 0, it.Stops[0].Position)
	assert.Len(t, it.Legs, 1)

	_, err = f.editor.RemoveStop(ctx, f.trip.ID, f.id("A"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDetectMove(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name    string
		ordered []uuid.UUID
		wantID  uuid.UUID
		wantOld int
		wantNew int
	}{
		{name: "last to front", ordered: []uuid.UUID{d, a, b, c}, wantID: d, wantOld: 3, wantNew: 0},
		{name: "first to back", ordered: []uuid.UUID{b, c, d, a}, wantID: a, wantOld: 0, wantNew: 3},
		{name: "adjacent swap", ordered: []uuid.UUID{b, a, c, d}, wantID: a, wantOld: 0, wantNew: 1},
		{name: "two moves", ordered: []uuid.UUID{b, a, d, c}, wantID: b, wantOld: 1, wantNew: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			move := detectMove([]uuid.UUID{a, b, c, d}, tt.ordered)
			require.NotNil(t, move.StopID)
			assert.Equal(t, tt.wantID, *move.StopID)
			assert.Equal(t, tt.wantOld, *move.OldPosition)
			assert.Equal(t, tt.wantNew, *move.NewPosition)
		})
	}

	assert.Equal(t, ReorderMove{}, detectMove([]uuid.UUID{a, b}, []uuid.UUID{a, b}))
}
