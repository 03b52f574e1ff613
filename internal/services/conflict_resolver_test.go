package services

import (
	"context"
	"roadtrip-planner/internal/domain"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectOrderConflicts(t *testing.T) {
	tests := []struct {
		name         string
		days         [3]int
		wantStatus   domain.ConflictStatus
		wantConflict int
	}{
		{name: "chronological", days: [3]int{0, 1, 2}, wantStatus: domain.ConflictStatusConsistent},
		{name: "last two swapped", days: [3]int{0, 2, 1}, wantStatus: domain.ConflictStatusConflict, wantConflict: 2},
		{name: "rotated", days: [3]int{2, 0, 1}, wantStatus: domain.ConflictStatusConflict, wantConflict: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, LockPolicyAdvisory,
				stopDef{name: "A", day: tt.days[0], hour: 9, hours: 1},
				stopDef{name: "B", day: tt.days[1], hour: 9, hours: 1},
				stopDef{name: "C", day: tt.days[2], hour: 9, hours: 1},
			)

			report, err := f.conflicts.DetectOrderConflicts(context.Background(), f.trip.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, report.Status)
			assert.Len(t, report.Conflicts, tt.wantConflict)
			assert.Equal(t, tt.wantConflict > 0, report.HasConflict)

			sameOrder := assert.ObjectsAreEqual(report.PositionSequence, report.TimeSequence)
			assert.Equal(t, sameOrder, !report.HasConflict)
		})
	}
}

func TestDetectOrderConflictsCarriesBothIndices(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory,
		stopDef{name: "A", day: 2, hour: 9, hours: 1},
		stopDef{name: "B", day: 0, hour: 9, hours: 1},
		stopDef{name: "C", day: 1, hour: 9, hours: 1},
	)

	report, err := f.conflicts.DetectOrderConflicts(context.Background(), f.trip.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ids("A", "B", "C"), report.PositionSequence)
	assert.Equal(t, f.ids("B", "C", "A"), report.TimeSequence)
	assert.Equal(t, domain.DivergentStop{StopID: f.id("A"), PositionIndex: 0, TimeSequenceIdx: 2}, report.Conflicts[0])
}

func TestDetectOrderConflictsIndeterminateWhenUntimed(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory,
		stopDef{name: "A", day: 2, hour: 9, hours: 1},
		stopDef{name: "B", untimed: true},
		stopDef{name: "C", day: 0, hour: 9, hours: 1},
	)

	report, err := f.conflicts.DetectOrderConflicts(context.Background(), f.trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConflictStatusIndeterminate, report.Status)
	assert.False(t, report.HasConflict)
	assert.Empty(t, report.Conflicts)
}

func TestDetectOrderConflictsMissingTrip(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory)

	_, err := f.conflicts.DetectOrderConflicts(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckScheduleChangeConflict(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)
	ctx := context.Background()

	start := day(5, 9)
	check, err := f.conflicts.CheckScheduleChangeConflict(ctx, f.trip.ID, f.id("A"), start, nil)
	require.NoError(t, err)
	assert.True(t, check.WouldConflict)
	assert.Equal(t, 0, check.CurrentIndex)
	assert.Equal(t, 2, check.HypotheticalIndex)
	assert.ElementsMatch(t, f.ids("B", "C"), check.AffectedStops)

	assert.True(t, day(0, 9).Equal(*f.stop(t, "A").Schedule.PlannedStart), "check must not write")

	start = day(1, 8)
	check, err = f.conflicts.CheckScheduleChangeConflict(ctx, f.trip.ID, f.id("B"), start, nil)
	require.NoError(t, err)
	assert.False(t, check.WouldConflict)
	assert.Empty(t, check.AffectedStops)
}

func TestCheckScheduleChangeConflictRejectsBadInput(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory, threeDayTrip()...)
	ctx := context.Background()

	start, end := day(1, 10), day(1, 9)
	_, err := f.conflicts.CheckScheduleChangeConflict(ctx, f.trip.ID, f.id("A"), start, &end)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.conflicts.CheckScheduleChangeConflict(ctx, f.trip.ID, uuid.New(), start, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyTimeBasedOrderConverges(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory,
		stopDef{name: "A", day: 2, hour: 9, hours: 1},
		stopDef{name: "B", day: 0, hour: 9, hours: 1},
		stopDef{name: "C", day: 1, hour: 9, hours: 1},
		stopDef{name: "D", day: 3, hour: 9, hours: 1},
	)
	ctx := context.Background()

	res, err := f.conflicts.ApplyTimeBasedOrder(ctx, f.trip.ID)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Len(t, res.Positions, 3)
	assert.Equal(t, f.ids("A", "B", "C", "D"), res.PreviousOrder)
	assert.Equal(t, f.ids("B", "C", "A", "D"), res.NewOrder)

	report, err := f.conflicts.DetectOrderConflicts(ctx, f.trip.ID)
	require.NoError(t, err)
	assert.False(t, report.HasConflict)

	again, err := f.conflicts.ApplyTimeBasedOrder(ctx, f.trip.ID)
	require.NoError(t, err)
	assert.False(t, again.Applied)
}

func TestApplyTimeBasedOrderKeepsUntimedSlots(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory,
		stopDef{name: "A", untimed: true},
		stopDef{name: "B", day: 2, hour: 9, hours: 1},
		stopDef{name: "C", day: 1, hour: 9, hours: 1},
	)

	res, err := f.conflicts.ApplyTimeBasedOrder(context.Background(), f.trip.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ids("A", "C", "B"), res.NewOrder)
	assert.Equal(t, 0, f.stop(t, "A").Position)
}

func TestApplyTimeBasedOrderNeedsTwoTimedStops(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory,
		stopDef{name: "A", untimed: true},
		stopDef{name: "B", day: 2, hour: 9, hours: 1},
	)

	res, err := f.conflicts.ApplyTimeBasedOrder(context.Background(), f.trip.ID)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, res.PreviousOrder, res.NewOrder)
}

func TestCalculateOrderByTimeSequence(t *testing.T) {
	f := newFixture(t, LockPolicyAdvisory,
		stopDef{name: "A", day: 1, hour: 9, hours: 1},
		stopDef{name: "B", day: 1, hour: 7, hours: 1},
		stopDef{name: "C", untimed: true},
	)

	ids, err := f.conflicts.CalculateOrderByTimeSequence(context.Background(), f.trip.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ids("B", "A"), ids)
	assert.Equal(t, f.ids("A", "B", "C"), domain.StopIDs(f.itinerary(t).Stops), "ranking is not committed")
}
