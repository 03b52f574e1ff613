package services

import (
	"context"
	"fmt"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/platform/obs"
	"roadtrip-planner/internal/ports"
	"time"

	"github.com/google/uuid"
)

// LockPolicy decides what recalculation does with locked schedule fields.
type LockPolicy string

const (
	// LockPolicyAdvisory overwrites locked stops and only reports the flag.
	LockPolicyAdvisory LockPolicy = "advisory"
	// LockPolicyEnforce keeps locked start/end values as they are.
	LockPolicyEnforce LockPolicy = "enforce"
)

func ParseLockPolicy(s string) (LockPolicy, error) {
	switch LockPolicy(s) {
	case LockPolicyAdvisory, "":
		return LockPolicyAdvisory, nil
	case LockPolicyEnforce:
		return LockPolicyEnforce, nil
	}
	return "", fmt.Errorf("unknown lock policy %q: %w", s, domain.ErrInvalidInput)
}

// ReorderMove describes a manual move of one stop. A zero move (all
// fields nil) means no move was made.
type ReorderMove struct {
	StopID      *uuid.UUID
	OldPosition *int
	NewPosition *int
}

func (m ReorderMove) empty() bool {
	return m.StopID == nil && m.OldPosition == nil && m.NewPosition == nil
}

// StopReschedule reports what recalculation did to one timed stop.
type StopReschedule struct {
	StopID        uuid.UUID
	Locked        bool
	Skipped       bool
	PreviousStart *time.Time
	PreviousEnd   *time.Time
	NewStart      *time.Time
	NewEnd        *time.Time
}

type RecalculationResult struct {
	UpdatedStops int
	Stops        []StopReschedule
}

// Itinerary is the read model of one trip.
type Itinerary struct {
	Trip  domain.Trip
	Stops []*domain.Stop
	Legs  []*domain.Leg
}

// ScheduleEngine owns the stops' schedule fields and the trip defaults.
// It never writes position indices.
type ScheduleEngine struct {
	store      ports.TripStore
	lockPolicy LockPolicy
	now        func() time.Time
}

func NewScheduleEngine(store ports.TripStore, lockPolicy LockPolicy) *ScheduleEngine {
	if lockPolicy == "" {
		lockPolicy = LockPolicyAdvisory
	}
	return &ScheduleEngine{store: store, lockPolicy: lockPolicy, now: time.Now}
}

// UpdateTripScheduleDefaults replaces the trip-level defaults. Stops are untouched.
func (e *ScheduleEngine) UpdateTripScheduleDefaults(ctx context.Context, tripID uuid.UUID, defaults domain.ScheduleDefaults) (err error) {
	defer obs.Time(ctx, "schedule.UpdateTripScheduleDefaults")(&err)

	if err := defaults.Validate(); err != nil {
		return fmt.Errorf("update trip schedule defaults: %w", err)
	}

	return e.store.Tx(ctx, func(repo ports.TripRepository) error {
		if err := repo.UpdateTripSchedule(ctx, tripID, defaults); err != nil {
			return fmt.Errorf("update trip schedule defaults: %w", err)
		}
		return nil
	})
}

// UpdateStopSchedule replaces every schedule field of one stop.
func (e *ScheduleEngine) UpdateStopSchedule(ctx context.Context, tripID, stopID uuid.UUID, schedule domain.StopSchedule) (err error) {
	defer obs.Time(ctx, "schedule.UpdateStopSchedule")(&err)

	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("update stop schedule: %w", err)
	}

	return e.store.Tx(ctx, func(repo ports.TripRepository) error {
		if _, err := repo.GetStop(ctx, tripID, stopID); err != nil {
			return fmt.Errorf("update stop schedule: %w", err)
		}
		if err := repo.UpdateStopSchedule(ctx, tripID, stopID, schedule); err != nil {
			return fmt.Errorf("update stop schedule: %w", err)
		}
		return nil
	})
}

// GetItinerary returns the trip with its stops and legs by position.
// A missing trip is reported as ok=false, not as an error.
func (e *ScheduleEngine) GetItinerary(ctx context.Context, tripID uuid.UUID) (_ *Itinerary, ok bool, err error) {
	defer obs.Time(ctx, "schedule.GetItinerary")(&err)

	var it *Itinerary
	err = e.store.Tx(ctx, func(repo ports.TripRepository) error {
		trip, err := repo.GetTrip(ctx, tripID)
		if err != nil {
			return err
		}
		stops, err := repo.ListStops(ctx, tripID)
		if err != nil {
			return err
		}
		legs, err := repo.ListLegs(ctx, tripID)
		if err != nil {
			return err
		}
		it = &Itinerary{Trip: *trip, Stops: stops, Legs: legs}
		return nil
	})
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get itinerary %s: %w", tripID, err)
	}
	return it, true, nil
}

// RecalculateAfterReorder re-derives every timed stop's dates after a
// manual move. Without a move it does nothing.
func (e *ScheduleEngine) RecalculateAfterReorder(
	ctx context.Context,
	tripID uuid.UUID,
	move ReorderMove,
	preserveLockedDays bool,
) (_ *RecalculationResult, err error) {
	defer obs.Time(ctx, "schedule.RecalculateAfterReorder")(&err)

	if move.empty() {
		return &RecalculationResult{Stops: []StopReschedule{}}, nil
	}

	return e.recalculate(ctx, tripID, move.StopID, preserveLockedDays)
}

// RecalculateAll runs the same pass as RecalculateAfterReorder without
// requiring a move, for callers that changed the order some other way.
func (e *ScheduleEngine) RecalculateAll(ctx context.Context, tripID uuid.UUID, preserveLockedDays bool) (_ *RecalculationResult, err error) {
	defer obs.Time(ctx, "schedule.RecalculateAll")(&err)
	return e.recalculate(ctx, tripID, nil, preserveLockedDays)
}

// recalculate treats position as ground truth: the stop at rank i gets
// the calendar date tripStart+i days, keeping its wall-clock time of day
// (in the stop's own zone) and its start-to-end duration.
func (e *ScheduleEngine) recalculate(
	ctx context.Context,
	tripID uuid.UUID,
	movedStopID *uuid.UUID,
	preserveLockedDays bool,
) (*RecalculationResult, error) {
	policy := e.lockPolicy
	if preserveLockedDays {
		policy = LockPolicyEnforce
	}

	result := &RecalculationResult{Stops: []StopReschedule{}}
	err := e.store.Tx(ctx, func(repo ports.TripRepository) error {
		trip, err := repo.GetTrip(ctx, tripID)
		if err != nil {
			return err
		}
		if movedStopID != nil {
			if _, err := repo.GetStop(ctx, tripID, *movedStopID); err != nil {
				return err
			}
		}

		stops, err := repo.ListStops(ctx, tripID)
		if err != nil {
			return err
		}

		tripLoc := trip.Schedule.Location()
		start := e.now()
		if trip.Schedule.StartAt != nil {
			start = *trip.Schedule.StartAt
		}
		y, m, d := start.In(tripLoc).Date()

		for rank, stop := range domain.ByPosition(stops) {
			if !stop.Timed() {
				continue
			}

			change := rescheduleStop(stop, y, m, d+rank, tripLoc, policy)
			result.Stops = append(result.Stops, change)
			if change.Skipped || (timeEqual(change.PreviousStart, change.NewStart) && timeEqual(change.PreviousEnd, change.NewEnd)) {
				continue
			}

			sch := stop.Schedule
			sch.PlannedStart = change.NewStart
			sch.PlannedEnd = change.NewEnd
			if err := repo.UpdateStopSchedule(ctx, tripID, stop.ID, sch); err != nil {
				return err
			}
			result.UpdatedStops++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recalculate schedule of trip %s: %w", tripID, err)
	}
	return result, nil
}

func rescheduleStop(stop *domain.Stop, y int, m time.Month, day int, tripLoc *time.Location, policy LockPolicy) StopReschedule {
	sch := stop.Schedule
	change := StopReschedule{
		StopID:        stop.ID,
		Locked:        sch.StartLocked || sch.EndLocked,
		PreviousStart: sch.PlannedStart,
		PreviousEnd:   sch.PlannedEnd,
		NewStart:      sch.PlannedStart,
		NewEnd:        sch.PlannedEnd,
	}

	loc := tripLoc
	if sch.TimeZone != "" {
		if l, err := domain.LoadLocation(sch.TimeZone); err == nil {
			loc = l
		}
	}

	old := sch.PlannedStart.In(loc)
	start := time.Date(y, m, day, old.Hour(), old.Minute(), old.Second(), old.Nanosecond(), loc)
	var end *time.Time
	if sch.PlannedEnd != nil {
		e := start.Add(sch.PlannedEnd.Sub(*sch.PlannedStart))
		end = &e
	}

	if policy == LockPolicyEnforce {
		if sch.StartLocked {
			start = *sch.PlannedStart
			if end != nil && !sch.EndLocked {
				e := start.Add(sch.PlannedEnd.Sub(*sch.PlannedStart))
				end = &e
			}
		}
		if sch.EndLocked {
			end = sch.PlannedEnd
		}
		if end != nil && end.Before(start) {
			change.Skipped = true
			return change
		}
	}

	change.NewStart = &start
	change.NewEnd = end
	return change
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
