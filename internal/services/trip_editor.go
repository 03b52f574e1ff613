package services

import (
	"context"
	"fmt"
	"log/slog"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/platform/obs"
	"roadtrip-planner/internal/ports"
	"slices"

	"github.com/google/uuid"
)

// EditResult carries the primary outcome of an edit plus the best-effort
// leg refresh that followed it. A failed refresh sets LegWarning and
// leaves the primary mutation committed.
type EditResult struct {
	Reorder    *ReorderResult
	Schedule   *RecalculationResult
	Check      *ScheduleChangeCheck
	Stop       *domain.Stop
	Legs       *LegRecalculation
	LegWarning string
}

// AddStopInput describes a new stop. A nil Position appends the stop.
type AddStopInput struct {
	PlaceID  uuid.UUID
	Position *int
	Schedule domain.StopSchedule
}

// TripEditor composes the schedule engine, the conflict resolver and the
// leg manager into the edit flows exposed over HTTP.
type TripEditor struct {
	store     ports.TripStore
	schedule  *ScheduleEngine
	conflicts *ConflictResolver
	legs      *LegManager
}

func NewTripEditor(store ports.TripStore, schedule *ScheduleEngine, conflicts *ConflictResolver, legs *LegManager) *TripEditor {
	return &TripEditor{store: store, schedule: schedule, conflicts: conflicts, legs: legs}
}

// ReorderStops makes orderedIDs the new drive order. orderedIDs must name
// every stop of the trip exactly once.
func (e *TripEditor) ReorderStops(
	ctx context.Context,
	tripID uuid.UUID,
	orderedIDs []uuid.UUID,
	recalcSchedule bool,
	preserveLockedDays bool,
) (_ *EditResult, err error) {
	defer obs.Time(ctx, "editor.ReorderStops")(&err)

	var (
		reorder *ReorderResult
		move    ReorderMove
	)
	err = e.store.Tx(ctx, func(repo ports.TripRepository) error {
		if _, err := repo.GetTrip(ctx, tripID); err != nil {
			return err
		}
		stops, err := repo.ListStops(ctx, tripID)
		if err != nil {
			return err
		}
		stops = domain.ByPosition(stops)
		current := domain.StopIDs(stops)
		if err := checkPermutation(current, orderedIDs); err != nil {
			return err
		}

		move = detectMove(current, orderedIDs)

		updates := make([]domain.PositionUpdate, 0, len(orderedIDs))
		for i, id := range orderedIDs {
			updates = append(updates, domain.PositionUpdate{StopID: id, Position: i})
		}
		updates = changedPositions(stops, updates)
		if err := writePositions(ctx, repo, tripID, updates); err != nil {
			return err
		}

		reorder = &ReorderResult{
			Applied:       len(updates) > 0,
			Positions:     updates,
			PreviousOrder: current,
			NewOrder:      slices.Clone(orderedIDs),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reorder stops: %w", err)
	}

	result := &EditResult{Reorder: reorder}
	if recalcSchedule {
		result.Schedule, err = e.schedule.RecalculateAfterReorder(ctx, tripID, move, preserveLockedDays)
		if err != nil {
			return nil, fmt.Errorf("reorder stops: %w", err)
		}
	}

	e.refreshLegs(ctx, tripID, result)
	return result, nil
}

// ResolveConflictsByReorder applies the timeline order and, when asked,
// re-derives dates from the new positions.
func (e *TripEditor) ResolveConflictsByReorder(ctx context.Context, tripID uuid.UUID, recalcSchedule, preserveLockedDays bool) (_ *EditResult, err error) {
	defer obs.Time(ctx, "editor.ResolveConflictsByReorder")(&err)

	reorder, err := e.conflicts.ApplyTimeBasedOrder(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("resolve conflicts: %w", err)
	}

	result := &EditResult{Reorder: reorder}
	if !reorder.Applied {
		return result, nil
	}

	if recalcSchedule {
		result.Schedule, err = e.schedule.RecalculateAll(ctx, tripID, preserveLockedDays)
		if err != nil {
			return nil, fmt.Errorf("resolve conflicts: %w", err)
		}
	}

	e.refreshLegs(ctx, tripID, result)
	return result, nil
}

// UpdateStopSchedule checks the edit for a would-be conflict, then commits
// it regardless. The check is returned for the caller to surface.
func (e *TripEditor) UpdateStopSchedule(ctx context.Context, tripID, stopID uuid.UUID, schedule domain.StopSchedule) (_ *EditResult, err error) {
	defer obs.Time(ctx, "editor.UpdateStopSchedule")(&err)

	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("update stop schedule: %w", err)
	}

	result := &EditResult{}
	if schedule.PlannedStart != nil {
		result.Check, err = e.conflicts.CheckScheduleChangeConflict(ctx, tripID, stopID, *schedule.PlannedStart, schedule.PlannedEnd)
		if err != nil {
			return nil, err
		}
	}

	if err := e.schedule.UpdateStopSchedule(ctx, tripID, stopID, schedule); err != nil {
		return nil, err
	}
	return result, nil
}

// AddStop inserts a stop. An explicit position shifts the stops at and
// after it one slot later.
func (e *TripEditor) AddStop(ctx context.Context, tripID uuid.UUID, in AddStopInput) (_ *EditResult, err error) {
	defer obs.Time(ctx, "editor.AddStop")(&err)

	if in.Schedule.Kind == "" {
		in.Schedule.Kind = domain.StopKindWaypoint
	}
	if err := in.Schedule.Validate(); err != nil {
		return nil, fmt.Errorf("add stop: %w", err)
	}
	if in.Schedule.PlannedStart != nil && in.Schedule.PlannedEnd == nil {
		end := in.Schedule.PlannedStart.Add(in.Schedule.Stay.Length(in.Schedule.Kind))
		in.Schedule.PlannedEnd = &end
	}
	if in.Position != nil && *in.Position < 0 {
		return nil, fmt.Errorf("add stop: negative position %d: %w", *in.Position, domain.ErrInvalidInput)
	}

	var stop *domain.Stop
	err = e.store.Tx(ctx, func(repo ports.TripRepository) error {
		if _, err := repo.GetTrip(ctx, tripID); err != nil {
			return err
		}
		place, err := repo.GetPlace(ctx, in.PlaceID)
		if err != nil {
			return err
		}
		stops, err := repo.ListStops(ctx, tripID)
		if err != nil {
			return err
		}
		stops = domain.ByPosition(stops)

		position := len(stops)
		if in.Position != nil && *in.Position < len(stops) {
			position = *in.Position
		}

		updates := make([]domain.PositionUpdate, 0, len(stops))
		for i, s := range stops {
			p := i
			if i >= position {
				p = i + 1
			}
			updates = append(updates, domain.PositionUpdate{StopID: s.ID, Position: p})
		}
		if err := writePositions(ctx, repo, tripID, changedPositions(stops, updates)); err != nil {
			return err
		}

		stop = &domain.Stop{
			ID:       uuid.New(),
			TripID:   tripID,
			Place:    *place,
			Position: position,
			Schedule: in.Schedule,
		}
		return repo.InsertStop(ctx, stop)
	})
	if err != nil {
		return nil, fmt.Errorf("add stop: %w", err)
	}

	result := &EditResult{Stop: stop}
	e.refreshLegs(ctx, tripID, result)
	return result, nil
}

// RemoveStop deletes a stop and closes the gap it leaves.
func (e *TripEditor) RemoveStop(ctx context.Context, tripID, stopID uuid.UUID) (_ *EditResult, err error) {
	defer obs.Time(ctx, "editor.RemoveStop")(&err)

	var reorder *ReorderResult
	err = e.store.Tx(ctx, func(repo ports.TripRepository) error {
		before, err := repo.ListStops(ctx, tripID)
		if err != nil {
			return err
		}
		if err := repo.DeleteStop(ctx, tripID, stopID); err != nil {
			return err
		}
		stops, err := repo.ListStops(ctx, tripID)
		if err != nil {
			return err
		}
		stops = domain.ByPosition(stops)

		updates := make([]domain.PositionUpdate, 0, len(stops))
		for i, s := range stops {
			updates = append(updates, domain.PositionUpdate{StopID: s.ID, Position: i})
		}
		updates = changedPositions(stops, updates)
		if err := writePositions(ctx, repo, tripID, updates); err != nil {
			return err
		}

		reorder = &ReorderResult{
			Applied:       len(updates) > 0,
			Positions:     updates,
			PreviousOrder: domain.StopIDs(domain.ByPosition(before)),
			NewOrder:      domain.StopIDs(stops),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("remove stop: %w", err)
	}

	result := &EditResult{Reorder: reorder}
	e.refreshLegs(ctx, tripID, result)
	return result, nil
}

// refreshLegs reroutes the trip after a structural edit. On failure the
// stored legs are kept if they still match the stops, otherwise replaced
// by a skeleton, and the failure is reported through LegWarning.
func (e *TripEditor) refreshLegs(ctx context.Context, tripID uuid.UUID, result *EditResult) {
	legs, err := e.legs.RecalculateLegsFromOsrm(ctx, tripID)
	if err == nil {
		result.Legs = legs
		return
	}

	logger := obs.FromContext(ctx)
	obs.LogError(logger, "leg recalculation failed", err, slog.String("trip_id", tripID.String()))
	result.LegWarning = fmt.Sprintf("legs not recalculated: %v", err)

	if _, serr := e.legs.SyncLegSkeleton(ctx, tripID); serr != nil {
		obs.LogError(logger, "leg skeleton sync failed", serr, slog.String("trip_id", tripID.String()))
	}
}

func checkPermutation(current, ordered []uuid.UUID) error {
	if len(current) != len(ordered) {
		return fmt.Errorf("order lists %d stops, trip has %d: %w", len(ordered), len(current), domain.ErrInvalidInput)
	}
	seen := make(map[uuid.UUID]bool, len(ordered))
	for _, id := range ordered {
		if seen[id] {
			return fmt.Errorf("stop %s listed twice: %w", id, domain.ErrInvalidInput)
		}
		seen[id] = true
	}
	for _, id := range current {
		if !seen[id] {
			return fmt.Errorf("stop %s missing from order: %w", id, domain.ErrInvalidInput)
		}
	}
	return nil
}

// detectMove finds the single stop whose removal makes both orders equal,
// preferring the one that travelled furthest. Orders that differ by more
// than one move report the first stop out of place.
func detectMove(current, ordered []uuid.UUID) ReorderMove {
	if slices.Equal(current, ordered) {
		return ReorderMove{}
	}

	best, bestDist := -1, -1
	for oldIdx, id := range current {
		newIdx := slices.Index(ordered, id)
		if oldIdx == newIdx {
			continue
		}
		if !slices.Equal(without(current, id), without(ordered, id)) {
			continue
		}
		if d := abs(oldIdx - newIdx); d > bestDist {
			best, bestDist = oldIdx, d
		}
	}

	if best < 0 {
		for i := range ordered {
			if ordered[i] != current[i] {
				best = slices.Index(current, ordered[i])
				break
			}
		}
	}

	id := current[best]
	oldIdx, newIdx := best, slices.Index(ordered, id)
	return ReorderMove{StopID: &id, OldPosition: &oldIdx, NewPosition: &newIdx}
}

func without(ids []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
