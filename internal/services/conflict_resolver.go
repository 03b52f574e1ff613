package services

import (
	"context"
	"fmt"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/platform/obs"
	"roadtrip-planner/internal/ports"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ScheduleChangeCheck is the outcome of a hypothetical schedule edit.
type ScheduleChangeCheck struct {
	StopID            uuid.UUID
	WouldConflict     bool
	CurrentIndex      int
	HypotheticalIndex int
	// AffectedStops are the other timed stops whose order relative to the
	// edited stop would disagree with the drive order.
	AffectedStops []uuid.UUID
}

// ReorderResult describes a position rewrite.
type ReorderResult struct {
	Applied       bool
	Warning       string
	Positions     []domain.PositionUpdate
	PreviousOrder []uuid.UUID
	NewOrder      []uuid.UUID
}

// ConflictResolver compares drive order with timeline order and can make
// the drive order follow the timeline. It only ever writes positions.
type ConflictResolver struct {
	store ports.TripStore
}

func NewConflictResolver(store ports.TripStore) *ConflictResolver {
	return &ConflictResolver{store: store}
}

// DetectOrderConflicts never reports a conflict as an error. A trip with an
// untimed stop gets an indeterminate report with HasConflict=false.
func (r *ConflictResolver) DetectOrderConflicts(ctx context.Context, tripID uuid.UUID) (_ *domain.ConflictReport, err error) {
	defer obs.Time(ctx, "conflicts.DetectOrderConflicts")(&err)

	stops, err := r.tripStops(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("detect order conflicts: %w", err)
	}
	report := domain.CompareOrders(stops)
	return &report, nil
}

// CheckScheduleChangeConflict evaluates newStart/newEnd for one stop
// without writing anything. Only timed stops take part in the comparison.
func (r *ConflictResolver) CheckScheduleChangeConflict(
	ctx context.Context,
	tripID, stopID uuid.UUID,
	newStart time.Time,
	newEnd *time.Time,
) (_ *ScheduleChangeCheck, err error) {
	defer obs.Time(ctx, "conflicts.CheckScheduleChangeConflict")(&err)

	if newEnd != nil && newEnd.Before(newStart) {
		return nil, fmt.Errorf("check schedule change: end before start: %w", domain.ErrInvalidInput)
	}

	var stops []*domain.Stop
	err = r.store.Tx(ctx, func(repo ports.TripRepository) error {
		if _, err := repo.GetStop(ctx, tripID, stopID); err != nil {
			return err
		}
		stops, err = repo.ListStops(ctx, tripID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("check schedule change: %w", err)
	}

	hypothetical := make([]*domain.Stop, 0, len(stops))
	for _, s := range stops {
		if s.ID == stopID {
			edited := *s
			edited.Schedule.PlannedStart = &newStart
			edited.Schedule.PlannedEnd = newEnd
			s = &edited
		}
		if s.Timed() {
			hypothetical = append(hypothetical, s)
		}
	}

	byPos := domain.StopIDs(domain.ByPosition(hypothetical))
	byTime := domain.StopIDs(domain.ByPlannedStart(hypothetical))

	check := &ScheduleChangeCheck{
		StopID:            stopID,
		CurrentIndex:      slices.Index(byPos, stopID),
		HypotheticalIndex: slices.Index(byTime, stopID),
		AffectedStops:     []uuid.UUID{},
	}
	check.WouldConflict = check.CurrentIndex != check.HypotheticalIndex

	for _, id := range byPos {
		if id == stopID {
			continue
		}
		beforeInDrive := slices.Index(byPos, id) < check.CurrentIndex
		beforeInTime := slices.Index(byTime, id) < check.HypotheticalIndex
		if beforeInDrive != beforeInTime {
			check.AffectedStops = append(check.AffectedStops, id)
		}
	}
	return check, nil
}

// CalculateOrderByTimeSequence returns the timed stops' ids by planned start.
func (r *ConflictResolver) CalculateOrderByTimeSequence(ctx context.Context, tripID uuid.UUID) (_ []uuid.UUID, err error) {
	defer obs.Time(ctx, "conflicts.CalculateOrderByTimeSequence")(&err)

	stops, err := r.tripStops(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("calculate order by time sequence: %w", err)
	}
	return domain.StopIDs(domain.ByPlannedStart(stops)), nil
}

// ApplyTimeBasedOrder rewrites positions so the timed stops' drive order
// matches their planned starts. Timed stops are redistributed over the
// slots they already hold, so untimed stops keep their positions.
func (r *ConflictResolver) ApplyTimeBasedOrder(ctx context.Context, tripID uuid.UUID) (_ *ReorderResult, err error) {
	defer obs.Time(ctx, "conflicts.ApplyTimeBasedOrder")(&err)

	var result *ReorderResult
	err = r.store.Tx(ctx, func(repo ports.TripRepository) error {
		if _, err := repo.GetTrip(ctx, tripID); err != nil {
			return err
		}
		stops, err := repo.ListStops(ctx, tripID)
		if err != nil {
			return err
		}
		result, err = applyTimeBasedOrder(ctx, repo, tripID, stops)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("apply time based order: %w", err)
	}
	return result, nil
}

func applyTimeBasedOrder(ctx context.Context, repo ports.TripRepository, tripID uuid.UUID, stops []*domain.Stop) (*ReorderResult, error) {
	byPos := domain.ByPosition(stops)
	byTime := domain.ByPlannedStart(stops)

	result := &ReorderResult{
		Positions:     []domain.PositionUpdate{},
		PreviousOrder: domain.StopIDs(byPos),
		NewOrder:      domain.StopIDs(byPos),
	}
	if len(byTime) < 2 {
		result.Warning = "fewer than two stops have a planned start; order left unchanged"
		return result, nil
	}

	slots := make([]int, 0, len(byTime))
	for _, s := range byTime {
		slots = append(slots, s.Position)
	}
	slices.Sort(slots)

	updates := make([]domain.PositionUpdate, 0, len(byTime))
	for i, s := range byTime {
		updates = append(updates, domain.PositionUpdate{StopID: s.ID, Position: slots[i]})
	}
	updates = changedPositions(stops, updates)
	if err := writePositions(ctx, repo, tripID, updates); err != nil {
		return nil, err
	}

	after, err := repo.ListStops(ctx, tripID)
	if err != nil {
		return nil, err
	}
	result.Applied = len(updates) > 0
	result.Positions = updates
	result.NewOrder = domain.StopIDs(domain.ByPosition(after))
	return result, nil
}

func (r *ConflictResolver) tripStops(ctx context.Context, tripID uuid.UUID) ([]*domain.Stop, error) {
	var stops []*domain.Stop
	err := r.store.Tx(ctx, func(repo ports.TripRepository) error {
		if _, err := repo.GetTrip(ctx, tripID); err != nil {
			return err
		}
		var err error
		stops, err = repo.ListStops(ctx, tripID)
		return err
	})
	return stops, err
}
