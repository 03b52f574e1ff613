package domain

import (
	"slices"

	"github.com/google/uuid"
)

// ConflictStatus summarises how the position order relates to the timeline order.
type ConflictStatus string

const (
	ConflictStatusConsistent ConflictStatus = "consistent"
	ConflictStatusConflict   ConflictStatus = "conflict"
	// ConflictStatusIndeterminate means at least one stop has no planned
	// start, so the two orders cannot be compared.
	ConflictStatusIndeterminate ConflictStatus = "indeterminate"
)

// DivergentStop is a stop whose index differs between the two orderings.
type DivergentStop struct {
	StopID          uuid.UUID
	PositionIndex   int
	TimeSequenceIdx int
}

// ConflictReport is a computed comparison and is never persisted.
type ConflictReport struct {
	Status           ConflictStatus
	HasConflict      bool
	Conflicts        []DivergentStop
	PositionSequence []uuid.UUID
	TimeSequence     []uuid.UUID
}

// ByPosition returns a copy of stops sorted by position index.
func ByPosition(stops []*Stop) []*Stop {
	out := slices.Clone(stops)
	slices.SortStableFunc(out, func(a, b *Stop) int { return a.Position - b.Position })
	return out
}

// ByPlannedStart returns the timed stops sorted by planned start.
// Equal starts keep position order so the result is deterministic.
func ByPlannedStart(stops []*Stop) []*Stop {
	out := make([]*Stop, 0, len(stops))
	for _, s := range stops {
		if s.Timed() {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b *Stop) int {
		if c := a.Schedule.PlannedStart.Compare(*b.Schedule.PlannedStart); c != 0 {
			return c
		}
		return a.Position - b.Position
	})
	return out
}

// StopIDs projects stops onto their identities.
func StopIDs(stops []*Stop) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(stops))
	for _, s := range stops {
		ids = append(ids, s.ID)
	}
	return ids
}

// CompareOrders builds a conflict report for stops. When any stop lacks a
// planned start the report is indeterminate and carries no conflicts.
func CompareOrders(stops []*Stop) ConflictReport {
	byPos := ByPosition(stops)
	byTime := ByPlannedStart(stops)

	report := ConflictReport{
		Status:           ConflictStatusConsistent,
		Conflicts:        []DivergentStop{},
		PositionSequence: StopIDs(byPos),
		TimeSequence:     StopIDs(byTime),
	}

	if len(byTime) != len(byPos) {
		report.Status = ConflictStatusIndeterminate
		return report
	}

	timeIdx := make(map[uuid.UUID]int, len(byTime))
	for i, s := range byTime {
		timeIdx[s.ID] = i
	}

	for i, s := range byPos {
		if byTime[i].ID == s.ID {
			continue
		}
		report.Conflicts = append(report.Conflicts, DivergentStop{
			StopID:          s.ID,
			PositionIndex:   i,
			TimeSequenceIdx: timeIdx[s.ID],
		})
	}

	if len(report.Conflicts) > 0 {
		report.Status = ConflictStatusConflict
		report.HasConflict = true
	}
	return report
}
