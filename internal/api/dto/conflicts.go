package dto

import (
	"time"

	"github.com/google/uuid"
)

type DivergentStop struct {
	StopID            uuid.UUID `json:"stop_id"`
	PositionIndex     int       `json:"position_index"`
	TimeSequenceIndex int       `json:"time_sequence_index"`
}

type ConflictReportResponse struct {
	Status           string          `json:"status"`
	HasConflict      bool            `json:"has_conflict"`
	Conflicts        []DivergentStop `json:"conflicts"`
	PositionSequence []uuid.UUID     `json:"position_sequence"`
	TimeSequence     []uuid.UUID     `json:"time_sequence"`
}

type ScheduleCheckRequest struct {
	StopID       uuid.UUID  `json:"stop_id"`
	PlannedStart *time.Time `json:"planned_start"`
	PlannedEnd   *time.Time `json:"planned_end"`
}

type ScheduleCheckResponse struct {
	StopID            uuid.UUID   `json:"stop_id"`
	WouldConflict     bool        `json:"would_conflict"`
	CurrentIndex      int         `json:"current_index"`
	HypotheticalIndex int         `json:"hypothetical_index"`
	AffectedStops     []uuid.UUID `json:"affected_stops"`
}

type ResolveRequest struct {
	RecalculateSchedule bool `json:"recalculate_schedule"`
	PreserveLockedDays  bool `json:"preserve_locked_days"`
}

type TimelineResponse struct {
	StopIDs []uuid.UUID `json:"stop_ids"`
}
