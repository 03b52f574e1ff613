package dto

import (
	"time"

	"github.com/google/uuid"
)

type ReorderRequest struct {
	StopIDs             []uuid.UUID `json:"stop_ids"`
	RecalculateSchedule bool        `json:"recalculate_schedule"`
	PreserveLockedDays  bool        `json:"preserve_locked_days"`
}

type AddStopRequest struct {
	PlaceID  uuid.UUID `json:"place_id"`
	Position *int      `json:"position"`
	StopSchedule
}

type PositionChange struct {
	StopID   uuid.UUID `json:"stop_id"`
	Position int       `json:"position"`
}

type ReorderResponse struct {
	Applied       bool             `json:"applied"`
	Warning       string           `json:"warning,omitempty"`
	Positions     []PositionChange `json:"positions"`
	PreviousOrder []uuid.UUID      `json:"previous_order"`
	NewOrder      []uuid.UUID      `json:"new_order"`
}

type StopRescheduleResponse struct {
	StopID        uuid.UUID  `json:"stop_id"`
	Locked        bool       `json:"locked"`
	Skipped       bool       `json:"skipped"`
	PreviousStart *time.Time `json:"previous_start"`
	PreviousEnd   *time.Time `json:"previous_end"`
	NewStart      *time.Time `json:"new_start"`
	NewEnd        *time.Time `json:"new_end"`
}

type RecalculationResponse struct {
	UpdatedStops int                      `json:"updated_stops"`
	Stops        []StopRescheduleResponse `json:"stops"`
}

// EditResponse is returned by every structural edit. LegWarning is set
// when the edit was committed but the legs could not be rerouted.
type EditResponse struct {
	Reorder    *ReorderResponse          `json:"reorder,omitempty"`
	Schedule   *RecalculationResponse    `json:"schedule,omitempty"`
	Check      *ScheduleCheckResponse    `json:"conflict_check,omitempty"`
	Stop       *StopResponse             `json:"stop,omitempty"`
	Legs       *LegRecalculationResponse `json:"legs,omitempty"`
	LegWarning string                    `json:"leg_warning,omitempty"`
}
