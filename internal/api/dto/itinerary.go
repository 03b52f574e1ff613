package dto

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleDefaults is used for both the trip schedule request and response.
// Times of day are "HH:MM".
type ScheduleDefaults struct {
	TimeZone         string     `json:"time_zone"`
	StartAt          *time.Time `json:"start_at"`
	EndAt            *time.Time `json:"end_at"`
	DefaultArrival   *string    `json:"default_arrival"`
	DefaultDeparture *string    `json:"default_departure"`
}

// StopSchedule is the full, wholesale-replaced schedule of one stop.
type StopSchedule struct {
	Kind         string     `json:"kind"`
	TimeZone     string     `json:"time_zone"`
	PlannedStart *time.Time `json:"planned_start"`
	PlannedEnd   *time.Time `json:"planned_end"`
	StayNights   *int       `json:"stay_nights"`
	StayMinutes  *int       `json:"stay_minutes"`
	StartLocked  bool       `json:"start_locked"`
	EndLocked    bool       `json:"end_locked"`
}

type TripResponse struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Schedule    ScheduleDefaults `json:"schedule"`
}

type StopResponse struct {
	ID          uuid.UUID  `json:"id"`
	PlaceID     uuid.UUID  `json:"place_id"`
	PlaceName   string     `json:"place_name"`
	Coordinates [2]float64 `json:"coordinates"`
	Position    int        `json:"position"`
	StopSchedule
}

type LegResponse struct {
	ID              uuid.UUID    `json:"id"`
	Position        int          `json:"position"`
	FromStopID      uuid.UUID    `json:"from_stop_id"`
	ToStopID        uuid.UUID    `json:"to_stop_id"`
	DistanceMeters  int          `json:"distance_meters"`
	DurationSeconds int          `json:"duration_seconds"`
	Provider        string       `json:"provider"`
	CalculatedAt    *time.Time   `json:"calculated_at"`
	Geometry        [][2]float64 `json:"geometry"`
	EncodedPolyline string       `json:"encoded_polyline,omitempty"`
}

type ItineraryResponse struct {
	Trip  TripResponse   `json:"trip"`
	Stops []StopResponse `json:"stops"`
	Legs  []LegResponse  `json:"legs"`
}
