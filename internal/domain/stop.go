package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StopKind decides how a stop's stay is measured.
type StopKind string

const (
	StopKindOvernight StopKind = "overnight"
	StopKindWaypoint  StopKind = "waypoint"
)

const (
	defaultStayNights  = 1
	defaultStayMinutes = 60
)

// ParseStopKind accepts the two known kinds; the empty string means waypoint.
func ParseStopKind(s string) (StopKind, error) {
	switch StopKind(s) {
	case StopKindOvernight:
		return StopKindOvernight, nil
	case StopKindWaypoint, "":
		return StopKindWaypoint, nil
	}
	return "", fmt.Errorf("unknown stop kind %q: %w", s, ErrInvalidInput)
}

// StayDuration is a tagged length of stay: whole nights for overnight
// stops, minutes for waypoints. Only the field matching the kind is set.
type StayDuration struct {
	Nights  *int
	Minutes *int
}

// Length returns the stay as a duration for the given kind, using the
// kind's default when the matching field is unset.
func (s StayDuration) Length(kind StopKind) time.Duration {
	if kind == StopKindOvernight {
		n := defaultStayNights
		if s.Nights != nil {
			n = *s.Nights
		}
		return time.Duration(n) * 24 * time.Hour
	}
	m := defaultStayMinutes
	if s.Minutes != nil {
		m = *s.Minutes
	}
	return time.Duration(m) * time.Minute
}

// StopSchedule holds every schedule field of a stop. Updates replace it wholesale.
type StopSchedule struct {
	Kind         StopKind
	TimeZone     string
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	Stay         StayDuration
	StartLocked  bool
	EndLocked    bool
}

// Validate enforces end >= start and that the stay field matches the kind.
func (s StopSchedule) Validate() error {
	if _, err := ParseStopKind(string(s.Kind)); err != nil {
		return err
	}
	if _, err := LoadLocation(s.TimeZone); err != nil {
		return err
	}
	if s.PlannedStart != nil && s.PlannedEnd != nil && s.PlannedEnd.Before(*s.PlannedStart) {
		return fmt.Errorf("planned end before planned start: %w", ErrInvalidInput)
	}

	switch s.Kind {
	case StopKindOvernight:
		if s.Stay.Minutes != nil {
			return fmt.Errorf("overnight stop cannot carry stay minutes: %w", ErrInvalidInput)
		}
		if s.Stay.Nights != nil && *s.Stay.Nights < 0 {
			return fmt.Errorf("stay nights must not be negative: %w", ErrInvalidInput)
		}
	default:
		if s.Stay.Nights != nil {
			return fmt.Errorf("waypoint cannot carry stay nights: %w", ErrInvalidInput)
		}
		if s.Stay.Minutes != nil && *s.Stay.Minutes < 0 {
			return fmt.Errorf("stay minutes must not be negative: %w", ErrInvalidInput)
		}
	}
	return nil
}

// Stop is a place visited within one trip.
// Position defines the drive order and is unique within the trip at rest.
type Stop struct {
	ID       uuid.UUID
	TripID   uuid.UUID
	Place    Place
	Position int
	Schedule StopSchedule
}

// Timed reports whether the stop takes part in the timeline ordering.
func (s *Stop) Timed() bool { return s.Schedule.PlannedStart != nil }

// PositionUpdate moves one stop to a new position index.
type PositionUpdate struct {
	StopID   uuid.UUID
	Position int
}
