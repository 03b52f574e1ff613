package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a wall-clock time without a date, stored as minutes after midnight.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, ErrInvalidInput)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Minutes returns the number of minutes after midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// TimeOfDayFromMinutes is the inverse of Minutes.
func TimeOfDayFromMinutes(m int) TimeOfDay { return TimeOfDay{Hour: m / 60, Minute: m % 60} }

// ScheduleDefaults are the trip-level schedule settings.
// They never cascade into stops on their own.
type ScheduleDefaults struct {
	TimeZone         string
	StartAt          *time.Time
	EndAt            *time.Time
	DefaultArrival   *TimeOfDay
	DefaultDeparture *TimeOfDay
}

// Validate checks the time zone and that EndAt is not before StartAt.
func (s ScheduleDefaults) Validate() error {
	if _, err := LoadLocation(s.TimeZone); err != nil {
		return err
	}
	if s.StartAt != nil && s.EndAt != nil && s.EndAt.Before(*s.StartAt) {
		return fmt.Errorf("trip end before trip start: %w", ErrInvalidInput)
	}
	return nil
}

// Location resolves the trip time zone, falling back to UTC.
func (s ScheduleDefaults) Location() *time.Location {
	loc, err := LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// A Trip (route) owns an ordered collection of stops and the legs between them.
type Trip struct {
	ID          uuid.UUID
	Name        string
	Description string
	Schedule    ScheduleDefaults
}

// Place is the location a stop refers to. It is opaque to scheduling.
type Place struct {
	ID          uuid.UUID
	Name        string
	Coordinates Coordinates
}

// LoadLocation resolves an IANA zone name; the empty string means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, ErrInvalidInput)
	}
	return loc, nil
}
