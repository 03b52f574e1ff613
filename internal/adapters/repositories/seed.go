package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"roadtrip-planner/internal/domain"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PlaceSeed struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Lon  float64   `json:"lon"`
	Lat  float64   `json:"lat"`
}

type StopSeed struct {
	ID           uuid.UUID  `json:"id"`
	PlaceID      uuid.UUID  `json:"place_id"`
	Position     int        `json:"position"`
	Kind         string     `json:"kind"`
	TimeZone     string     `json:"time_zone"`
	PlannedStart *time.Time `json:"planned_start"`
	PlannedEnd   *time.Time `json:"planned_end"`
	StayNights   *int       `json:"stay_nights"`
	StayMinutes  *int       `json:"stay_minutes"`
	StartLocked  bool       `json:"start_locked"`
	EndLocked    bool       `json:"end_locked"`
}

type TripSeed struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	TimeZone         string     `json:"time_zone"`
	StartAt          *time.Time `json:"start_at"`
	EndAt            *time.Time `json:"end_at"`
	DefaultArrival   string     `json:"default_arrival"`
	DefaultDeparture string     `json:"default_departure"`
	Stops            []StopSeed `json:"stops"`
}

// Seed is the demo data set shared by the Postgres and in-memory stores.
type Seed struct {
	Places []PlaceSeed `json:"places"`
	Trips  []TripSeed  `json:"trips"`
}

// LoadSeed reads and validates a seed file.
func LoadSeed(jsonPath string) (*Seed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load seed: read %q: %w", jsonPath, err)
	}

	var seed Seed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return nil, fmt.Errorf("load seed: parse json: %w", err)
	}

	places := make(map[uuid.UUID]struct{}, len(seed.Places))
	for i, p := range seed.Places {
		if p.ID == uuid.Nil {
			return nil, fmt.Errorf("load seed: place at index %d: missing id", i+1)
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("load seed: place at index %d: name cannot be empty", i+1)
		}
		places[p.ID] = struct{}{}
	}

	for i, t := range seed.Trips {
		if t.ID == uuid.Nil {
			return nil, fmt.Errorf("load seed: trip at index %d: missing id", i+1)
		}
		if _, err := t.defaults(); err != nil {
			return nil, fmt.Errorf("load seed: trip %s: %w", t.ID, err)
		}
		positions := make(map[int]struct{}, len(t.Stops))
		for j, st := range t.Stops {
			if _, ok := places[st.PlaceID]; !ok {
				return nil, fmt.Errorf("load seed: trip %s stop at index %d: unknown place %s", t.ID, j+1, st.PlaceID)
			}
			if _, dup := positions[st.Position]; dup {
				return nil, fmt.Errorf("load seed: trip %s: duplicate position %d", t.ID, st.Position)
			}
			positions[st.Position] = struct{}{}
			if _, err := st.toStop(t.ID); err != nil {
				return nil, fmt.Errorf("load seed: trip %s stop at index %d: %w", t.ID, j+1, err)
			}
		}
	}

	return &seed, nil
}

func (t TripSeed) defaults() (domain.ScheduleDefaults, error) {
	d := domain.ScheduleDefaults{
		TimeZone: t.TimeZone,
		StartAt:  t.StartAt,
		EndAt:    t.EndAt,
	}
	if t.DefaultArrival != "" {
		a, err := domain.ParseTimeOfDay(t.DefaultArrival)
		if err != nil {
			return d, err
		}
		d.DefaultArrival = &a
	}
	if t.DefaultDeparture != "" {
		dep, err := domain.ParseTimeOfDay(t.DefaultDeparture)
		if err != nil {
			return d, err
		}
		d.DefaultDeparture = &dep
	}
	return d, d.Validate()
}

func (t TripSeed) toTrip() (domain.Trip, error) {
	d, err := t.defaults()
	if err != nil {
		return domain.Trip{}, err
	}
	return domain.Trip{ID: t.ID, Name: t.Name, Description: t.Description, Schedule: d}, nil
}

func (s StopSeed) toStop(tripID uuid.UUID) (*domain.Stop, error) {
	kind, err := domain.ParseStopKind(s.Kind)
	if err != nil {
		return nil, err
	}
	id := s.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	stop := &domain.Stop{
		ID:       id,
		TripID:   tripID,
		Place:    domain.Place{ID: s.PlaceID},
		Position: s.Position,
		Schedule: domain.StopSchedule{
			Kind:         kind,
			TimeZone:     s.TimeZone,
			PlannedStart: s.PlannedStart,
			PlannedEnd:   s.PlannedEnd,
			Stay:         domain.StayDuration{Nights: s.StayNights, Minutes: s.StayMinutes},
			StartLocked:  s.StartLocked,
			EndLocked:    s.EndLocked,
		},
	}
	return stop, stop.Schedule.Validate()
}

// Seed loads the seed into the in-memory store.
func (s *MemoryTripStore) Seed(seed *Seed) error {
	for _, p := range seed.Places {
		s.AddPlace(domain.Place{ID: p.ID, Name: p.Name, Coordinates: domain.Coordinates{Lon: p.Lon, Lat: p.Lat}})
	}
	for _, t := range seed.Trips {
		trip, err := t.toTrip()
		if err != nil {
			return fmt.Errorf("seed memory store: trip %s: %w", t.ID, err)
		}
		s.AddTrip(trip)

		s.mu.Lock()
		for _, st := range t.Stops {
			stop, err := st.toStop(t.ID)
			if err != nil {
				s.mu.Unlock()
				return fmt.Errorf("seed memory store: trip %s: %w", t.ID, err)
			}
			s.stops[stop.ID] = cloneStop(*stop)
		}
		s.mu.Unlock()
	}
	return nil
}
