package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProviderPending tags skeleton legs that have not been routed yet.
const ProviderPending = "pending"

// Leg is the routed segment between two consecutive stops.
// Position equals the index of the from-stop in the drive sequence.
type Leg struct {
	ID              uuid.UUID
	TripID          uuid.UUID
	FromStopID      uuid.UUID
	ToStopID        uuid.UUID
	Position        int
	DistanceMeters  int
	DurationSeconds int
	Provider        string
	Geometry        []Coordinates
	CalculatedAt    *time.Time
}

// LegRoute is the routing data written onto an existing leg.
type LegRoute struct {
	DistanceMeters  int
	DurationSeconds int
	Provider        string
	Geometry        []Coordinates
	CalculatedAt    time.Time
}

// SkeletonLegs builds one unrouted leg per consecutive pair of the
// position-ordered stops.
func SkeletonLegs(tripID uuid.UUID, stops []*Stop) []*Leg {
	if len(stops) < 2 {
		return []*Leg{}
	}

	legs := make([]*Leg, 0, len(stops)-1)
	for i := 0; i+1 < len(stops); i++ {
		legs = append(legs, &Leg{
			ID:         uuid.New(),
			TripID:     tripID,
			FromStopID: stops[i].ID,
			ToStopID:   stops[i+1].ID,
			Position:   i,
			Provider:   ProviderPending,
		})
	}
	return legs
}

// LegsMatchStops reports whether legs are exactly the consecutive pairs of stops.
func LegsMatchStops(legs []*Leg, stops []*Stop) bool {
	want := 0
	if len(stops) > 1 {
		want = len(stops) - 1
	}
	if len(legs) != want {
		return false
	}
	for i, l := range legs {
		if l.Position != i || l.FromStopID != stops[i].ID || l.ToStopID != stops[i+1].ID {
			return false
		}
	}
	return true
}
