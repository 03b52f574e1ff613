package services

import (
	"context"
	"fmt"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/ports"

	"github.com/google/uuid"
)

// writePositions moves stops to their final positions in two phases.
//
// The store checks (trip, position) uniqueness after every row, so a
// permutation written in one pass can collide with a position another stop
// still holds. Phase one parks every participant on a distinct negative
// index -(i+1); phase two writes the final non-negative indices. Positions
// at rest are never negative, so neither phase can collide.
func writePositions(ctx context.Context, repo ports.TripRepository, tripID uuid.UUID, updates []domain.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	parked := make([]domain.PositionUpdate, 0, len(updates))
	for i, u := range updates {
		parked = append(parked, domain.PositionUpdate{StopID: u.StopID, Position: -(i + 1)})
	}

	if err := repo.UpdateStopPositions(ctx, tripID, parked); err != nil {
		return fmt.Errorf("write positions: park at temporary indices: %w", err)
	}
	if err := repo.UpdateStopPositions(ctx, tripID, updates); err != nil {
		return fmt.Errorf("write positions: assign final indices: %w", err)
	}
	return nil
}

// changedPositions keeps only the updates that move a stop.
func changedPositions(stops []*domain.Stop, updates []domain.PositionUpdate) []domain.PositionUpdate {
	current := make(map[uuid.UUID]int, len(stops))
	for _, s := range stops {
		current[s.ID] = s.Position
	}
	out := make([]domain.PositionUpdate, 0, len(updates))
	for _, u := range updates {
		if p, ok := current[u.StopID]; ok && p == u.Position {
			continue
		}
		out = append(out, u)
	}
	return out
}
