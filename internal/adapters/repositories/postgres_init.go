package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres database schema.
//
// trip_stops(trip_id, position) is unique and NOT deferrable: it is checked
// after every UPDATE row, which is why position permutations go through the
// two-phase negative-index write in the services layer.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createPlacesQuery := `
	CREATE TABLE IF NOT EXISTS places (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`

	createTripsQuery := `
	CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		time_zone TEXT NOT NULL DEFAULT '',
		start_at TIMESTAMPTZ,
		end_at TIMESTAMPTZ,
		default_arrival_minutes INTEGER,
		default_departure_minutes INTEGER
	);
	`

	createStopsQuery := `
	CREATE TABLE IF NOT EXISTS trip_stops (
		id UUID PRIMARY KEY,
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		place_id UUID NOT NULL REFERENCES places(id),
		position INTEGER NOT NULL,
		kind TEXT NOT NULL DEFAULT 'waypoint',
		time_zone TEXT NOT NULL DEFAULT '',
		planned_start TIMESTAMPTZ,
		planned_end TIMESTAMPTZ,
		stay_nights INTEGER,
		stay_minutes INTEGER,
		start_locked BOOLEAN NOT NULL DEFAULT FALSE,
		end_locked BOOLEAN NOT NULL DEFAULT FALSE,
		CONSTRAINT trip_stops_trip_position_key UNIQUE (trip_id, position),
		CONSTRAINT trip_stops_end_after_start CHECK (
			planned_start IS NULL OR planned_end IS NULL OR planned_end >= planned_start
		)
	);
	`

	createLegsQuery := `
	CREATE TABLE IF NOT EXISTS trip_legs (
		id UUID PRIMARY KEY,
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		from_stop_id UUID NOT NULL REFERENCES trip_stops(id) ON DELETE CASCADE,
		to_stop_id UUID NOT NULL REFERENCES trip_stops(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		distance_meters INTEGER NOT NULL DEFAULT 0,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		provider TEXT NOT NULL,
		geometry JSONB NOT NULL DEFAULT '[]'::jsonb,
		calculated_at TIMESTAMPTZ
	);
	`

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
		cache_key TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_trip_legs_trip_position
	ON trip_legs(trip_id, position);
	`

	statements := []string{
		createPlacesQuery,
		createTripsQuery,
		createStopsQuery,
		createLegsQuery,
		createRouteCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the database with places, trips and stops from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	seed, err := LoadSeed(jsonPath)
	if err != nil {
		return fmt.Errorf("seed trips: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed trips: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, p := range seed.Places {
		_, err := tx.Exec(`
		INSERT INTO places (id, name, lon, lat)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, lon = EXCLUDED.lon, lat = EXCLUDED.lat;
		`, p.ID, p.Name, p.Lon, p.Lat)
		if err != nil {
			return fmt.Errorf("seed trips: insert place id=%s: %w", p.ID, err)
		}
	}

	for _, t := range seed.Trips {
		trip, err := t.toTrip()
		if err != nil {
			return fmt.Errorf("seed trips: trip id=%s: %w", t.ID, err)
		}
		arrival, departure := timeOfDayColumns(trip.Schedule)

		_, err = tx.Exec(`
		INSERT INTO trips (id, name, description, time_zone, start_at, end_at, default_arrival_minutes, default_departure_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING;
		`, trip.ID, trip.Name, trip.Description, trip.Schedule.TimeZone,
			trip.Schedule.StartAt, trip.Schedule.EndAt, arrival, departure)
		if err != nil {
			return fmt.Errorf("seed trips: insert trip id=%s: %w", t.ID, err)
		}

		for _, st := range t.Stops {
			stop, err := st.toStop(t.ID)
			if err != nil {
				return fmt.Errorf("seed trips: trip id=%s: %w", t.ID, err)
			}
			_, err = tx.Exec(`
			INSERT INTO trip_stops (
				id, trip_id, place_id, position, kind, time_zone,
				planned_start, planned_end, stay_nights, stay_minutes, start_locked, end_locked
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO NOTHING;
			`, stop.ID, stop.TripID, stop.Place.ID, stop.Position, string(stop.Schedule.Kind),
				stop.Schedule.TimeZone, stop.Schedule.PlannedStart, stop.Schedule.PlannedEnd,
				stop.Schedule.Stay.Nights, stop.Schedule.Stay.Minutes,
				stop.Schedule.StartLocked, stop.Schedule.EndLocked)
			if err != nil {
				return fmt.Errorf("seed trips: insert stop id=%s: %w", stop.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed trips: commit tx: %w", err)
	}

	return nil
}
