package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/platform/obs"
	"roadtrip-planner/internal/ports"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const pgUniqueViolation = "23505"

// Postgres-backed implementation of the TripStore port.
type PostgresTripStore struct {
	DB *sqlx.DB
}

func NewPostgresTripStore(db *sqlx.DB) *PostgresTripStore {
	return &PostgresTripStore{DB: db}
}

// Tx runs fn inside one database transaction. The transaction is rolled
// back on every path that does not reach Commit.
func (s *PostgresTripStore) Tx(ctx context.Context, fn func(repo ports.TripRepository) error) (err error) {
	defer obs.Time(ctx, "postgres.Tx")(&err)

	if s.DB == nil {
		return errors.New("postgres trip store: DB is nil")
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres trip store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&postgresTripRepository{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres trip store: commit tx: %w", err)
	}
	return nil
}

type postgresTripRepository struct {
	q *sqlx.Tx
}

type tripRow struct {
	ID                      uuid.UUID  `db:"id"`
	Name                    string     `db:"name"`
	Description             string     `db:"description"`
	TimeZone                string     `db:"time_zone"`
	StartAt                 *time.Time `db:"start_at"`
	EndAt                   *time.Time `db:"end_at"`
	DefaultArrivalMinutes   *int       `db:"default_arrival_minutes"`
	DefaultDepartureMinutes *int       `db:"default_departure_minutes"`
}

type stopRow struct {
	ID           uuid.UUID  `db:"id"`
	TripID       uuid.UUID  `db:"trip_id"`
	PlaceID      uuid.UUID  `db:"place_id"`
	PlaceName    string     `db:"place_name"`
	Lon          float64    `db:"lon"`
	Lat          float64    `db:"lat"`
	Position     int        `db:"position"`
	Kind         string     `db:"kind"`
	TimeZone     string     `db:"time_zone"`
	PlannedStart *time.Time `db:"planned_start"`
	PlannedEnd   *time.Time `db:"planned_end"`
	StayNights   *int       `db:"stay_nights"`
	StayMinutes  *int       `db:"stay_minutes"`
	StartLocked  bool       `db:"start_locked"`
	EndLocked    bool       `db:"end_locked"`
}

type legRow struct {
	ID              uuid.UUID  `db:"id"`
	TripID          uuid.UUID  `db:"trip_id"`
	FromStopID      uuid.UUID  `db:"from_stop_id"`
	ToStopID        uuid.UUID  `db:"to_stop_id"`
	Position        int        `db:"position"`
	DistanceMeters  int        `db:"distance_meters"`
	DurationSeconds int        `db:"duration_seconds"`
	Provider        string     `db:"provider"`
	Geometry        []byte     `db:"geometry"`
	CalculatedAt    *time.Time `db:"calculated_at"`
}

const selectStops = `
	SELECT
		s.id, s.trip_id, s.place_id, p.name AS place_name, p.lon, p.lat,
		s.position, s.kind, s.time_zone, s.planned_start, s.planned_end,
		s.stay_nights, s.stay_minutes, s.start_locked, s.end_locked
	FROM trip_stops s
	JOIN places p ON p.id = s.place_id
	`

func (r *postgresTripRepository) GetTrip(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error) {
	var row tripRow
	err := r.q.GetContext(ctx, &row, `
	SELECT id, name, description, time_zone, start_at, end_at,
		default_arrival_minutes, default_departure_minutes
	FROM trips
	WHERE id = $1;
	`, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get trip %s: %w", tripID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get trip %s: query trips table: %w", tripID, err)
	}

	trip := &domain.Trip{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Schedule: domain.ScheduleDefaults{
			TimeZone: row.TimeZone,
			StartAt:  row.StartAt,
			EndAt:    row.EndAt,
		},
	}
	if row.DefaultArrivalMinutes != nil {
		a := domain.TimeOfDayFromMinutes(*row.DefaultArrivalMinutes)
		trip.Schedule.DefaultArrival = &a
	}
	if row.DefaultDepartureMinutes != nil {
		d := domain.TimeOfDayFromMinutes(*row.DefaultDepartureMinutes)
		trip.Schedule.DefaultDeparture = &d
	}
	return trip, nil
}

func (r *postgresTripRepository) UpdateTripSchedule(ctx context.Context, tripID uuid.UUID, defaults domain.ScheduleDefaults) error {
	arrival, departure := timeOfDayColumns(defaults)
	res, err := r.q.ExecContext(ctx, `
	UPDATE trips
	SET time_zone = $2, start_at = $3, end_at = $4,
		default_arrival_minutes = $5, default_departure_minutes = $6
	WHERE id = $1;
	`, tripID, defaults.TimeZone, defaults.StartAt, defaults.EndAt, arrival, departure)
	if err != nil {
		return fmt.Errorf("update trip schedule %s: %w", tripID, err)
	}
	return expectOneRow(res, fmt.Sprintf("update trip schedule %s", tripID))
}

func (r *postgresTripRepository) ListStops(ctx context.Context, tripID uuid.UUID) ([]*domain.Stop, error) {
	rows := make([]stopRow, 0, 16)
	if err := r.q.SelectContext(ctx, &rows, selectStops+`WHERE s.trip_id = $1 ORDER BY s.position;`, tripID); err != nil {
		return nil, fmt.Errorf("list stops of trip %s: query trip_stops table: %w", tripID, err)
	}

	stops := make([]*domain.Stop, 0, len(rows))
	for _, row := range rows {
		stops = append(stops, row.toDomain())
	}
	return stops, nil
}

func (r *postgresTripRepository) GetStop(ctx context.Context, tripID, stopID uuid.UUID) (*domain.Stop, error) {
	var row stopRow
	err := r.q.GetContext(ctx, &row, selectStops+`WHERE s.trip_id = $1 AND s.id = $2;`, tripID, stopID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get stop %s of trip %s: %w", stopID, tripID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get stop %s: query trip_stops table: %w", stopID, err)
	}
	return row.toDomain(), nil
}

func (r *postgresTripRepository) GetPlace(ctx context.Context, placeID uuid.UUID) (*domain.Place, error) {
	var row struct {
		ID   uuid.UUID `db:"id"`
		Name string    `db:"name"`
		Lon  float64   `db:"lon"`
		Lat  float64   `db:"lat"`
	}
	err := r.q.GetContext(ctx, &row, `SELECT id, name, lon, lat FROM places WHERE id = $1;`, placeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get place %s: %w", placeID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get place %s: query places table: %w", placeID, err)
	}
	return &domain.Place{ID: row.ID, Name: row.Name, Coordinates: domain.Coordinates{Lon: row.Lon, Lat: row.Lat}}, nil
}

func (r *postgresTripRepository) InsertStop(ctx context.Context, stop *domain.Stop) error {
	sch := stop.Schedule
	_, err := r.q.ExecContext(ctx, `
	INSERT INTO trip_stops (
		id, trip_id, place_id, position, kind, time_zone,
		planned_start, planned_end, stay_nights, stay_minutes, start_locked, end_locked
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`, stop.ID, stop.TripID, stop.Place.ID, stop.Position, string(sch.Kind), sch.TimeZone,
		sch.PlannedStart, sch.PlannedEnd, sch.Stay.Nights, sch.Stay.Minutes, sch.StartLocked, sch.EndLocked)
	if err != nil {
		return fmt.Errorf("insert stop %s at position %d: %w", stop.ID, stop.Position, classify(err))
	}
	return nil
}

// DeleteStop removes the stop; legs referencing it cascade.
func (r *postgresTripRepository) DeleteStop(ctx context.Context, tripID, stopID uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM trip_stops WHERE trip_id = $1 AND id = $2;`, tripID, stopID)
	if err != nil {
		return fmt.Errorf("delete stop %s: %w", stopID, err)
	}
	return expectOneRow(res, fmt.Sprintf("delete stop %s of trip %s", stopID, tripID))
}

func (r *postgresTripRepository) UpdateStopSchedule(ctx context.Context, tripID, stopID uuid.UUID, sch domain.StopSchedule) error {
	res, err := r.q.ExecContext(ctx, `
	UPDATE trip_stops
	SET kind = $3, time_zone = $4, planned_start = $5, planned_end = $6,
		stay_nights = $7, stay_minutes = $8, start_locked = $9, end_locked = $10
	WHERE trip_id = $1 AND id = $2;
	`, tripID, stopID, string(sch.Kind), sch.TimeZone, sch.PlannedStart, sch.PlannedEnd,
		sch.Stay.Nights, sch.Stay.Minutes, sch.StartLocked, sch.EndLocked)
	if err != nil {
		return fmt.Errorf("update stop schedule %s: %w", stopID, err)
	}
	return expectOneRow(res, fmt.Sprintf("update stop schedule %s of trip %s", stopID, tripID))
}

func (r *postgresTripRepository) UpdateStopPositions(ctx context.Context, tripID uuid.UUID, updates []domain.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	stmt, err := r.q.PreparexContext(ctx, `UPDATE trip_stops SET position = $3 WHERE trip_id = $1 AND id = $2;`)
	if err != nil {
		return fmt.Errorf("update stop positions: db prepare: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		res, err := stmt.ExecContext(ctx, tripID, u.StopID, u.Position)
		if err != nil {
			return fmt.Errorf("update stop %s to position %d: %w", u.StopID, u.Position, classify(err))
		}
		if err := expectOneRow(res, fmt.Sprintf("update stop position %s", u.StopID)); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresTripRepository) ListLegs(ctx context.Context, tripID uuid.UUID) ([]*domain.Leg, error) {
	rows := make([]legRow, 0, 16)
	err := r.q.SelectContext(ctx, &rows, `
	SELECT id, trip_id, from_stop_id, to_stop_id, position, distance_meters,
		duration_seconds, provider, geometry, calculated_at
	FROM trip_legs
	WHERE trip_id = $1
	ORDER BY position;
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list legs of trip %s: query trip_legs table: %w", tripID, err)
	}

	legs := make([]*domain.Leg, 0, len(rows))
	for _, row := range rows {
		var pairs [][2]float64
		if len(row.Geometry) > 0 {
			if err := json.Unmarshal(row.Geometry, &pairs); err != nil {
				return nil, fmt.Errorf("list legs: decode geometry of leg %s: %w", row.ID, err)
			}
		}
		legs = append(legs, &domain.Leg{
			ID:              row.ID,
			TripID:          row.TripID,
			FromStopID:      row.FromStopID,
			ToStopID:        row.ToStopID,
			Position:        row.Position,
			DistanceMeters:  row.DistanceMeters,
			DurationSeconds: row.DurationSeconds,
			Provider:        row.Provider,
			Geometry:        domain.CoordinatesFromPairs(pairs),
			CalculatedAt:    row.CalculatedAt,
		})
	}
	return legs, nil
}

func (r *postgresTripRepository) ReplaceLegs(ctx context.Context, tripID uuid.UUID, legs []*domain.Leg) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM trip_legs WHERE trip_id = $1;`, tripID); err != nil {
		return fmt.Errorf("replace legs of trip %s: delete: %w", tripID, err)
	}
	if len(legs) == 0 {
		return nil
	}

	stmt, err := r.q.PreparexContext(ctx, `
	INSERT INTO trip_legs (
		id, trip_id, from_stop_id, to_stop_id, position, distance_meters,
		duration_seconds, provider, geometry, calculated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`)
	if err != nil {
		return fmt.Errorf("replace legs: db prepare: %w", err)
	}
	defer stmt.Close()

	for _, l := range legs {
		geometry, err := json.Marshal(domain.PairsFromCoordinates(l.Geometry))
		if err != nil {
			return fmt.Errorf("replace legs: encode geometry of leg %s: %w", l.ID, err)
		}
		_, err = stmt.ExecContext(ctx, l.ID, tripID, l.FromStopID, l.ToStopID, l.Position,
			l.DistanceMeters, l.DurationSeconds, l.Provider, geometry, l.CalculatedAt)
		if err != nil {
			return fmt.Errorf("replace legs: insert leg %s: %w", l.ID, err)
		}
	}
	return nil
}

func (r *postgresTripRepository) UpdateLegMetrics(ctx context.Context, tripID, legID uuid.UUID, distanceMeters, durationSeconds int) error {
	res, err := r.q.ExecContext(ctx, `
	UPDATE trip_legs
	SET distance_meters = $3, duration_seconds = $4
	WHERE trip_id = $1 AND id = $2;
	`, tripID, legID, distanceMeters, durationSeconds)
	if err != nil {
		return fmt.Errorf("update leg metrics %s: %w", legID, err)
	}
	return expectOneRow(res, fmt.Sprintf("update leg metrics %s of trip %s", legID, tripID))
}

func (r *postgresTripRepository) UpdateLegRoute(ctx context.Context, tripID, legID uuid.UUID, route domain.LegRoute) error {
	geometry, err := json.Marshal(domain.PairsFromCoordinates(route.Geometry))
	if err != nil {
		return fmt.Errorf("update leg route %s: encode geometry: %w", legID, err)
	}
	res, err := r.q.ExecContext(ctx, `
	UPDATE trip_legs
	SET distance_meters = $3, duration_seconds = $4, provider = $5, geometry = $6, calculated_at = $7
	WHERE trip_id = $1 AND id = $2;
	`, tripID, legID, route.DistanceMeters, route.DurationSeconds, route.Provider, geometry, route.CalculatedAt)
	if err != nil {
		return fmt.Errorf("update leg route %s: %w", legID, err)
	}
	return expectOneRow(res, fmt.Sprintf("update leg route %s of trip %s", legID, tripID))
}

func (row stopRow) toDomain() *domain.Stop {
	return &domain.Stop{
		ID:     row.ID,
		TripID: row.TripID,
		Place: domain.Place{
			ID:          row.PlaceID,
			Name:        row.PlaceName,
			Coordinates: domain.Coordinates{Lon: row.Lon, Lat: row.Lat},
		},
		Position: row.Position,
		Schedule: domain.StopSchedule{
			Kind:         domain.StopKind(row.Kind),
			TimeZone:     row.TimeZone,
			PlannedStart: row.PlannedStart,
			PlannedEnd:   row.PlannedEnd,
			Stay:         domain.StayDuration{Nights: row.StayNights, Minutes: row.StayMinutes},
			StartLocked:  row.StartLocked,
			EndLocked:    row.EndLocked,
		},
	}
}

func timeOfDayColumns(d domain.ScheduleDefaults) (arrival, departure *int) {
	if d.DefaultArrival != nil {
		m := d.DefaultArrival.Minutes()
		arrival = &m
	}
	if d.DefaultDeparture != nil {
		m := d.DefaultDeparture.Minutes()
		departure = &m
	}
	return arrival, departure
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// classify maps the unique (trip, position) violation onto the domain error.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrPositionConflict)
	}
	return err
}
