package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"haulmatch/internal/domain"
	"haulmatch/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, company_id, origin, destination, trip_date, time_window, compensation_sek, vehicle_info, status, created_at`

// Create persists a new trip and assigns its ID.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (company_id, origin, destination, trip_date, time_window, compensation_sek, vehicle_info, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	return r.q.QueryRowContext(ctx, query,
		trip.CompanyID,
		trip.Origin,
		trip.Destination,
		nullString(trip.Date),
		nullString(trip.TimeWindow),
		trip.CompensationSEK,
		nullString(trip.VehicleInfo),
		trip.Status,
		trip.CreatedAt,
	).Scan(&trip.ID)
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// ListByStatus retrieves all trips with the given status.
func (r *TripRepository) ListByStatus(ctx context.Context, status domain.TripStatus) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE status = $1`
	return r.list(ctx, query, status)
}

// ListByCompany retrieves a company's trips, newest first.
func (r *TripRepository) ListByCompany(ctx context.Context, companyID int64) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE company_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, companyID)
}

// ListByDriverReservation retrieves the trips a driver holds or held a
// reservation on, newest first. Reservations are deleted on unclaim and
// cancel, so the join yields active claims plus completed history.
func (r *TripRepository) ListByDriverReservation(ctx context.Context, driverID int64) ([]*domain.Trip, error) {
	query := `
		SELECT t.id, t.company_id, t.origin, t.destination, t.trip_date, t.time_window, t.compensation_sek, t.vehicle_info, t.status, t.created_at
		FROM trips t
		JOIN reservations r ON r.trip_id = t.id
		WHERE r.driver_id = $1
		ORDER BY t.created_at DESC
	`
	return r.list(ctx, query, driverID)
}

// UpdateStatus transitions a trip conditional on its current status.
func (r *TripRepository) UpdateStatus(ctx context.Context, id int64, to domain.TripStatus, from ...domain.TripStatus) error {
	query := `UPDATE trips SET status = $1 WHERE id = $2 AND status = ANY($3)`

	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	result, err := r.q.ExecContext(ctx, query, to, id, pq.Array(states))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrStatusConflict
	}

	return nil
}

func (r *TripRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var date, timeWindow, vehicleInfo sql.NullString

	err := row.Scan(
		&trip.ID,
		&trip.CompanyID,
		&trip.Origin,
		&trip.Destination,
		&date,
		&timeWindow,
		&trip.CompensationSEK,
		&vehicleInfo,
		&trip.Status,
		&trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	trip.Date = date.String
	trip.TimeWindow = timeWindow.String
	trip.VehicleInfo = vehicleInfo.String

	return &trip, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
