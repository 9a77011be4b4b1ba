package postgres

import (
	"context"
	"database/sql"
	"errors"

	"haulmatch/internal/domain"
	"haulmatch/internal/repository"
)

// ReservationRepository is a PostgreSQL implementation of
// repository.ReservationRepository. The reservations table carries a
// UNIQUE constraint on trip_id; that constraint, not any in-process
// check, is what guarantees at most one claim per trip.
type ReservationRepository struct {
	q Querier
}

// NewReservationRepository creates a new PostgreSQL reservation repository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{q: db}
}

// NewReservationRepositoryWithTx creates a reservation repository using a transaction.
func NewReservationRepositoryWithTx(tx *sql.Tx) *ReservationRepository {
	return &ReservationRepository{q: tx}
}

// Create persists a new reservation. Returns repository.ErrDuplicate when
// the trip already has one.
func (r *ReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	query := `
		INSERT INTO reservations (id, trip_id, driver_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		reservation.ID,
		reservation.TripID,
		reservation.DriverID,
		reservation.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByTripID retrieves the reservation for a trip.
func (r *ReservationRepository) GetByTripID(ctx context.Context, tripID int64) (*domain.Reservation, error) {
	query := `SELECT id, trip_id, driver_id, created_at FROM reservations WHERE trip_id = $1`

	var reservation domain.Reservation
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(
		&reservation.ID,
		&reservation.TripID,
		&reservation.DriverID,
		&reservation.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &reservation, nil
}

// DeleteByTripID removes the reservation for a trip, if any.
func (r *ReservationRepository) DeleteByTripID(ctx context.Context, tripID int64) error {
	query := `DELETE FROM reservations WHERE trip_id = $1`
	_, err := r.q.ExecContext(ctx, query, tripID)
	return err
}

// DeleteForDriver removes the reservation for a trip only if the given
// driver holds it. The driver predicate makes the delete conditional at
// the store, so an unclaim racing a reclaim cannot remove the new
// holder's reservation.
func (r *ReservationRepository) DeleteForDriver(ctx context.Context, tripID, driverID int64) error {
	query := `DELETE FROM reservations WHERE trip_id = $1 AND driver_id = $2`

	result, err := r.q.ExecContext(ctx, query, tripID, driverID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure ReservationRepository implements repository.ReservationRepository.
var _ repository.ReservationRepository = (*ReservationRepository)(nil)
