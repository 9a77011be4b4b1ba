package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"haulmatch/internal/domain"
	"haulmatch/internal/redis"
	"haulmatch/internal/repository"
)

// TripService owns the trip state machine, its transition guards and the
// reservation claim protocol. Guards are evaluated in a fixed order
// (existence, then role, then ownership, then state) so error responses
// are deterministic. All mutual exclusion between concurrent transitions
// is delegated to the store: the reservations uniqueness constraint plus
// conditional status updates, committed as one transaction.
type TripService struct {
	txm                repository.TxManager
	tripRepo           repository.TripRepository
	reservationRepo    repository.ReservationRepository
	cache              redis.TripCacheInterface
	notifications      *NotificationService
	discloseToClaimant bool
}

// NewTripService creates a new TripService. cache may be nil.
func NewTripService(
	txm repository.TxManager,
	tripRepo repository.TripRepository,
	reservationRepo repository.ReservationRepository,
	cache redis.TripCacheInterface,
	notifications *NotificationService,
	discloseToClaimant bool,
) *TripService {
	return &TripService{
		txm:                txm,
		tripRepo:           tripRepo,
		reservationRepo:    reservationRepo,
		cache:              cache,
		notifications:      notifications,
		discloseToClaimant: discloseToClaimant,
	}
}

// CreateTripRequest contains the parameters for publishing a trip.
type CreateTripRequest struct {
	Origin          string
	Destination     string
	Date            string
	TimeWindow      string
	CompensationSEK int64
	VehicleInfo     string
}

// CreateTrip publishes a new OPEN trip owned by the calling company.
func (s *TripService) CreateTrip(ctx context.Context, actor domain.Actor, req CreateTripRequest) (*domain.Trip, error) {
	if actor.Role != domain.RoleCompany {
		return nil, ErrCompanyRoleRequired
	}

	if req.Origin == "" {
		return nil, ErrInvalidOrigin
	}
	if req.Destination == "" {
		return nil, ErrInvalidDestination
	}
	if req.CompensationSEK < 0 {
		return nil, ErrInvalidCompensation
	}

	trip := &domain.Trip{
		CompanyID:       actor.UserID,
		Origin:          req.Origin,
		Destination:     req.Destination,
		Date:            req.Date,
		TimeWindow:      req.TimeWindow,
		CompensationSEK: req.CompensationSEK,
		VehicleInfo:     req.VehicleInfo,
		Status:          domain.TripStatusOpen,
		CreatedAt:       time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	s.invalidateOpenTrips(ctx)

	return trip, nil
}

// ClaimResult contains the outcome of a successful claim.
type ClaimResult struct {
	Reservation *domain.Reservation
	Trip        *domain.Trip
}

// ClaimTrip reserves an OPEN trip for the calling driver. Concurrent
// claims on the same trip race; exactly one wins. The status read below
// is only a fast-path short-circuit — exclusivity is enforced by the
// reservation insert and the conditional status flip committing together.
// A lost race surfaces as ErrTripAlreadyReserved and is never retried
// here; retry is the caller's decision.
func (s *TripService) ClaimTrip(ctx context.Context, actor domain.Actor, tripID int64) (*ClaimResult, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if actor.Role != domain.RoleDriver {
		return nil, ErrDriverRoleRequired
	}

	switch trip.Status {
	case domain.TripStatusOpen:
		// proceed to the atomic write
	case domain.TripStatusReserved:
		return nil, ErrTripAlreadyReserved
	default:
		return nil, ErrTripNotOpen
	}

	reservation := &domain.Reservation{
		ID:        uuid.New().String(),
		TripID:    trip.ID,
		DriverID:  actor.UserID,
		CreatedAt: time.Now(),
	}

	err = s.txm.WithinTx(ctx, func(repos repository.TxRepos) error {
		if err := repos.Reservations.Create(ctx, reservation); err != nil {
			return err
		}
		return repos.Trips.UpdateStatus(ctx, trip.ID, domain.TripStatusReserved, domain.TripStatusOpen)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrTripAlreadyReserved
		}
		if errors.Is(err, repository.ErrStatusConflict) {
			// The trip left OPEN without gaining a reservation, i.e. a
			// concurrent cancel won.
			return nil, ErrTripNotOpen
		}
		return nil, err
	}

	trip.Status = domain.TripStatusReserved
	s.invalidateOpenTrips(ctx)

	if s.notifications != nil {
		_ = s.notifications.NotifyTripClaimed(ctx, trip, reservation.DriverID)
	}

	return &ClaimResult{Reservation: reservation, Trip: trip}, nil
}

// UnclaimTrip releases the calling driver's reservation, returning the
// trip to OPEN.
func (s *TripService) UnclaimTrip(ctx context.Context, actor domain.Actor, tripID int64) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if actor.Role != domain.RoleDriver {
		return nil, ErrDriverRoleRequired
	}

	reservation, err := s.reservationRepo.GetByTripID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotReserved
		}
		return nil, err
	}

	if reservation.DriverID != actor.UserID {
		return nil, ErrNotReservationHolder
	}

	if trip.Status != domain.TripStatusReserved {
		return nil, ErrTripNotReserved
	}

	// The delete is conditional on the holder so the guard reads above
	// stay advisory: if the reservation changed hands between the read
	// and this write, the delete matches nothing and the transaction
	// rolls back instead of revoking the new holder's claim.
	err = s.txm.WithinTx(ctx, func(repos repository.TxRepos) error {
		if err := repos.Reservations.DeleteForDriver(ctx, tripID, actor.UserID); err != nil {
			return err
		}
		return repos.Trips.UpdateStatus(ctx, tripID, domain.TripStatusOpen, domain.TripStatusReserved)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrTripNotReserved
		}
		return nil, err
	}

	trip.Status = domain.TripStatusOpen
	s.invalidateOpenTrips(ctx)

	if s.notifications != nil {
		_ = s.notifications.NotifyTripUnclaimed(ctx, trip)
	}

	return trip, nil
}

// CompleteTrip marks a RESERVED trip as COMPLETED. The reservation row is
// kept as history.
func (s *TripService) CompleteTrip(ctx context.Context, actor domain.Actor, tripID int64) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if actor.Role != domain.RoleCompany {
		return nil, ErrCompanyRoleRequired
	}

	if trip.CompanyID != actor.UserID {
		return nil, ErrNotTripOwner
	}

	if trip.Status != domain.TripStatusReserved {
		return nil, ErrTripNotReserved
	}

	if err := s.tripRepo.UpdateStatus(ctx, tripID, domain.TripStatusCompleted, domain.TripStatusReserved); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrTripNotReserved
		}
		return nil, err
	}

	trip.Status = domain.TripStatusCompleted

	if s.notifications != nil {
		if reservation, err := s.reservationRepo.GetByTripID(ctx, tripID); err == nil {
			_ = s.notifications.NotifyTripCompleted(ctx, trip, reservation.DriverID)
		}
	}

	return trip, nil
}

// CancelTrip cancels an OPEN or RESERVED trip, deleting any active
// reservation in the same transaction.
func (s *TripService) CancelTrip(ctx context.Context, actor domain.Actor, tripID int64) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if actor.Role != domain.RoleCompany {
		return nil, ErrCompanyRoleRequired
	}

	if trip.CompanyID != actor.UserID {
		return nil, ErrNotTripOwner
	}

	if trip.Status.Terminal() {
		return nil, ErrTripNotCancellable
	}

	// Notify the holder, if any, before the reservation row disappears.
	var holderID int64
	if reservation, err := s.reservationRepo.GetByTripID(ctx, tripID); err == nil {
		holderID = reservation.DriverID
	}

	err = s.txm.WithinTx(ctx, func(repos repository.TxRepos) error {
		if err := repos.Reservations.DeleteByTripID(ctx, tripID); err != nil {
			return err
		}
		return repos.Trips.UpdateStatus(ctx, tripID, domain.TripStatusCancelled,
			domain.TripStatusOpen, domain.TripStatusReserved)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrTripNotCancellable
		}
		return nil, err
	}

	trip.Status = domain.TripStatusCancelled
	s.invalidateOpenTrips(ctx)

	if s.notifications != nil && holderID != 0 {
		_ = s.notifications.NotifyTripCancelled(ctx, trip, holderID)
	}

	return trip, nil
}

// TripDetail is a trip together with its reserving driver's identity,
// when the caller is allowed to see it.
type TripDetail struct {
	Trip *domain.Trip

	// ReservedBy is non-nil only when the disclosure guard admits the
	// caller.
	ReservedBy *domain.Reservation
}

// GetTripDetail retrieves a trip. The reserving driver's identity is
// included only while the trip is RESERVED, and only for the owning
// company — or, when the claimant policy is enabled, for the driver
// holding the reservation. Anonymous callers always get the redacted form.
func (s *TripService) GetTripDetail(ctx context.Context, caller domain.Caller, tripID int64) (*TripDetail, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	detail := &TripDetail{Trip: trip}

	if trip.Status != domain.TripStatusReserved || !caller.Authenticated {
		return detail, nil
	}

	reservation, err := s.reservationRepo.GetByTripID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return detail, nil
		}
		return nil, err
	}

	actor := caller.Actor
	switch {
	case actor.Role == domain.RoleCompany && actor.UserID == trip.CompanyID:
		detail.ReservedBy = reservation
	case s.discloseToClaimant && actor.Role == domain.RoleDriver && actor.UserID == reservation.DriverID:
		detail.ReservedBy = reservation
	}

	return detail, nil
}

// ListOpenTrips retrieves all OPEN trips. The listing is served from the
// cache when possible; transitions invalidate it.
func (s *TripService) ListOpenTrips(ctx context.Context) ([]*domain.Trip, error) {
	if s.cache != nil {
		if trips, err := s.cache.GetOpenTrips(ctx); err == nil && trips != nil {
			return trips, nil
		}
	}

	trips, err := s.tripRepo.ListByStatus(ctx, domain.TripStatusOpen)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetOpenTrips(ctx, trips)
	}

	return trips, nil
}

// ListMyTrips retrieves the trips linked to the actor, newest first:
// owned trips for a company, reserved (active or completed) trips for a
// driver.
func (s *TripService) ListMyTrips(ctx context.Context, actor domain.Actor) ([]*domain.Trip, error) {
	switch actor.Role {
	case domain.RoleCompany:
		return s.tripRepo.ListByCompany(ctx, actor.UserID)
	case domain.RoleDriver:
		return s.tripRepo.ListByDriverReservation(ctx, actor.UserID)
	default:
		return nil, ErrInvalidRole
	}
}

func (s *TripService) invalidateOpenTrips(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateOpenTrips(ctx)
	}
}
