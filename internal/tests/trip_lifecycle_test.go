package tests

import (
	"context"
	"errors"
	"testing"

	"haulmatch/internal/domain"
	"haulmatch/internal/repository"
	"haulmatch/internal/service"
)

func newTripService(discloseToClaimant bool) (*service.TripService, *MockTripRepository, *MockReservationRepository, *MockTxManager) {
	tripRepo := NewMockTripRepository()
	reservationRepo := NewMockReservationRepository()
	tripRepo.Reservations = reservationRepo
	txm := NewMockTxManager(tripRepo, reservationRepo)
	svc := service.NewTripService(txm, tripRepo, reservationRepo, nil, nil, discloseToClaimant)
	return svc, tripRepo, reservationRepo, txm
}

var (
	companyActor      = domain.Actor{UserID: 1, Role: domain.RoleCompany}
	otherCompanyActor = domain.Actor{UserID: 2, Role: domain.RoleCompany}
	driverActor       = domain.Actor{UserID: 10, Role: domain.RoleDriver}
	otherDriverActor  = domain.Actor{UserID: 11, Role: domain.RoleDriver}
)

func createTrip(t *testing.T, svc *service.TripService, actor domain.Actor) *domain.Trip {
	t.Helper()
	trip, err := svc.CreateTrip(context.Background(), actor, service.CreateTripRequest{
		Origin:          "Stockholm",
		Destination:     "Göteborg",
		Date:            "2026-09-15",
		TimeWindow:      "08:00-12:00",
		CompensationSEK: 4500,
		VehicleInfo:     "Box truck, 12t",
	})
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	return trip
}

// checkReservationInvariant asserts that a trip holds a reservation if
// and only if its status admits one: RESERVED requires one, OPEN and
// CANCELLED forbid one, COMPLETED keeps its historical row.
func checkReservationInvariant(t *testing.T, tripRepo *MockTripRepository, reservationRepo *MockReservationRepository) {
	t.Helper()
	for _, trip := range tripRepo.AllTrips() {
		reservation := reservationRepo.GetReservation(trip.ID)
		switch trip.Status {
		case domain.TripStatusReserved:
			if reservation == nil {
				t.Errorf("trip %d is RESERVED but has no reservation", trip.ID)
			}
		case domain.TripStatusOpen, domain.TripStatusCancelled:
			if reservation != nil {
				t.Errorf("trip %d is %s but has a reservation", trip.ID, trip.Status)
			}
		}
	}
}

func TestCreateTrip(t *testing.T) {
	svc, tripRepo, _, _ := newTripService(false)

	trip := createTrip(t, svc, companyActor)

	if trip.ID == 0 {
		t.Error("expected trip to be assigned an ID")
	}
	if trip.Status != domain.TripStatusOpen {
		t.Errorf("expected status OPEN, got %s", trip.Status)
	}
	if trip.CompanyID != companyActor.UserID {
		t.Errorf("expected company ID %d, got %d", companyActor.UserID, trip.CompanyID)
	}
	if tripRepo.CreateCallCount != 1 {
		t.Errorf("expected 1 create call, got %d", tripRepo.CreateCallCount)
	}
}

func TestCreateTrip_DriverForbidden(t *testing.T) {
	svc, tripRepo, _, _ := newTripService(false)

	_, err := svc.CreateTrip(context.Background(), driverActor, service.CreateTripRequest{
		Origin:          "Malmö",
		Destination:     "Lund",
		CompensationSEK: 500,
	})
	if !errors.Is(err, service.ErrCompanyRoleRequired) {
		t.Errorf("expected ErrCompanyRoleRequired, got %v", err)
	}
	if tripRepo.CreateCallCount != 0 {
		t.Error("expected no create call for forbidden request")
	}
}

func TestCreateTrip_Validation(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	ctx := context.Background()

	cases := []struct {
		name    string
		req     service.CreateTripRequest
		wantErr error
	}{
		{"missing origin", service.CreateTripRequest{Destination: "Umeå", CompensationSEK: 100}, service.ErrInvalidOrigin},
		{"missing destination", service.CreateTripRequest{Origin: "Umeå", CompensationSEK: 100}, service.ErrInvalidDestination},
		{"negative compensation", service.CreateTripRequest{Origin: "Umeå", Destination: "Luleå", CompensationSEK: -1}, service.ErrInvalidCompensation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTrip(ctx, companyActor, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestClaimTrip(t *testing.T) {
	svc, tripRepo, reservationRepo, txm := newTripService(false)
	trip := createTrip(t, svc, companyActor)

	result, err := svc.ClaimTrip(context.Background(), driverActor, trip.ID)
	if err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}

	if result.Trip.Status != domain.TripStatusReserved {
		t.Errorf("expected status RESERVED, got %s", result.Trip.Status)
	}
	if result.Reservation.DriverID != driverActor.UserID {
		t.Errorf("expected reservation for driver %d, got %d", driverActor.UserID, result.Reservation.DriverID)
	}
	if result.Reservation.ID == "" {
		t.Error("expected reservation to have an ID")
	}

	stored := tripRepo.GetTrip(trip.ID)
	if stored.Status != domain.TripStatusReserved {
		t.Errorf("expected stored status RESERVED, got %s", stored.Status)
	}
	if reservationRepo.CountReservations() != 1 {
		t.Errorf("expected 1 reservation, got %d", reservationRepo.CountReservations())
	}
	if txm.WithinTxCallCount != 1 {
		t.Errorf("expected claim to run in one transaction, got %d", txm.WithinTxCallCount)
	}
	checkReservationInvariant(t, tripRepo, reservationRepo)
}

func TestClaimTrip_NotFound(t *testing.T) {
	svc, _, _, _ := newTripService(false)

	_, err := svc.ClaimTrip(context.Background(), driverActor, 9999)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClaimTrip_CompanyForbidden(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	trip := createTrip(t, svc, companyActor)

	_, err := svc.ClaimTrip(context.Background(), otherCompanyActor, trip.ID)
	if !errors.Is(err, service.ErrDriverRoleRequired) {
		t.Errorf("expected ErrDriverRoleRequired, got %v", err)
	}
}

func TestClaimTrip_AlreadyReserved(t *testing.T) {
	svc, tripRepo, reservationRepo, _ := newTripService(false)
	trip := createTrip(t, svc, companyActor)

	if _, err := svc.ClaimTrip(context.Background(), driverActor, trip.ID); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	_, err := svc.ClaimTrip(context.Background(), otherDriverActor, trip.ID)
	if !errors.Is(err, service.ErrTripAlreadyReserved) {
		t.Errorf("expected ErrTripAlreadyReserved, got %v", err)
	}

	// The losing claim must not displace the winner.
	reservation := reservationRepo.GetReservation(trip.ID)
	if reservation == nil || reservation.DriverID != driverActor.UserID {
		t.Error("expected the first driver's reservation to be intact")
	}
	checkReservationInvariant(t, tripRepo, reservationRepo)
}

func TestClaimTrip_TerminalState(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	if _, err := svc.CancelTrip(ctx, companyActor, trip.ID); err != nil {
		t.Fatalf("CancelTrip failed: %v", err)
	}

	_, err := svc.ClaimTrip(ctx, driverActor, trip.ID)
	if !errors.Is(err, service.ErrTripNotOpen) {
		t.Errorf("expected ErrTripNotOpen, got %v", err)
	}
}

func TestUnclaimTrip(t *testing.T) {
	svc, tripRepo, reservationRepo, _ := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}

	unclaimed, err := svc.UnclaimTrip(ctx, driverActor, trip.ID)
	if err != nil {
		t.Fatalf("UnclaimTrip failed: %v", err)
	}
	if unclaimed.Status != domain.TripStatusOpen {
		t.Errorf("expected status OPEN, got %s", unclaimed.Status)
	}
	if reservationRepo.CountReservations() != 0 {
		t.Errorf("expected 0 reservations after unclaim, got %d", reservationRepo.CountReservations())
	}

	// The trip is claimable again.
	if _, err := svc.ClaimTrip(ctx, otherDriverActor, trip.ID); err != nil {
		t.Errorf("expected reclaim after unclaim to succeed, got %v", err)
	}
	checkReservationInvariant(t, tripRepo, reservationRepo)
}

func TestUnclaimTrip_NotReserved(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	trip := createTrip(t, svc, companyActor)

	_, err := svc.UnclaimTrip(context.Background(), driverActor, trip.ID)
	if !errors.Is(err, service.ErrTripNotReserved) {
		t.Errorf("expected ErrTripNotReserved, got %v", err)
	}
}

func TestUnclaimTrip_RepeatedUnclaim(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}
	if _, err := svc.UnclaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("first unclaim failed: %v", err)
	}

	// A second unclaim finds no reservation, not a crash or silent success.
	_, err := svc.UnclaimTrip(ctx, driverActor, trip.ID)
	if !errors.Is(err, service.ErrTripNotReserved) {
		t.Errorf("expected ErrTripNotReserved on repeated unclaim, got %v", err)
	}
}

func TestUnclaimTrip_OtherDriver(t *testing.T) {
	svc, tripRepo, reservationRepo, _ := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}

	_, err := svc.UnclaimTrip(ctx, otherDriverActor, trip.ID)
	if !errors.Is(err, service.ErrNotReservationHolder) {
		t.Errorf("expected ErrNotReservationHolder, got %v", err)
	}
	if tripRepo.GetTrip(trip.ID).Status != domain.TripStatusReserved {
		t.Error("expected trip to stay RESERVED")
	}
	checkReservationInvariant(t, tripRepo, reservationRepo)
}

func TestCompleteTrip(t *testing.T) {
	svc, tripRepo, reservationRepo, _ := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}

	completed, err := svc.CompleteTrip(ctx, companyActor, trip.ID)
	if err != nil {
		t.Fatalf("CompleteTrip failed: %v", err)
	}
	if completed.Status != domain.TripStatusCompleted {
		t.Errorf("expected status COMPLETED, got %s", completed.Status)
	}

	// Completion keeps the reservation row as history.
	if reservationRepo.GetReservation(trip.ID) == nil {
		t.Error("expected reservation to be retained after completion")
	}
	checkReservationInvariant(t, tripRepo, reservationRepo)
}

func TestCompleteTrip_OnlyFromReserved(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	trip := createTrip(t, svc, companyActor)

	_, err := svc.CompleteTrip(context.Background(), companyActor, trip.ID)
	if !errors.Is(err, service.ErrTripNotReserved) {
		t.Errorf("expected ErrTripNotReserved when completing an OPEN trip, got %v", err)
	}
}

func TestCompleteTrip_NotOwner(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}

	_, err := svc.CompleteTrip(ctx, otherCompanyActor, trip.ID)
	if !errors.Is(err, service.ErrNotTripOwner) {
		t.Errorf("expected ErrNotTripOwner, got %v", err)
	}
}

func TestCancelTrip_FromOpen(t *testing.T) {
	svc, tripRepo, reservationRepo, _ := newTripService(false)
	trip := createTrip(t, svc, companyActor)

	cancelled, err := svc.CancelTrip(context.Background(), companyActor, trip.ID)
	if err != nil {
		t.Fatalf("CancelTrip failed: %v", err)
	}
	if cancelled.Status != domain.TripStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", cancelled.Status)
	}
	checkReservationInvariant(t, tripRepo, reservationRepo)
}

func TestCancelTrip_FromReserved(t *testing.T) {
	svc, tripRepo, reservationRepo, _ := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}

	cancelled, err := svc.CancelTrip(ctx, companyActor, trip.ID)
	if err != nil {
		t.Fatalf("CancelTrip failed: %v", err)
	}
	if cancelled.Status != domain.TripStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", cancelled.Status)
	}

	// Cancelling a reserved trip releases the reservation with it.
	if reservationRepo.CountReservations() != 0 {
		t.Errorf("expected 0 reservations after cancel, got %d", reservationRepo.CountReservations())
	}
	checkReservationInvariant(t, tripRepo, reservationRepo)
}

func TestCancelTrip_Terminal(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}
	if _, err := svc.CompleteTrip(ctx, companyActor, trip.ID); err != nil {
		t.Fatalf("CompleteTrip failed: %v", err)
	}

	_, err := svc.CancelTrip(ctx, companyActor, trip.ID)
	if !errors.Is(err, service.ErrTripNotCancellable) {
		t.Errorf("expected ErrTripNotCancellable, got %v", err)
	}
}

func TestCancelTrip_DriverForbidden(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	trip := createTrip(t, svc, companyActor)

	_, err := svc.CancelTrip(context.Background(), driverActor, trip.ID)
	if !errors.Is(err, service.ErrCompanyRoleRequired) {
		t.Errorf("expected ErrCompanyRoleRequired, got %v", err)
	}
}

// TestGuardOrder pins the evaluation order of the transition guards:
// existence before role, role before ownership, ownership before state.
func TestGuardOrder(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	ctx := context.Background()

	// A missing trip wins over a wrong role.
	_, err := svc.CancelTrip(ctx, driverActor, 404)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound before role check, got %v", err)
	}

	// On an OPEN trip, a driver attempting complete gets the role error,
	// not the state error.
	trip := createTrip(t, svc, companyActor)
	_, err = svc.CompleteTrip(ctx, driverActor, trip.ID)
	if !errors.Is(err, service.ErrCompanyRoleRequired) {
		t.Errorf("expected ErrCompanyRoleRequired before state check, got %v", err)
	}

	// A non-owner company gets the ownership error even though the state
	// check would also fail.
	_, err = svc.CompleteTrip(ctx, otherCompanyActor, trip.ID)
	if !errors.Is(err, service.ErrNotTripOwner) {
		t.Errorf("expected ErrNotTripOwner before state check, got %v", err)
	}
}

// TestLifecycleScenario runs the end-to-end flow: publish, claim, lose a
// second claim, cancel, and verify no reservation survives.
func TestLifecycleScenario(t *testing.T) {
	svc, tripRepo, reservationRepo, _ := newTripService(false)
	ctx := context.Background()

	trip := createTrip(t, svc, companyActor)

	if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("driver A claim failed: %v", err)
	}
	if _, err := svc.ClaimTrip(ctx, otherDriverActor, trip.ID); !errors.Is(err, service.ErrTripAlreadyReserved) {
		t.Fatalf("expected driver B to get ErrTripAlreadyReserved, got %v", err)
	}
	if _, err := svc.CancelTrip(ctx, companyActor, trip.ID); err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}

	final := tripRepo.GetTrip(trip.ID)
	if final.Status != domain.TripStatusCancelled {
		t.Errorf("expected final status CANCELLED, got %s", final.Status)
	}
	if reservationRepo.CountReservations() != 0 {
		t.Errorf("expected 0 reservations at end of scenario, got %d", reservationRepo.CountReservations())
	}
	checkReservationInvariant(t, tripRepo, reservationRepo)
}

func TestListMyTrips(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	ctx := context.Background()

	first := createTrip(t, svc, companyActor)
	createTrip(t, svc, companyActor)
	createTrip(t, svc, otherCompanyActor)

	if _, err := svc.ClaimTrip(ctx, driverActor, first.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}

	owned, err := svc.ListMyTrips(ctx, companyActor)
	if err != nil {
		t.Fatalf("ListMyTrips (company) failed: %v", err)
	}
	if len(owned) != 2 {
		t.Errorf("expected 2 owned trips, got %d", len(owned))
	}

	reserved, err := svc.ListMyTrips(ctx, driverActor)
	if err != nil {
		t.Fatalf("ListMyTrips (driver) failed: %v", err)
	}
	if len(reserved) != 1 || reserved[0].ID != first.ID {
		t.Errorf("expected driver listing to contain trip %d only, got %d trips", first.ID, len(reserved))
	}
}

func TestListOpenTrips_Cache(t *testing.T) {
	tripRepo := NewMockTripRepository()
	reservationRepo := NewMockReservationRepository()
	tripRepo.Reservations = reservationRepo
	txm := NewMockTxManager(tripRepo, reservationRepo)
	cache := NewMockTripCache()
	svc := service.NewTripService(txm, tripRepo, reservationRepo, cache, nil, false)
	ctx := context.Background()

	trip := createTrip(t, svc, companyActor)

	// First listing misses the cache and fills it.
	trips, err := svc.ListOpenTrips(ctx)
	if err != nil {
		t.Fatalf("ListOpenTrips failed: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 open trip, got %d", len(trips))
	}
	if cache.SetCallCount != 1 {
		t.Errorf("expected cache to be filled once, got %d sets", cache.SetCallCount)
	}

	// A claim invalidates the listing so the reserved trip disappears.
	if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}
	trips, err = svc.ListOpenTrips(ctx)
	if err != nil {
		t.Fatalf("ListOpenTrips failed: %v", err)
	}
	if len(trips) != 0 {
		t.Errorf("expected 0 open trips after claim, got %d", len(trips))
	}
	if cache.InvalidateCallCount == 0 {
		t.Error("expected claim to invalidate the cache")
	}
}

func TestClaimTrip_RolledBackOnStatusConflict(t *testing.T) {
	svc, tripRepo, reservationRepo, _ := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	// Force the status flip to fail after the reservation insert; the
	// insert must be rolled back with it.
	tripRepo.UpdateStatusError = repository.ErrStatusConflict

	_, err := svc.ClaimTrip(ctx, driverActor, trip.ID)
	if !errors.Is(err, service.ErrTripNotOpen) {
		t.Errorf("expected ErrTripNotOpen, got %v", err)
	}
	if reservationRepo.CountReservations() != 0 {
		t.Errorf("expected reservation insert to be rolled back, got %d reservations", reservationRepo.CountReservations())
	}
	if tripRepo.GetTrip(trip.ID).Status != domain.TripStatusOpen {
		t.Error("expected trip to stay OPEN after rollback")
	}
}
