package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"haulmatch/internal/domain"
	"haulmatch/internal/repository"
	"haulmatch/internal/service"
)

// interceptingTxManager runs a callback once, just before delegating a
// transaction to the wrapped manager. It widens the window between an
// operation's guard reads and its atomic write so a specific
// interleaving can be forced deterministically.
type interceptingTxManager struct {
	inner    repository.TxManager
	beforeTx func()
}

func (m *interceptingTxManager) WithinTx(ctx context.Context, fn func(repository.TxRepos) error) error {
	if m.beforeTx != nil {
		hook := m.beforeTx
		m.beforeTx = nil
		hook()
	}
	return m.inner.WithinTx(ctx, fn)
}

// TestConcurrentClaims races many drivers for one trip. Exactly one claim
// may win; every loser must observe the reserved conflict, and the store
// must end with a single reservation bound to the winner.
func TestConcurrentClaims(t *testing.T) {
	svc, tripRepo, reservationRepo, _ := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	const drivers = 25

	var wg sync.WaitGroup
	results := make(chan error, drivers)
	winners := make(chan int64, drivers)

	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(driverID int64) {
			defer wg.Done()
			actor := domain.Actor{UserID: driverID, Role: domain.RoleDriver}
			result, err := svc.ClaimTrip(ctx, actor, trip.ID)
			if err == nil {
				winners <- result.Reservation.DriverID
			}
			results <- err
		}(int64(100 + i))
	}

	wg.Wait()
	close(results)
	close(winners)

	var successes, conflicts, unexpected int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrTripAlreadyReserved):
			conflicts++
		default:
			unexpected++
			t.Errorf("unexpected claim error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("expected exactly 1 winning claim, got %d", successes)
	}
	if conflicts != drivers-1 {
		t.Errorf("expected %d reserved conflicts, got %d", drivers-1, conflicts)
	}

	if tripRepo.GetTrip(trip.ID).Status != domain.TripStatusReserved {
		t.Errorf("expected final status RESERVED, got %s", tripRepo.GetTrip(trip.ID).Status)
	}
	if reservationRepo.CountReservations() != 1 {
		t.Fatalf("expected exactly 1 reservation, got %d", reservationRepo.CountReservations())
	}

	winnerID := <-winners
	reservation := reservationRepo.GetReservation(trip.ID)
	if reservation.DriverID != winnerID {
		t.Errorf("reservation belongs to driver %d, but driver %d won the claim", reservation.DriverID, winnerID)
	}
	checkReservationInvariant(t, tripRepo, reservationRepo)
}

// TestUnclaimTrip_StaleUnclaimCannotRevokeReclaim forces the nastiest
// unclaim interleaving: a duplicate unclaim passes its guard reads, then
// the first unclaim commits and another driver reclaims the trip before
// the duplicate's write runs. The duplicate's conditional delete matches
// nothing, the transaction rolls back, and the new holder keeps the
// reservation.
func TestUnclaimTrip_StaleUnclaimCannotRevokeReclaim(t *testing.T) {
	svc, tripRepo, reservationRepo, txm := newTripService(false)
	ctx := context.Background()
	trip := createTrip(t, svc, companyActor)

	if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}

	intercepted := &interceptingTxManager{
		inner: txm,
		beforeTx: func() {
			if _, err := svc.UnclaimTrip(ctx, driverActor, trip.ID); err != nil {
				t.Fatalf("interleaved unclaim failed: %v", err)
			}
			if _, err := svc.ClaimTrip(ctx, otherDriverActor, trip.ID); err != nil {
				t.Fatalf("interleaved reclaim failed: %v", err)
			}
		},
	}
	staleSvc := service.NewTripService(intercepted, tripRepo, reservationRepo, nil, nil, false)

	_, err := staleSvc.UnclaimTrip(ctx, driverActor, trip.ID)
	if !errors.Is(err, service.ErrTripNotReserved) {
		t.Fatalf("expected stale unclaim to fail with ErrTripNotReserved, got %v", err)
	}

	reservation := reservationRepo.GetReservation(trip.ID)
	if reservation == nil || reservation.DriverID != otherDriverActor.UserID {
		t.Fatal("expected the reclaiming driver's reservation to survive the stale unclaim")
	}
	if tripRepo.GetTrip(trip.ID).Status != domain.TripStatusReserved {
		t.Errorf("expected trip to stay RESERVED, got %s", tripRepo.GetTrip(trip.ID).Status)
	}
	checkReservationInvariant(t, tripRepo, reservationRepo)
}

// TestConcurrentClaimAndCancel races a claim against the owner's cancel.
// Whatever the interleaving, the trip must end CANCELLED with no
// reservation left, and the claim must either win cleanly before the
// cancel or fail with a state conflict.
func TestConcurrentClaimAndCancel(t *testing.T) {
	for i := 0; i < 20; i++ {
		svc, tripRepo, reservationRepo, _ := newTripService(false)
		ctx := context.Background()
		trip := createTrip(t, svc, companyActor)

		var wg sync.WaitGroup
		var claimErr, cancelErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, claimErr = svc.ClaimTrip(ctx, driverActor, trip.ID)
		}()
		go func() {
			defer wg.Done()
			_, cancelErr = svc.CancelTrip(ctx, companyActor, trip.ID)
		}()
		wg.Wait()

		if cancelErr != nil {
			t.Fatalf("cancel of a live trip must succeed, got %v", cancelErr)
		}
		if claimErr != nil &&
			!errors.Is(claimErr, service.ErrTripNotOpen) &&
			!errors.Is(claimErr, service.ErrTripAlreadyReserved) {
			t.Fatalf("unexpected claim error: %v", claimErr)
		}

		if tripRepo.GetTrip(trip.ID).Status != domain.TripStatusCancelled {
			t.Fatalf("expected final status CANCELLED, got %s", tripRepo.GetTrip(trip.ID).Status)
		}
		if reservationRepo.CountReservations() != 0 {
			t.Fatalf("expected no reservations after cancel, got %d", reservationRepo.CountReservations())
		}
	}
}

// TestConcurrentUnclaimAndComplete races the driver's unclaim against the
// owner's complete on a reserved trip. Exactly one transition may apply.
func TestConcurrentUnclaimAndComplete(t *testing.T) {
	for i := 0; i < 20; i++ {
		svc, tripRepo, reservationRepo, _ := newTripService(false)
		ctx := context.Background()
		trip := createTrip(t, svc, companyActor)
		if _, err := svc.ClaimTrip(ctx, driverActor, trip.ID); err != nil {
			t.Fatalf("ClaimTrip failed: %v", err)
		}

		var wg sync.WaitGroup
		var unclaimErr, completeErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, unclaimErr = svc.UnclaimTrip(ctx, driverActor, trip.ID)
		}()
		go func() {
			defer wg.Done()
			_, completeErr = svc.CompleteTrip(ctx, companyActor, trip.ID)
		}()
		wg.Wait()

		final := tripRepo.GetTrip(trip.ID)
		switch {
		case unclaimErr == nil && completeErr != nil:
			if final.Status != domain.TripStatusOpen {
				t.Fatalf("unclaim won but status is %s", final.Status)
			}
			if !errors.Is(completeErr, service.ErrTripNotReserved) {
				t.Fatalf("expected complete to fail with ErrTripNotReserved, got %v", completeErr)
			}
			if reservationRepo.CountReservations() != 0 {
				t.Fatal("unclaim won but the reservation survived")
			}
		case completeErr == nil && unclaimErr != nil:
			if final.Status != domain.TripStatusCompleted {
				t.Fatalf("complete won but status is %s", final.Status)
			}
			if !errors.Is(unclaimErr, service.ErrTripNotReserved) {
				t.Fatalf("expected unclaim to fail with ErrTripNotReserved, got %v", unclaimErr)
			}
			if reservationRepo.GetReservation(trip.ID) == nil {
				t.Fatal("complete won but the reservation was deleted")
			}
		case unclaimErr == nil && completeErr == nil:
			t.Fatal("both transitions applied to the same reservation")
		default:
			t.Fatalf("both transitions failed: unclaim=%v complete=%v", unclaimErr, completeErr)
		}
	}
}
