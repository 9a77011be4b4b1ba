package tests

import (
	"context"
	"errors"
	"testing"

	"haulmatch/internal/domain"
	"haulmatch/internal/repository"
	"haulmatch/internal/service"
)

func reservedTrip(t *testing.T, svc *service.TripService) *domain.Trip {
	t.Helper()
	trip := createTrip(t, svc, companyActor)
	if _, err := svc.ClaimTrip(context.Background(), driverActor, trip.ID); err != nil {
		t.Fatalf("ClaimTrip failed: %v", err)
	}
	return trip
}

func TestGetTripDetail_OwnerSeesDriver(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	trip := reservedTrip(t, svc)

	detail, err := svc.GetTripDetail(context.Background(), domain.AuthenticatedCaller(companyActor), trip.ID)
	if err != nil {
		t.Fatalf("GetTripDetail failed: %v", err)
	}
	if detail.ReservedBy == nil {
		t.Fatal("expected owner to see the reserving driver")
	}
	if detail.ReservedBy.DriverID != driverActor.UserID {
		t.Errorf("expected driver %d, got %d", driverActor.UserID, detail.ReservedBy.DriverID)
	}
}

func TestGetTripDetail_Redacted(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	trip := reservedTrip(t, svc)
	ctx := context.Background()

	cases := []struct {
		name   string
		caller domain.Caller
	}{
		{"anonymous", domain.AnonymousCaller()},
		{"unrelated company", domain.AuthenticatedCaller(otherCompanyActor)},
		{"unrelated driver", domain.AuthenticatedCaller(otherDriverActor)},
		{"claimant with disclosure off", domain.AuthenticatedCaller(driverActor)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			detail, err := svc.GetTripDetail(ctx, tc.caller, trip.ID)
			if err != nil {
				t.Fatalf("GetTripDetail failed: %v", err)
			}
			if detail.ReservedBy != nil {
				t.Error("expected the reserving driver to be withheld")
			}
			if detail.Trip.ID != trip.ID || detail.Trip.Status != domain.TripStatusReserved {
				t.Error("expected the redacted detail to still carry the trip")
			}
		})
	}
}

func TestGetTripDetail_ClaimantPolicy(t *testing.T) {
	svc, _, _, _ := newTripService(true)
	trip := reservedTrip(t, svc)
	ctx := context.Background()

	detail, err := svc.GetTripDetail(ctx, domain.AuthenticatedCaller(driverActor), trip.ID)
	if err != nil {
		t.Fatalf("GetTripDetail failed: %v", err)
	}
	if detail.ReservedBy == nil {
		t.Error("expected the claimant to see their own reservation when the policy is enabled")
	}

	// The policy admits the claimant only, never other drivers.
	detail, err = svc.GetTripDetail(ctx, domain.AuthenticatedCaller(otherDriverActor), trip.ID)
	if err != nil {
		t.Fatalf("GetTripDetail failed: %v", err)
	}
	if detail.ReservedBy != nil {
		t.Error("expected a non-claimant driver to be refused even with the policy enabled")
	}
}

func TestGetTripDetail_OpenTripHasNoDriver(t *testing.T) {
	svc, _, _, _ := newTripService(false)
	trip := createTrip(t, svc, companyActor)

	detail, err := svc.GetTripDetail(context.Background(), domain.AuthenticatedCaller(companyActor), trip.ID)
	if err != nil {
		t.Fatalf("GetTripDetail failed: %v", err)
	}
	if detail.ReservedBy != nil {
		t.Error("expected no reserving driver on an OPEN trip")
	}
}

func TestGetTripDetail_NotFound(t *testing.T) {
	svc, _, _, _ := newTripService(false)

	_, err := svc.GetTripDetail(context.Background(), domain.AnonymousCaller(), 9999)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
