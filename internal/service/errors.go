package service

import "errors"

var (
	// ErrCompanyRoleRequired is returned when an operation reserved for
	// companies is attempted by another role.
	ErrCompanyRoleRequired = errors.New("company role required")

	// ErrDriverRoleRequired is returned when an operation reserved for
	// drivers is attempted by another role.
	ErrDriverRoleRequired = errors.New("driver role required")

	// ErrNotTripOwner is returned when a company acts on a trip it does
	// not own.
	ErrNotTripOwner = errors.New("not the trip owner")

	// ErrNotReservationHolder is returned when a driver acts on a
	// reservation held by another driver.
	ErrNotReservationHolder = errors.New("not the reservation holder")

	// ErrTripNotOpen is returned when an operation requires an OPEN trip.
	ErrTripNotOpen = errors.New("trip not open")

	// ErrTripNotReserved is returned when an operation requires a
	// RESERVED trip.
	ErrTripNotReserved = errors.New("trip not reserved")

	// ErrTripNotCancellable is returned when cancelling a trip in a
	// terminal state.
	ErrTripNotCancellable = errors.New("trip cannot be cancelled in current state")

	// ErrTripAlreadyReserved is returned when a claim loses the race for
	// a trip. It is an expected outcome, distinct from ErrTripNotOpen so
	// callers can report "someone else got it first".
	ErrTripAlreadyReserved = errors.New("trip already reserved")

	// ErrInvalidOrigin is returned when the trip origin is empty.
	ErrInvalidOrigin = errors.New("invalid origin")

	// ErrInvalidDestination is returned when the trip destination is empty.
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrInvalidCompensation is returned when the compensation is negative.
	ErrInvalidCompensation = errors.New("invalid compensation")

	// ErrInvalidName is returned when the account name is empty.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidEmail is returned when the email is empty or malformed.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidPassword is returned when the password is too short.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidRole is returned when the role is not COMPANY or DRIVER.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned when login fails. Deliberately
	// identical for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
