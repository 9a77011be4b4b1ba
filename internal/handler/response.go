package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"haulmatch/internal/repository"
	"haulmatch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
// Authorization failures, state conflicts and lost races map to distinct
// codes and messages; they are never collapsed into one generic error.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOrigin),
		errors.Is(err, service.ErrInvalidDestination),
		errors.Is(err, service.ErrInvalidCompensation),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Role and ownership errors
	case errors.Is(err, service.ErrCompanyRoleRequired),
		errors.Is(err, service.ErrDriverRoleRequired),
		errors.Is(err, service.ErrNotTripOwner),
		errors.Is(err, service.ErrNotReservationHolder):
		return http.StatusForbidden

	// State conflicts, including the lost-race outcome
	case errors.Is(err, service.ErrTripNotOpen),
		errors.Is(err, service.ErrTripNotReserved),
		errors.Is(err, service.ErrTripNotCancellable),
		errors.Is(err, service.ErrTripAlreadyReserved),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict

	// Anything else escaping the engine is store unavailability;
	// the write was not applied and the caller may retry.
	default:
		return http.StatusServiceUnavailable
	}
}
