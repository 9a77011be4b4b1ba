package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"haulmatch/internal/domain"
	"haulmatch/internal/middleware"
	"haulmatch/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// CreateTripRequest is the HTTP request body for publishing a trip.
type CreateTripRequest struct {
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	Date            string `json:"date,omitempty"`
	TimeWindow      string `json:"time_window,omitempty"`
	CompensationSEK int64  `json:"compensation_sek"`
	VehicleInfo     string `json:"vehicle_info,omitempty"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	ID              int64  `json:"id"`
	CompanyID       int64  `json:"company_id"`
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	Date            string `json:"date,omitempty"`
	TimeWindow      string `json:"time_window,omitempty"`
	CompensationSEK int64  `json:"compensation_sek"`
	VehicleInfo     string `json:"vehicle_info,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`

	// ReservedByDriverID is present only when the disclosure guard admits
	// the caller.
	ReservedByDriverID *int64 `json:"reserved_by_driver_id,omitempty"`
}

// ReservationResponse is the HTTP response for a claim.
type ReservationResponse struct {
	ID        string `json:"id"`
	TripID    int64  `json:"trip_id"`
	DriverID  int64  `json:"driver_id"`
	CreatedAt string `json:"created_at"`
}

// ClaimResponse is the HTTP response for a successful claim.
type ClaimResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Trip        TripResponse        `json:"trip"`
}

// Create handles POST /v1/trips
func (h *TripHandler) Create(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), actor, service.CreateTripRequest{
		Origin:          req.Origin,
		Destination:     req.Destination,
		Date:            req.Date,
		TimeWindow:      req.TimeWindow,
		CompensationSEK: req.CompensationSEK,
		VehicleInfo:     req.VehicleInfo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, tripResponse(trip))
}

// Claim handles POST /v1/trips/:id/claim
func (h *TripHandler) Claim(c *gin.Context) {
	actor, tripID, ok := h.transitionArgs(c)
	if !ok {
		return
	}

	result, err := h.tripService.ClaimTrip(c.Request.Context(), actor, tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ClaimResponse{
		Reservation: ReservationResponse{
			ID:        result.Reservation.ID,
			TripID:    result.Reservation.TripID,
			DriverID:  result.Reservation.DriverID,
			CreatedAt: result.Reservation.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		Trip: tripResponse(result.Trip),
	})
}

// Unclaim handles POST /v1/trips/:id/unclaim
func (h *TripHandler) Unclaim(c *gin.Context) {
	actor, tripID, ok := h.transitionArgs(c)
	if !ok {
		return
	}

	trip, err := h.tripService.UnclaimTrip(c.Request.Context(), actor, tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// Complete handles POST /v1/trips/:id/complete
func (h *TripHandler) Complete(c *gin.Context) {
	actor, tripID, ok := h.transitionArgs(c)
	if !ok {
		return
	}

	trip, err := h.tripService.CompleteTrip(c.Request.Context(), actor, tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// Cancel handles POST /v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	actor, tripID, ok := h.transitionArgs(c)
	if !ok {
		return
	}

	trip, err := h.tripService.CancelTrip(c.Request.Context(), actor, tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// GetDetail handles GET /v1/trips/:id
func (h *TripHandler) GetDetail(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	caller := middleware.CallerFromContext(c)

	detail, err := h.tripService.GetTripDetail(c.Request.Context(), caller, tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := tripResponse(detail.Trip)
	if detail.ReservedBy != nil {
		response.ReservedByDriverID = &detail.ReservedBy.DriverID
	}

	respondJSON(c, http.StatusOK, response)
}

// ListOpen handles GET /v1/trips
func (h *TripHandler) ListOpen(c *gin.Context) {
	trips, err := h.tripService.ListOpenTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponses(trips))
}

// ListMine handles GET /v1/trips/mine
func (h *TripHandler) ListMine(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	trips, err := h.tripService.ListMyTrips(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponses(trips))
}

func (h *TripHandler) transitionArgs(c *gin.Context) (domain.Actor, int64, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return domain.Actor{}, 0, false
	}

	tripID, ok := tripIDParam(c)
	if !ok {
		return domain.Actor{}, 0, false
	}

	return actor, tripID, true
}

func tripIDParam(c *gin.Context) (int64, bool) {
	tripID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid trip id"})
		return 0, false
	}
	return tripID, true
}

func tripResponse(trip *domain.Trip) TripResponse {
	return TripResponse{
		ID:              trip.ID,
		CompanyID:       trip.CompanyID,
		Origin:          trip.Origin,
		Destination:     trip.Destination,
		Date:            trip.Date,
		TimeWindow:      trip.TimeWindow,
		CompensationSEK: trip.CompensationSEK,
		VehicleInfo:     trip.VehicleInfo,
		Status:          string(trip.Status),
		CreatedAt:       trip.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func tripResponses(trips []*domain.Trip) []TripResponse {
	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, tripResponse(trip))
	}
	return response
}
