package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"haulmatch/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTripClaimed   NotificationType = "TRIP_CLAIMED"
	NotificationTripUnclaimed NotificationType = "TRIP_UNCLAIMED"
	NotificationTripCompleted NotificationType = "TRIP_COMPLETED"
	NotificationTripCancelled NotificationType = "TRIP_CANCELLED"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID int64
	Title       string
	Message     string
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would carry a push/email/SMS client.
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyTripClaimed notifies the owning company that a driver reserved
// its trip.
func (s *NotificationService) NotifyTripClaimed(ctx context.Context, trip *domain.Trip, driverID int64) error {
	return s.send(ctx, Notification{
		ID:          uuid.New().String(),
		Type:        NotificationTripClaimed,
		RecipientID: trip.CompanyID,
		Title:       "Trip Reserved",
		Message:     fmt.Sprintf("Your trip %s → %s has been reserved by a driver", trip.Origin, trip.Destination),
		CreatedAt:   time.Now(),
	})
}

// NotifyTripUnclaimed notifies the owning company that its trip is open
// again.
func (s *NotificationService) NotifyTripUnclaimed(ctx context.Context, trip *domain.Trip) error {
	return s.send(ctx, Notification{
		ID:          uuid.New().String(),
		Type:        NotificationTripUnclaimed,
		RecipientID: trip.CompanyID,
		Title:       "Reservation Released",
		Message:     fmt.Sprintf("The reservation on your trip %s → %s was released", trip.Origin, trip.Destination),
		CreatedAt:   time.Now(),
	})
}

// NotifyTripCompleted notifies the reserving driver that the trip was
// marked completed.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, trip *domain.Trip, driverID int64) error {
	return s.send(ctx, Notification{
		ID:          uuid.New().String(),
		Type:        NotificationTripCompleted,
		RecipientID: driverID,
		Title:       "Trip Completed",
		Message:     fmt.Sprintf("Trip %s → %s has been marked as completed", trip.Origin, trip.Destination),
		CreatedAt:   time.Now(),
	})
}

// NotifyTripCancelled notifies the reserving driver that the company
// cancelled the trip.
func (s *NotificationService) NotifyTripCancelled(ctx context.Context, trip *domain.Trip, driverID int64) error {
	return s.send(ctx, Notification{
		ID:          uuid.New().String(),
		Type:        NotificationTripCancelled,
		RecipientID: driverID,
		Title:       "Trip Cancelled",
		Message:     fmt.Sprintf("Trip %s → %s was cancelled by the company", trip.Origin, trip.Destination),
		CreatedAt:   time.Now(),
	})
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%d, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)
	return nil
}
