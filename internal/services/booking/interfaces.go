package booking

import (
	"context"
	"time"

	"civicpay/internal/models"
)

// Service defines the booking lifecycle.
type Service interface {
	// Read-only overlap check against the slots currently held.
	CheckConflict(ctx context.Context, q ConflictQuery) (*ConflictResult, error)
	BookedTimeSlots(ctx context.Context, resourceID, date string) ([]TimeSlot, error)

	// Lifecycle
	Reserve(ctx context.Context, in ReserveInput) (*models.Reservation, error)
	CheckCompletable(ctx context.Context, reservationID, userID string) (*models.Reservation, error)
	Complete(ctx context.Context, reservationID, userID string) (*models.Reservation, error)
	Cancel(ctx context.Context, reservationID, userID string) (*models.Reservation, error)

	// SweepAbandoned expires drafts older than the abandonment window as of now.
	SweepAbandoned(ctx context.Context, now time.Time) (*SweepResult, error)
}

// EventPublisher delivers lifecycle events to the message broker.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}
