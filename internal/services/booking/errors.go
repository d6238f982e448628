package booking

import (
	"errors"
	"fmt"

	"civicpay/internal/models"
)

var (
	ErrInvalidInput       = errors.New("invalid booking input")
	ErrConflict           = errors.New("time slot is already booked")
	ErrNotFound           = errors.New("reservation not found")
	ErrForbidden          = errors.New("reservation belongs to another user")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrReservationExpired = errors.New("reservation expired before completion")
)

// ConflictError lists the reservations that block a requested slot.
type ConflictError struct {
	Conflicts []models.Reservation
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %d conflicting reservation(s)", ErrConflict, len(e.Conflicts))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
