package booking

import (
	"time"

	"civicpay/internal/models"
)

// DefaultAbandonAfter is how long a draft holds its slot without payment.
const DefaultAbandonAfter = 30 * time.Minute

// Event routing keys.
const (
	EventReserved  = "booking.reserved"
	EventSubmitted = "booking.submitted"
	EventCancelled = "booking.cancelled"
	EventExpired   = "booking.expired"
)

type Config struct {
	AbandonAfter time.Duration
}

// ConflictQuery describes a candidate slot. EndTime may be empty, which
// checks the single instant at StartTime.
type ConflictQuery struct {
	ResourceID string `json:"resourceId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	ExcludeID  string `json:"excludeReservationId"`
}

type ConflictResult struct {
	HasConflict bool                 `json:"hasConflict"`
	Conflicting []models.Reservation `json:"conflictingReservations"`
}

// TimeSlot is a taken slot as shown to users choosing a time.
type TimeSlot struct {
	ReservationID string                   `json:"reservationId"`
	StartTime     string                   `json:"startTime"`
	EndTime       string                   `json:"endTime,omitempty"`
	Status        models.ReservationStatus `json:"status"`
}

type ReserveInput struct {
	ResourceID  string `json:"resourceId"`
	UserID      string `json:"-"`
	ServiceType string `json:"serviceType"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

type SweepResult struct {
	ExpiredCount int                  `json:"expired"`
	ExpiredIDs   []string             `json:"expiredIds"`
	Bookings     []models.Reservation `json:"bookings"`
}

type reservationEvent struct {
	ReservationID string                   `json:"reservation_id"`
	ResourceID    string                   `json:"resource_id"`
	UserID        string                   `json:"user_id"`
	Date          string                   `json:"date,omitempty"`
	StartTime     string                   `json:"start_time,omitempty"`
	EndTime       string                   `json:"end_time,omitempty"`
	Status        models.ReservationStatus `json:"status"`
	At            time.Time                `json:"at"`
}

func eventOf(r models.Reservation, at time.Time) reservationEvent {
	e := reservationEvent{
		ReservationID: r.ID,
		ResourceID:    r.ResourceID,
		UserID:        r.UserID,
		Status:        r.Status,
		At:            at,
	}
	if r.Date != nil {
		e.Date = *r.Date
	}
	if r.StartTime != nil {
		e.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		e.EndTime = *r.EndTime
	}
	return e
}
