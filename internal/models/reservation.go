package models

import "time"

type ReservationStatus string

const (
	StatusDraft       ReservationStatus = "draft"
	StatusSubmitted   ReservationStatus = "submitted"
	StatusUnderReview ReservationStatus = "under_review"
	StatusApproved    ReservationStatus = "approved"
	StatusIssued      ReservationStatus = "issued"
	StatusDenied      ReservationStatus = "denied"
	StatusRejected    ReservationStatus = "rejected"
	StatusWithdrawn   ReservationStatus = "withdrawn"
	StatusCancelled   ReservationStatus = "cancelled"
	StatusExpired     ReservationStatus = "expired"
)

// ActiveStatuses always hold their slot. A draft holds its slot only while
// it is younger than the abandonment window.
var ActiveStatuses = []ReservationStatus{
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusIssued,
}

// TerminalStatuses never block a slot and accept no further transition.
var TerminalStatuses = []ReservationStatus{
	StatusDenied,
	StatusRejected,
	StatusWithdrawn,
	StatusCancelled,
	StatusExpired,
}

func (s ReservationStatus) IsTerminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

func (s ReservationStatus) Valid() bool {
	return s == StatusDraft || s.IsTerminal() || s.isActive()
}

func (s ReservationStatus) isActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// NonTerminalStatuses lists every status a reservation can still leave.
func NonTerminalStatuses() []ReservationStatus {
	return append([]ReservationStatus{StatusDraft}, ActiveStatuses...)
}

// Reservation is a municipal service application. Applications for a
// time-slotted resource carry Date/StartTime/EndTime; plain applications
// leave them nil. Dates are YYYY-MM-DD and times zero-padded HH:MM:SS so
// that lexical comparison orders them correctly.
type Reservation struct {
	ID          string            `gorm:"primaryKey;type:uuid" json:"id"`
	ResourceID  string            `gorm:"column:tile_id;not null;index:idx_msa_tile_date" json:"resourceId"`
	UserID      string            `gorm:"not null;index" json:"userId"`
	ServiceType string            `gorm:"not null;default:'facility_booking'" json:"serviceType"`
	Date        *string           `gorm:"type:varchar(10);index:idx_msa_tile_date" json:"date"`
	StartTime   *string           `gorm:"type:varchar(8)" json:"startTime"`
	EndTime     *string           `gorm:"type:varchar(8)" json:"endTime"`
	Status      ReservationStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	CreatedAt   time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (Reservation) TableName() string {
	return "municipal_service_applications"
}
