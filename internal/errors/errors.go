// Package errors defines the error family exposed over HTTP.
package errors

import "net/http"

// DomainError is an error with a stable machine-readable code and the HTTP
// status it maps to.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// WithMessage returns a copy carrying a request-specific message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	out := *e
	out.Message = msg
	return &out
}

// Is matches on Code so copies made by WithMessage still match.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidInput = &DomainError{
		Code:    "INVALID_INPUT",
		Message: "invalid input",
		Status:  http.StatusBadRequest,
	}
	ErrValidationMismatch = &DomainError{
		Code:    "VALIDATION_MISMATCH",
		Message: "total amount does not match the computed total",
		Status:  http.StatusBadRequest,
	}
	ErrUnauthorized = &DomainError{
		Code:    "UNAUTHORIZED",
		Message: "authentication required",
		Status:  http.StatusUnauthorized,
	}
	ErrPaymentDeclined = &DomainError{
		Code:    "PAYMENT_DECLINED",
		Message: "payment was declined",
		Status:  http.StatusPaymentRequired,
	}
	ErrForbidden = &DomainError{
		Code:    "FORBIDDEN",
		Message: "not allowed",
		Status:  http.StatusForbidden,
	}
	ErrNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "not found",
		Status:  http.StatusNotFound,
	}
	ErrBookingConflict = &DomainError{
		Code:    "BOOKING_CONFLICT",
		Message: "time slot is already booked",
		Status:  http.StatusConflict,
	}
	ErrReservationExpired = &DomainError{
		Code:    "RESERVATION_EXPIRED",
		Message: "reservation expired before payment completed",
		Status:  http.StatusConflict,
	}
	ErrInvalidTransition = &DomainError{
		Code:    "INVALID_TRANSITION",
		Message: "reservation cannot change to the requested status",
		Status:  http.StatusConflict,
	}
	ErrProcessor = &DomainError{
		Code:    "PROCESSOR_ERROR",
		Message: "payment processor error",
		Status:  http.StatusBadGateway,
	}
	ErrInternal = &DomainError{
		Code:    "INTERNAL",
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
	}
)
