package handlers

import (
	"errors"

	apperrors "civicpay/internal/errors"
	"civicpay/internal/services/booking"
	"civicpay/internal/services/fee"
	"civicpay/internal/services/payment"
	"civicpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// handleError translates a service error into its DomainError response.
// Unexpected errors are logged and reported without internal detail.
func handleError(c *fiber.Ctx, log *logrus.Logger, err error) error {
	var (
		mismatch *fee.MismatchError
		conflict *booking.ConflictError
		domain   *apperrors.DomainError
		extra    = fiber.Map{}
	)

	switch {
	case errors.As(err, &mismatch):
		domain = apperrors.ErrValidationMismatch
		extra["expectedTotal"] = mismatch.ExpectedTotal
		extra["difference"] = mismatch.Difference
	case errors.As(err, &conflict):
		domain = apperrors.ErrBookingConflict
		extra["conflictingReservations"] = conflict.Conflicts
	case errors.Is(err, fee.ErrInvalidInput),
		errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, payment.ErrInvalidInput):
		domain = apperrors.ErrInvalidInput.WithMessage(err.Error())
	case errors.Is(err, booking.ErrNotFound):
		domain = apperrors.ErrNotFound.WithMessage(err.Error())
	case errors.Is(err, booking.ErrForbidden),
		errors.Is(err, payment.ErrForbidden):
		domain = apperrors.ErrForbidden.WithMessage(err.Error())
	case errors.Is(err, booking.ErrReservationExpired):
		domain = apperrors.ErrReservationExpired
	case errors.Is(err, booking.ErrInvalidTransition):
		domain = apperrors.ErrInvalidTransition.WithMessage(err.Error())
	case errors.Is(err, payment.ErrDeclined):
		domain = apperrors.ErrPaymentDeclined.WithMessage(err.Error())
	case errors.Is(err, payment.ErrProcessor):
		log.WithError(err).WithField("path", c.Path()).Error("payment processor error")
		domain = apperrors.ErrProcessor
	case errors.As(err, &domain):
	default:
		log.WithError(err).WithField("path", c.Path()).Error("request failed")
		domain = apperrors.ErrInternal
	}

	extra["code"] = domain.Code
	return response.Error(c, domain.Status, domain.Message, extra)
}

func validationFailed(c *fiber.Ctx, errs map[string]string) error {
	return response.Error(c, fiber.StatusBadRequest, "validation failed", fiber.Map{
		"code":   apperrors.ErrInvalidInput.Code,
		"errors": errs,
	})
}
