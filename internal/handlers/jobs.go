package handlers

import (
	"fmt"
	"time"

	"civicpay/internal/services/booking"
	"civicpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type JobsHandler struct {
	bookings booking.Service
	log      *logrus.Logger
	now      func() time.Time
}

func NewJobsHandler(bookings booking.Service, log *logrus.Logger) *JobsHandler {
	return &JobsHandler{bookings: bookings, log: log, now: time.Now}
}

// SweepAbandonedBookings is triggered by the scheduler. Failures are safe
// to retry on the next run.
func (h *JobsHandler) SweepAbandonedBookings(c *fiber.Ctx) error {
	result, err := h.bookings.SweepAbandoned(c.UserContext(), h.now())
	if err != nil {
		h.log.WithError(err).Error("abandoned booking sweep failed")
		return response.ServerError(c, err.Error())
	}

	return response.Success(c, fiber.Map{
		"expired":  result.ExpiredCount,
		"message":  fmt.Sprintf("Expired %d abandoned booking(s)", result.ExpiredCount),
		"bookings": result.Bookings,
	})
}
