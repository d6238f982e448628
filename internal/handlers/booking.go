package handlers

import (
	"civicpay/internal/models"
	"civicpay/internal/services/booking"
	"civicpay/internal/utils"
	"civicpay/internal/utils/response"
	"civicpay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type BookingHandler struct {
	bookings booking.Service
	log      *logrus.Logger
}

func NewBookingHandler(bookings booking.Service, log *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, log: log}
}

// Slots lists the taken slots for a resource on a date.
func (h *BookingHandler) Slots(c *fiber.Ctx) error {
	resourceID := c.Query("resourceId")
	date := c.Query("date")

	v := validation.New()
	v.Required("resourceId", resourceID)
	v.Date("date", date)
	if !v.Valid() {
		return validationFailed(c, v.Errors)
	}

	slots, err := h.bookings.BookedTimeSlots(c.UserContext(), resourceID, date)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, fiber.Map{"slots": slots})
}

func (h *BookingHandler) Check(c *fiber.Ctx) error {
	var req models.BookingCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	v := validation.New()
	v.BookingCheck(&req)
	if !v.Valid() {
		return validationFailed(c, v.Errors)
	}

	result, err := h.bookings.CheckConflict(c.UserContext(), booking.ConflictQuery{
		ResourceID: req.ResourceID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		ExcludeID:  req.ExcludeReservationID,
	})
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, fiber.Map{
		"hasConflict":             result.HasConflict,
		"conflictingReservations": result.Conflicting,
	})
}

// Create reserves a slot as a draft. The payer has until the abandonment
// window closes to complete payment.
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req models.BookingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	v := validation.New()
	v.Booking(&req)
	if !v.Valid() {
		return validationFailed(c, v.Errors)
	}

	res, err := h.bookings.Reserve(c.UserContext(), booking.ReserveInput{
		ResourceID:  req.ResourceID,
		UserID:      claims.UserID,
		ServiceType: req.ServiceType,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Created(c, fiber.Map{"reservation": res})
}

func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	res, err := h.bookings.Cancel(c.UserContext(), c.Params("id"), claims.UserID)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, fiber.Map{"reservation": res})
}
