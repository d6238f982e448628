package handlers

import (
	"civicpay/internal/models"
	"civicpay/internal/services/payment"
	"civicpay/internal/utils"
	"civicpay/internal/utils/response"
	"civicpay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// IdempotencyKeyHeader is forwarded to the processor so a retried request
// never charges twice.
const IdempotencyKeyHeader = "Idempotency-Key"

type PaymentHandler struct {
	payments payment.Service
	log      *logrus.Logger
}

func NewPaymentHandler(payments payment.Service, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

func (h *PaymentHandler) ProcessPayment(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req models.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	v := validation.New()
	v.Payment(&req)
	if !v.Valid() {
		return validationFailed(c, v.Errors)
	}

	receipt, err := h.payments.Charge(c.UserContext(), payment.ChargeInput{
		MerchantID:       req.MerchantID,
		UserID:           claims.UserID,
		InstrumentID:     req.InstrumentID,
		ReservationID:    req.ReservationID,
		BaseAmountCents:  req.BaseAmount,
		TotalAmountCents: req.TotalAmount,
		IdempotencyKey:   c.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return handleError(c, h.log, err)
	}

	body := fiber.Map{"payment": receipt.Payment}
	if receipt.Reservation != nil {
		body["reservation"] = receipt.Reservation
	}
	if receipt.Replayed {
		body["replayed"] = true
		return response.Success(c, body)
	}
	return response.Created(c, body)
}
