package handlers

import (
	"civicpay/internal/models"
	"civicpay/internal/services/fee"
	"civicpay/internal/utils/response"
	"civicpay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type FeeHandler struct {
	fees fee.Service
	log  *logrus.Logger
}

func NewFeeHandler(fees fee.Service, log *logrus.Logger) *FeeHandler {
	return &FeeHandler{fees: fees, log: log}
}

// Quote returns the fee breakdown shown to the payer. With a merchant and
// instrument it uses the stored schedule, otherwise the default schedule
// with any supplied overrides.
func (h *FeeHandler) Quote(c *fiber.Ctx) error {
	var req models.FeeQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	v := validation.New()
	v.FeeQuote(&req)
	if !v.Valid() {
		return validationFailed(c, v.Errors)
	}

	var (
		quote    fee.Quote
		fallback bool
	)
	if req.MerchantID != "" {
		resolved, err := h.fees.Quote(c.UserContext(), req.MerchantID, req.InstrumentID, req.BaseAmount)
		if err != nil {
			return handleError(c, h.log, err)
		}
		quote, fallback = resolved.Quote, resolved.Fallback
	} else {
		schedule := fee.DefaultSchedule()
		if req.Schedule != nil {
			schedule = overridesOf(req.Schedule).Apply(schedule)
		}
		var err error
		quote, err = fee.CalculateServiceFee(fee.Params{
			BaseAmountCents: req.BaseAmount,
			IsCard:          *req.IsCard,
			Schedule:        &schedule,
		})
		if err != nil {
			return handleError(c, h.log, err)
		}
	}

	return response.Success(c, fiber.Map{
		"baseAmount":  quote.BaseAmountCents,
		"serviceFee":  quote.TotalServiceFeeCents,
		"totalAmount": quote.TotalChargeCents,
		"isCard":      quote.IsCard,
		"basisPoints": quote.BasisPoints,
		"breakdown": fiber.Map{
			"percentageFee": quote.ServiceFeePercentageCents,
			"fixedFee":      quote.ServiceFeeFixedCents,
		},
		"fallback": fallback,
	})
}

// Validate checks a client total against the authoritative computation.
// A mismatch is a normal result here, not an error.
func (h *FeeHandler) Validate(c *fiber.Ctx) error {
	var req models.FeeValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	v := validation.New()
	v.FeeValidate(&req)
	if !v.Valid() {
		return validationFailed(c, v.Errors)
	}

	result, err := h.fees.Validate(c.UserContext(), req.MerchantID, req.InstrumentID, req.BaseAmount, req.TotalAmount)
	if err != nil {
		return handleError(c, h.log, err)
	}

	return response.Success(c, fiber.Map{
		"isValid":       result.IsValid,
		"expectedTotal": result.ExpectedTotal,
		"difference":    result.Difference,
	})
}

func overridesOf(in *models.FeeScheduleInput) fee.Overrides {
	return fee.Overrides{
		CardBasisPoints:             in.CardBasisPoints,
		CardFixedFeeCents:           in.CardFixedFeeCents,
		ACHBasisPoints:              in.ACHBasisPoints,
		ACHFixedFeeCents:            in.ACHFixedFeeCents,
		ACHBasisPointsFeeLimitCents: in.ACHBasisPointsFeeLimitCents,
	}
}
