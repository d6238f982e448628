package validation

import (
	"civicpay/internal/models"
)

// FeeQuote validates a quote request
func (v *Validator) FeeQuote(req *models.FeeQuoteRequest) {
	v.PositiveCents("baseAmount", req.BaseAmount)

	if req.MerchantID != "" || req.InstrumentID != "" {
		v.Required("merchantId", req.MerchantID)
		v.Required("instrumentId", req.InstrumentID)
		return
	}

	v.Check(req.IsCard != nil, "isCard", "is required when no merchant is given")
	if s := req.Schedule; s != nil {
		v.NonNegative("schedule.cardBasisPoints", s.CardBasisPoints)
		v.NonNegative("schedule.cardFixedFeeCents", s.CardFixedFeeCents)
		v.NonNegative("schedule.achBasisPoints", s.ACHBasisPoints)
		v.NonNegative("schedule.achFixedFeeCents", s.ACHFixedFeeCents)
		v.NonNegative("schedule.achBasisPointsFeeLimitCents", s.ACHBasisPointsFeeLimitCents)
	}
}

// FeeValidate validates a total-amount check
func (v *Validator) FeeValidate(req *models.FeeValidateRequest) {
	v.PositiveCents("baseAmount", req.BaseAmount)
	v.Check(req.TotalAmount >= 0, "totalAmount", "must not be negative")
	v.Required("merchantId", req.MerchantID)
	v.Required("instrumentId", req.InstrumentID)
}

// Payment validates payment requests
func (v *Validator) Payment(req *models.PaymentRequest) {
	v.PositiveCents("baseAmount", req.BaseAmount)
	v.Check(req.TotalAmount > 0, "totalAmount", "must be a positive number of cents")
	v.Required("merchantId", req.MerchantID)
	v.MaxLength("merchantId", req.MerchantID, MaxIDLength)
	v.Required("instrumentId", req.InstrumentID)
	v.MaxLength("instrumentId", req.InstrumentID, MaxIDLength)
	if req.ReservationID != nil {
		v.Required("reservationId", *req.ReservationID)
	}
}

// BookingCheck validates a conflict check. The end time is optional.
func (v *Validator) BookingCheck(req *models.BookingCheckRequest) {
	v.Required("resourceId", req.ResourceID)
	v.Date("date", req.Date)
	v.Clock("startTime", req.StartTime)
	if req.EndTime != "" {
		v.Clock("endTime", req.EndTime)
	}
}

// Booking validates a reservation request
func (v *Validator) Booking(req *models.BookingRequest) {
	v.Required("resourceId", req.ResourceID)
	v.MaxLength("resourceId", req.ResourceID, MaxIDLength)
	v.MaxLength("serviceType", req.ServiceType, MaxServiceTypeLength)
	v.Date("date", req.Date)
	v.Clock("startTime", req.StartTime)
	v.Clock("endTime", req.EndTime)
}
