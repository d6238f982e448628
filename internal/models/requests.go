package models

// FeeScheduleInput overrides individual rates of the default schedule for a
// display quote. Nil fields keep the default.
type FeeScheduleInput struct {
	CardBasisPoints             *int64 `json:"cardBasisPoints"`
	CardFixedFeeCents           *int64 `json:"cardFixedFeeCents"`
	ACHBasisPoints              *int64 `json:"achBasisPoints"`
	ACHFixedFeeCents            *int64 `json:"achFixedFeeCents"`
	ACHBasisPointsFeeLimitCents *int64 `json:"achBasisPointsFeeLimitCents"`
}

// FeeQuoteRequest asks for a quote either from explicit rates (IsCard and
// optional Schedule) or from a merchant's stored schedule (MerchantID and
// InstrumentID).
type FeeQuoteRequest struct {
	BaseAmount   int64             `json:"baseAmount"`
	IsCard       *bool             `json:"isCard"`
	Schedule     *FeeScheduleInput `json:"schedule"`
	MerchantID   string            `json:"merchantId"`
	InstrumentID string            `json:"instrumentId"`
}

type FeeValidateRequest struct {
	BaseAmount   int64  `json:"baseAmount"`
	TotalAmount  int64  `json:"totalAmount"`
	MerchantID   string `json:"merchantId"`
	InstrumentID string `json:"instrumentId"`
}

type PaymentRequest struct {
	MerchantID    string  `json:"merchantId"`
	InstrumentID  string  `json:"instrumentId"`
	ReservationID *string `json:"reservationId"`
	BaseAmount    int64   `json:"baseAmount"`
	TotalAmount   int64   `json:"totalAmount"`
}

type BookingCheckRequest struct {
	ResourceID           string `json:"resourceId"`
	Date                 string `json:"date"`
	StartTime            string `json:"startTime"`
	EndTime              string `json:"endTime"`
	ExcludeReservationID string `json:"excludeReservationId"`
}

type BookingRequest struct {
	ResourceID  string `json:"resourceId"`
	ServiceType string `json:"serviceType"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}
