package payment

import "civicpay/internal/models"

// ChargeInput is a client's request to pay. TotalAmountCents is what the
// client displayed; it is checked, never charged as-is.
type ChargeInput struct {
	MerchantID       string  `json:"merchantId"`
	UserID           string  `json:"-"`
	InstrumentID     string  `json:"instrumentId"`
	ReservationID    *string `json:"reservationId,omitempty"`
	BaseAmountCents  int64   `json:"baseAmount"`
	TotalAmountCents int64   `json:"totalAmount"`
	IdempotencyKey   string  `json:"-"`
}

// ProcessorCharge is what is sent to the processor.
type ProcessorCharge struct {
	AmountCents     int64
	PaymentMethodID string
	IsCard          bool
	IdempotencyKey  string
	Metadata        map[string]string
}

type ProcessorResult struct {
	Ref    string
	Status string
}

// Receipt is returned to the payer. Replayed is set when the request
// repeated an idempotency key and the stored payment is returned instead
// of charging again.
type Receipt struct {
	Payment     *models.Payment     `json:"payment"`
	Reservation *models.Reservation `json:"reservation,omitempty"`
	Replayed    bool                `json:"replayed"`
}
