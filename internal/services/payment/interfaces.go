package payment

import (
	"context"

	"civicpay/internal/models"
	"civicpay/internal/services/fee"
)

// Service defines the payment service interface
type Service interface {
	// Charge authorises the client total against the server-side fee
	// computation and only then charges the processor.
	Charge(ctx context.Context, in ChargeInput) (*Receipt, error)
}

// Dependencies required by the payment service
type FeeAuthorizer interface {
	Authorize(ctx context.Context, merchantID, instrumentID string, baseAmountCents, providedTotalCents int64) (*fee.ResolvedQuote, error)
}

type BookingCompleter interface {
	CheckCompletable(ctx context.Context, reservationID, userID string) (*models.Reservation, error)
	Complete(ctx context.Context, reservationID, userID string) (*models.Reservation, error)
}

type Processor interface {
	Charge(ctx context.Context, c ProcessorCharge) (*ProcessorResult, error)
	Refund(ctx context.Context, ref string) error
}
