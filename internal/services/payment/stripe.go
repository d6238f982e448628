package payment

import (
	"context"
	"errors"
	"fmt"

	"civicpay/internal/models"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
	"github.com/stripe/stripe-go/v72/refund"
)

// StripeProcessor charges tokenised instruments with confirmed
// PaymentIntents. The instrument id is the Stripe payment method id.
type StripeProcessor struct {
	currency string
}

func NewStripeProcessor(secretKey, currency string) *StripeProcessor {
	stripe.Key = secretKey
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeProcessor{currency: currency}
}

func (p *StripeProcessor) Charge(ctx context.Context, c ProcessorCharge) (*ProcessorResult, error) {
	methodType := "us_bank_account"
	if c.IsCard {
		methodType = "card"
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(c.AmountCents),
		Currency:           stripe.String(p.currency),
		PaymentMethod:      stripe.String(c.PaymentMethodID),
		PaymentMethodTypes: stripe.StringSlice([]string{methodType}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx
	for k, v := range c.Metadata {
		params.AddMetadata(k, v)
	}
	if c.IdempotencyKey != "" {
		params.SetIdempotencyKey(c.IdempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, fmt.Errorf("%w: %s", ErrDeclined, stripeErr.Msg)
		}
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &ProcessorResult{Ref: pi.ID, Status: paymentStatus(pi.Status)}, nil
}

func (p *StripeProcessor) Refund(ctx context.Context, ref string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(ref)}
	params.Context = ctx
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("refund payment intent %s: %w", ref, err)
	}
	return nil
}

func paymentStatus(s stripe.PaymentIntentStatus) string {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return models.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled, stripe.PaymentIntentStatusRequiresPaymentMethod:
		return models.PaymentStatusFailed
	default:
		// ACH debits settle asynchronously.
		return models.PaymentStatusProcessing
	}
}
