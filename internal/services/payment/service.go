package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicpay/internal/models"
	"civicpay/internal/repositories"

	"github.com/sirupsen/logrus"
)

type service struct {
	fees        FeeAuthorizer
	bookings    BookingCompleter
	instruments repositories.PaymentInstrumentRepository
	processor   Processor
	payments    repositories.PaymentRepository
	log         *logrus.Logger
	now         func() time.Time
}

// NewService creates a new payment service
func NewService(
	fees FeeAuthorizer,
	bookings BookingCompleter,
	instruments repositories.PaymentInstrumentRepository,
	processor Processor,
	payments repositories.PaymentRepository,
	log *logrus.Logger,
) Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &service{
		fees:        fees,
		bookings:    bookings,
		instruments: instruments,
		processor:   processor,
		payments:    payments,
		log:         log,
		now:         time.Now,
	}
}

func (s *service) Charge(ctx context.Context, in ChargeInput) (*Receipt, error) {
	if in.BaseAmountCents <= 0 {
		return nil, fmt.Errorf("%w: base amount must be a positive number of cents", ErrInvalidInput)
	}
	if in.MerchantID == "" || in.InstrumentID == "" || in.UserID == "" {
		return nil, fmt.Errorf("%w: merchant, instrument and user are required", ErrInvalidInput)
	}

	if in.IdempotencyKey != "" {
		existing, err := s.payments.GetByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		switch {
		case err == nil:
			return s.replay(existing, in)
		case !errors.Is(err, repositories.ErrNotFound):
			return nil, err
		}
	}

	if err := s.checkInstrument(ctx, in); err != nil {
		return nil, err
	}
	if in.ReservationID != nil {
		if _, err := s.bookings.CheckCompletable(ctx, *in.ReservationID, in.UserID); err != nil {
			return nil, err
		}
	}

	quote, err := s.fees.Authorize(ctx, in.MerchantID, in.InstrumentID, in.BaseAmountCents, in.TotalAmountCents)
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"merchant_id":   in.MerchantID,
		"user_id":       in.UserID,
		"instrument_id": in.InstrumentID,
		"total":         quote.TotalChargeCents,
	}
	if quote.Fallback {
		s.log.WithFields(fields).Warn("charging with default fee schedule")
	}

	metadata := map[string]string{
		"merchant_id": in.MerchantID,
		"user_id":     in.UserID,
		"service_fee": fmt.Sprintf("%d", quote.TotalServiceFeeCents),
	}
	if in.ReservationID != nil {
		metadata["reservation_id"] = *in.ReservationID
	}

	result, err := s.processor.Charge(ctx, ProcessorCharge{
		AmountCents:     quote.TotalChargeCents,
		PaymentMethodID: in.InstrumentID,
		IsCard:          quote.IsCard,
		IdempotencyKey:  in.IdempotencyKey,
		Metadata:        metadata,
	})
	if err != nil {
		s.log.WithFields(fields).WithError(err).Error("processor charge failed")
		return nil, fmt.Errorf("%w: %w", ErrProcessor, err)
	}
	fields["processor_ref"] = result.Ref

	// A concurrent request with the same key gets the same charge back from
	// the processor; whichever request recorded it first owns it.
	if existing, err := s.payments.GetByProcessorRef(ctx, result.Ref); err == nil {
		return s.replay(existing, in)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	payment := &models.Payment{
		MerchantID:       in.MerchantID,
		UserID:           in.UserID,
		InstrumentID:     in.InstrumentID,
		ReservationID:    in.ReservationID,
		BaseAmountCents:  quote.BaseAmountCents,
		ServiceFeeCents:  quote.TotalServiceFeeCents,
		TotalChargeCents: quote.TotalChargeCents,
		IsCard:           quote.IsCard,
		BasisPoints:      quote.BasisPoints,
		FeeFallback:      quote.Fallback,
		ProcessorRef:     result.Ref,
		Status:           result.Status,
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		payment.IdempotencyKey = &key
	}

	// Recorded before the reservation is touched, so a retry always finds
	// the charge and never completes or refunds it a second time.
	if err := s.payments.Create(ctx, payment); err != nil {
		if existing, findErr := s.payments.GetByProcessorRef(ctx, result.Ref); findErr == nil {
			return s.replay(existing, in)
		}
		s.log.WithFields(fields).WithError(err).
			Error("charge succeeded but payment record was not saved")
		return nil, fmt.Errorf("save payment: %w", err)
	}

	receipt := &Receipt{Payment: payment}
	if in.ReservationID != nil {
		reservation, err := s.bookings.Complete(ctx, *in.ReservationID, in.UserID)
		if err != nil {
			s.refund(ctx, payment, fields, err)
			return nil, fmt.Errorf("complete reservation: %w", err)
		}
		receipt.Reservation = reservation
	}

	s.log.WithFields(fields).WithField("payment_id", payment.ID).Info("payment captured")
	return receipt, nil
}

// checkInstrument refuses instruments that are unknown or belong to
// someone else before anything is charged.
func (s *service) checkInstrument(ctx context.Context, in ChargeInput) error {
	instrument, err := s.instruments.GetByID(ctx, in.InstrumentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: unknown payment instrument", ErrInvalidInput)
		}
		return fmt.Errorf("load payment instrument: %w", err)
	}
	if instrument.UserID != in.UserID {
		s.log.WithFields(logrus.Fields{
			"user_id":       in.UserID,
			"instrument_id": in.InstrumentID,
		}).Warn("rejected charge on another user's instrument")
		return ErrForbidden
	}
	return nil
}

// replay returns the payment already recorded for a repeated request. A key
// reused for a different payment is rejected.
func (s *service) replay(existing *models.Payment, in ChargeInput) (*Receipt, error) {
	if existing.MerchantID != in.MerchantID ||
		existing.InstrumentID != in.InstrumentID ||
		existing.BaseAmountCents != in.BaseAmountCents ||
		!sameReservation(existing.ReservationID, in.ReservationID) {
		return nil, fmt.Errorf("%w: idempotency key was already used for a different payment", ErrInvalidInput)
	}

	s.log.WithFields(logrus.Fields{
		"payment_id":    existing.ID,
		"processor_ref": existing.ProcessorRef,
		"user_id":       in.UserID,
	}).Info("replayed payment request")
	return &Receipt{Payment: existing, Replayed: true}, nil
}

func (s *service) refund(ctx context.Context, payment *models.Payment, fields logrus.Fields, cause error) {
	log := s.log.WithFields(fields).WithField("payment_id", payment.ID)
	log.WithError(cause).Warn("reservation could not be submitted, refunding charge")

	if err := s.processor.Refund(ctx, payment.ProcessorRef); err != nil {
		log.WithError(err).Error("refund failed, manual reconciliation required")
		return
	}
	payment.Status = models.PaymentStatusRefunded
	if err := s.payments.UpdateStatus(ctx, payment.ID, models.PaymentStatusRefunded, s.now()); err != nil {
		log.WithError(err).Error("refund issued but payment status was not updated")
	}
}

func sameReservation(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
