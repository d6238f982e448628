package fee

import (
	"context"
	"fmt"

	"civicpay/internal/repositories"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("civicpay/fee")

// Service resolves the authoritative fee schedule for a merchant and
// payment instrument and quotes or authorises against it.
type Service interface {
	Quote(ctx context.Context, merchantID, instrumentID string, baseAmountCents int64) (*ResolvedQuote, error)
	Validate(ctx context.Context, merchantID, instrumentID string, baseAmountCents, providedTotalCents int64) (*Validation, error)
	Authorize(ctx context.Context, merchantID, instrumentID string, baseAmountCents, providedTotalCents int64) (*ResolvedQuote, error)
}

type service struct {
	profiles    repositories.FeeProfileRepository
	instruments repositories.PaymentInstrumentRepository
	log         *logrus.Logger
}

func NewService(
	profiles repositories.FeeProfileRepository,
	instruments repositories.PaymentInstrumentRepository,
	log *logrus.Logger,
) Service {
	if profiles == nil {
		panic("fee profile repository is required")
	}
	if instruments == nil {
		panic("payment instrument repository is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &service{profiles: profiles, instruments: instruments, log: log}
}

func (s *service) Quote(ctx context.Context, merchantID, instrumentID string, baseAmountCents int64) (*ResolvedQuote, error) {
	schedule, isCard, fallback := s.resolve(ctx, merchantID, instrumentID)
	return s.quote(merchantID, instrumentID, baseAmountCents, schedule, isCard, fallback)
}

func (s *service) quote(merchantID, instrumentID string, baseAmountCents int64, schedule Schedule, isCard, fallback bool) (*ResolvedQuote, error) {
	quote, err := CalculateServiceFee(Params{
		BaseAmountCents: baseAmountCents,
		IsCard:          isCard,
		Schedule:        &schedule,
	})
	if err != nil {
		return nil, err
	}
	return &ResolvedQuote{
		Quote:        quote,
		MerchantID:   merchantID,
		InstrumentID: instrumentID,
		Fallback:     fallback,
	}, nil
}

// Validate reports whether a client total matches the authoritative total
// without rejecting it. Used for pre-submit checks.
func (s *service) Validate(ctx context.Context, merchantID, instrumentID string, baseAmountCents, providedTotalCents int64) (*Validation, error) {
	schedule, isCard, _ := s.resolve(ctx, merchantID, instrumentID)
	v, err := ValidateTotalAmount(baseAmountCents, providedTotalCents, isCard, &schedule)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Authorize is the gate in front of every charge. It never trusts a
// client-computed fee: the total is recomputed and compared.
func (s *service) Authorize(ctx context.Context, merchantID, instrumentID string, baseAmountCents, providedTotalCents int64) (*ResolvedQuote, error) {
	ctx, span := tracer.Start(ctx, "fee.Authorize")
	defer span.End()
	span.SetAttributes(
		attribute.String("merchant.id", merchantID),
		attribute.Int64("amount.base_cents", baseAmountCents),
		attribute.Int64("amount.provided_total_cents", providedTotalCents),
	)

	schedule, isCard, fallback := s.resolve(ctx, merchantID, instrumentID)
	span.SetAttributes(attribute.Bool("fee.fallback", fallback), attribute.Bool("fee.card", isCard))

	quote, err := s.quote(merchantID, instrumentID, baseAmountCents, schedule, isCard, fallback)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	validation, err := ValidateTotalAmount(baseAmountCents, providedTotalCents, isCard, &schedule)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !validation.IsValid {
		s.log.WithFields(logrus.Fields{
			"merchant_id":    merchantID,
			"instrument_id":  instrumentID,
			"base_amount":    baseAmountCents,
			"provided_total": providedTotalCents,
			"expected_total": validation.ExpectedTotal,
			"difference":     validation.Difference,
		}).Warn("rejected charge: total does not match computed total")
		err := &MismatchError{
			ProvidedTotal: providedTotalCents,
			ExpectedTotal: validation.ExpectedTotal,
			Difference:    validation.Difference,
		}
		span.RecordError(err)
		return nil, err
	}
	return quote, nil
}

// resolve returns the schedule and payment-method class for a charge. Any
// lookup failure falls back to the default schedule on the card path, so
// the charge is not blocked; the fallback is logged because it may differ
// from the merchant's negotiated rate.
func (s *service) resolve(ctx context.Context, merchantID, instrumentID string) (Schedule, bool, bool) {
	fields := logrus.Fields{"merchant_id": merchantID, "instrument_id": instrumentID}

	profile, err := s.profiles.GetByMerchantID(ctx, merchantID)
	if err != nil {
		s.log.WithFields(fields).WithError(err).Warn("fee profile lookup failed, using default card schedule")
		return DefaultSchedule(), true, true
	}

	instrument, err := s.instruments.GetByID(ctx, instrumentID)
	if err != nil {
		s.log.WithFields(fields).WithError(err).Warn("payment instrument lookup failed, using default card schedule")
		return DefaultSchedule(), true, true
	}

	schedule := ScheduleFromProfile(profile)
	if err := schedule.Validate(); err != nil {
		s.log.WithFields(fields).WithError(err).Error("stored fee profile is invalid, using default card schedule")
		return DefaultSchedule(), true, true
	}
	return schedule, instrument.IsCard(), false
}

// String renders a quote for logs and the CLI.
func (q Quote) String() string {
	return fmt.Sprintf("base=%d fee=%d (pct=%d fixed=%d @%dbp) total=%d card=%t",
		q.BaseAmountCents, q.TotalServiceFeeCents, q.ServiceFeePercentageCents,
		q.ServiceFeeFixedCents, q.BasisPoints, q.TotalChargeCents, q.IsCard)
}
