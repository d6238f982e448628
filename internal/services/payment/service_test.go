package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"civicpay/internal/models"
	"civicpay/internal/repositories"
	"civicpay/internal/services/booking"
	"civicpay/internal/services/fee"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFees struct {
	mock.Mock
}

func (m *MockFees) Authorize(ctx context.Context, merchantID, instrumentID string, base, total int64) (*fee.ResolvedQuote, error) {
	args := m.Called(ctx, merchantID, instrumentID, base, total)
	if q, ok := args.Get(0).(*fee.ResolvedQuote); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockBookings struct {
	mock.Mock
}

func (m *MockBookings) CheckCompletable(ctx context.Context, id, userID string) (*models.Reservation, error) {
	args := m.Called(ctx, id, userID)
	if r, ok := args.Get(0).(*models.Reservation); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookings) Complete(ctx context.Context, id, userID string) (*models.Reservation, error) {
	args := m.Called(ctx, id, userID)
	if r, ok := args.Get(0).(*models.Reservation); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockInstruments struct {
	mock.Mock
}

func (m *MockInstruments) GetByID(ctx context.Context, id string) (*models.PaymentInstrument, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*models.PaymentInstrument); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Charge(ctx context.Context, c ProcessorCharge) (*ProcessorResult, error) {
	args := m.Called(ctx, c)
	if r, ok := args.Get(0).(*ProcessorResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProcessor) Refund(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) Create(ctx context.Context, p *models.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPayments) GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Payment, error) {
	args := m.Called(ctx, userID, key)
	if p, ok := args.Get(0).(*models.Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPayments) GetByProcessorRef(ctx context.Context, ref string) (*models.Payment, error) {
	args := m.Called(ctx, ref)
	if p, ok := args.Get(0).(*models.Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPayments) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	return m.Called(ctx, id, status, at).Error(0)
}

func cardQuote() *fee.ResolvedQuote {
	return &fee.ResolvedQuote{
		Quote: fee.Quote{
			BaseAmountCents:           10000,
			ServiceFeePercentageCents: 300,
			ServiceFeeFixedCents:      50,
			TotalServiceFeeCents:      350,
			TotalChargeCents:          10350,
			BasisPoints:               300,
			IsCard:                    true,
		},
		MerchantID:   "m-1",
		InstrumentID: "pm_1",
	}
}

func ownCard() *models.PaymentInstrument {
	return &models.PaymentInstrument{ID: "pm_1", UserID: "u-1", Type: models.InstrumentTypeCard}
}

func TestService_Charge(t *testing.T) {
	reservationID := "res-1"

	tests := []struct {
		name       string
		input      ChargeInput
		setupMock  func(*MockFees, *MockBookings, *MockInstruments, *MockProcessor, *MockPayments)
		wantErr    error
		wantStatus string
	}{
		{
			name:  "charges the authoritative total",
			input: ChargeInput{MerchantID: "m-1", UserID: "u-1", InstrumentID: "pm_1", BaseAmountCents: 10000, TotalAmountCents: 10351, IdempotencyKey: "idem-1"},
			setupMock: func(f *MockFees, b *MockBookings, i *MockInstruments, p *MockProcessor, r *MockPayments) {
				r.On("GetByIdempotencyKey", mock.Anything, "u-1", "idem-1").Return(nil, repositories.ErrNotFound)
				i.On("GetByID", mock.Anything, "pm_1").Return(ownCard(), nil)
				f.On("Authorize", mock.Anything, "m-1", "pm_1", int64(10000), int64(10351)).Return(cardQuote(), nil)
				p.On("Charge", mock.Anything, mock.MatchedBy(func(c ProcessorCharge) bool {
					return c.AmountCents == 10350 && c.IsCard && c.IdempotencyKey == "idem-1" && c.PaymentMethodID == "pm_1"
				})).Return(&ProcessorResult{Ref: "pi_1", Status: models.PaymentStatusSucceeded}, nil)
				r.On("GetByProcessorRef", mock.Anything, "pi_1").Return(nil, repositories.ErrNotFound)
				r.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
					return p.TotalChargeCents == 10350 && p.ServiceFeeCents == 350 && p.ProcessorRef == "pi_1" &&
						p.IdempotencyKey != nil && *p.IdempotencyKey == "idem-1"
				})).Return(nil)
			},
			wantStatus: models.PaymentStatusSucceeded,
		},
		{
			name:  "mismatch never reaches the processor",
			input: ChargeInput{MerchantID: "m-1", UserID: "u-1", InstrumentID: "pm_1", BaseAmountCents: 10000, TotalAmountCents: 10000},
			setupMock: func(f *MockFees, b *MockBookings, i *MockInstruments, p *MockProcessor, r *MockPayments) {
				i.On("GetByID", mock.Anything, "pm_1").Return(ownCard(), nil)
				f.On("Authorize", mock.Anything, "m-1", "pm_1", int64(10000), int64(10000)).
					Return(nil, &fee.MismatchError{ProvidedTotal: 10000, ExpectedTotal: 10350, Difference: 350})
			},
			wantErr: fee.ErrValidationMismatch,
		},
		{
			name:    "zero base is rejected",
			input:   ChargeInput{MerchantID: "m-1", UserID: "u-1", InstrumentID: "pm_1", BaseAmountCents: 0, TotalAmountCents: 50},
			wantErr: ErrInvalidInput,
		},
		{
			name:  "another user's instrument is refused",
			input: ChargeInput{MerchantID: "m-1", UserID: "attacker", InstrumentID: "pm_1", BaseAmountCents: 10000, TotalAmountCents: 10350},
			setupMock: func(f *MockFees, b *MockBookings, i *MockInstruments, p *MockProcessor, r *MockPayments) {
				i.On("GetByID", mock.Anything, "pm_1").Return(ownCard(), nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name:  "unknown instrument is refused",
			input: ChargeInput{MerchantID: "m-1", UserID: "u-1", InstrumentID: "pm_x", BaseAmountCents: 10000, TotalAmountCents: 10350},
			setupMock: func(f *MockFees, b *MockBookings, i *MockInstruments, p *MockProcessor, r *MockPayments) {
				i.On("GetByID", mock.Anything, "pm_x").Return(nil, repositories.ErrNotFound)
			},
			wantErr: ErrInvalidInput,
		},
		{
			name:  "another user's reservation is refused before charging",
			input: ChargeInput{MerchantID: "m-1", UserID: "u-1", InstrumentID: "pm_1", ReservationID: &reservationID, BaseAmountCents: 10000, TotalAmountCents: 10350},
			setupMock: func(f *MockFees, b *MockBookings, i *MockInstruments, p *MockProcessor, r *MockPayments) {
				i.On("GetByID", mock.Anything, "pm_1").Return(ownCard(), nil)
				b.On("CheckCompletable", mock.Anything, reservationID, "u-1").Return(nil, booking.ErrForbidden)
			},
			wantErr: booking.ErrForbidden,
		},
		{
			name:  "stale reservation is refused before charging",
			input: ChargeInput{MerchantID: "m-1", UserID: "u-1", InstrumentID: "pm_1", ReservationID: &reservationID, BaseAmountCents: 10000, TotalAmountCents: 10350},
			setupMock: func(f *MockFees, b *MockBookings, i *MockInstruments, p *MockProcessor, r *MockPayments) {
				i.On("GetByID", mock.Anything, "pm_1").Return(ownCard(), nil)
				b.On("CheckCompletable", mock.Anything, reservationID, "u-1").Return(nil, booking.ErrReservationExpired)
			},
			wantErr: booking.ErrReservationExpired,
		},
		{
			name:  "processor failure",
			input: ChargeInput{MerchantID: "m-1", UserID: "u-1", InstrumentID: "pm_1", BaseAmountCents: 10000, TotalAmountCents: 10350},
			setupMock: func(f *MockFees, b *MockBookings, i *MockInstruments, p *MockProcessor, r *MockPayments) {
				i.On("GetByID", mock.Anything, "pm_1").Return(ownCard(), nil)
				f.On("Authorize", mock.Anything, "m-1", "pm_1", int64(10000), int64(10350)).Return(cardQuote(), nil)
				p.On("Charge", mock.Anything, mock.Anything).Return(nil, ErrDeclined)
			},
			wantErr: ErrProcessor,
		},
		{
			name:  "completes the reservation",
			input: ChargeInput{MerchantID: "m-1", UserID: "u-1", InstrumentID: "pm_1", ReservationID: &reservationID, BaseAmountCents: 10000, TotalAmountCents: 10350},
			setupMock: func(f *MockFees, b *MockBookings, i *MockInstruments, p *MockProcessor, r *MockPayments) {
				i.On("GetByID", mock.Anything, "pm_1").Return(ownCard(), nil)
				b.On("CheckCompletable", mock.Anything, reservationID, "u-1").Return(&models.Reservation{ID: reservationID, Status: models.StatusDraft}, nil)
				f.On("Authorize", mock.Anything, "m-1", "pm_1", int64(10000), int64(10350)).Return(cardQuote(), nil)
				p.On("Charge", mock.Anything, mock.MatchedBy(func(c ProcessorCharge) bool {
					return c.Metadata["reservation_id"] == reservationID
				})).Return(&ProcessorResult{Ref: "pi_2", Status: models.PaymentStatusSucceeded}, nil)
				r.On("GetByProcessorRef", mock.Anything, "pi_2").Return(nil, repositories.ErrNotFound)
				r.On("Create", mock.Anything, mock.Anything).Return(nil)
				b.On("Complete", mock.Anything, reservationID, "u-1").Return(&models.Reservation{ID: reservationID, Status: models.StatusSubmitted}, nil)
			},
			wantStatus: models.PaymentStatusSucceeded,
		},
		{
			name:  "reservation expiring after the charge is refunded",
			input: ChargeInput{MerchantID: "m-1", UserID: "u-1", InstrumentID: "pm_1", ReservationID: &reservationID, BaseAmountCents: 10000, TotalAmountCents: 10350},
			setupMock: func(f *MockFees, b *MockBookings, i *MockInstruments, p *MockProcessor, r *MockPayments) {
				i.On("GetByID", mock.Anything, "pm_1").Return(ownCard(), nil)
				b.On("CheckCompletable", mock.Anything, reservationID, "u-1").Return(&models.Reservation{ID: reservationID, Status: models.StatusDraft}, nil)
				f.On("Authorize", mock.Anything, "m-1", "pm_1", int64(10000), int64(10350)).Return(cardQuote(), nil)
				p.On("Charge", mock.Anything, mock.Anything).Return(&ProcessorResult{Ref: "pi_3", Status: models.PaymentStatusSucceeded}, nil)
				r.On("GetByProcessorRef", mock.Anything, "pi_3").Return(nil, repositories.ErrNotFound)
				r.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					args.Get(1).(*models.Payment).ID = "pay-3"
				}).Return(nil)
				b.On("Complete", mock.Anything, reservationID, "u-1").Return(nil, booking.ErrReservationExpired)
				p.On("Refund", mock.Anything, "pi_3").Return(nil)
				r.On("UpdateStatus", mock.Anything, "pay-3", models.PaymentStatusRefunded, mock.Anything).Return(nil)
			},
			wantErr: booking.ErrReservationExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fees := new(MockFees)
			bookings := new(MockBookings)
			instruments := new(MockInstruments)
			processor := new(MockProcessor)
			payments := new(MockPayments)
			if tt.setupMock != nil {
				tt.setupMock(fees, bookings, instruments, processor, payments)
			}

			s := NewService(fees, bookings, instruments, processor, payments, quietLogger())

			receipt, err := s.Charge(context.Background(), tt.input)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, receipt.Payment.Status)
				assert.Equal(t, int64(10350), receipt.Payment.TotalChargeCents)
				assert.False(t, receipt.Replayed)
			}

			fees.AssertExpectations(t)
			bookings.AssertExpectations(t)
			instruments.AssertExpectations(t)
			processor.AssertExpectations(t)
			payments.AssertExpectations(t)
		})
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type stubFees struct{}

func (stubFees) Authorize(context.Context, string, string, int64, int64) (*fee.ResolvedQuote, error) {
	return cardQuote(), nil
}

// keyedProcessor behaves like the processor's own idempotency: the same key
// always yields the same charge.
type keyedProcessor struct {
	charges int
	refunds []string
}

func (p *keyedProcessor) Charge(_ context.Context, c ProcessorCharge) (*ProcessorResult, error) {
	p.charges++
	return &ProcessorResult{Ref: "pi_" + c.IdempotencyKey, Status: models.PaymentStatusSucceeded}, nil
}

func (p *keyedProcessor) Refund(_ context.Context, ref string) error {
	p.refunds = append(p.refunds, ref)
	return nil
}

type memoryPayments struct {
	rows []*models.Payment
}

func (m *memoryPayments) Create(_ context.Context, p *models.Payment) error {
	p.ID = fmt.Sprintf("pay-%d", len(m.rows)+1)
	m.rows = append(m.rows, p)
	return nil
}

func (m *memoryPayments) GetByIdempotencyKey(_ context.Context, userID, key string) (*models.Payment, error) {
	for _, p := range m.rows {
		if p.UserID == userID && p.IdempotencyKey != nil && *p.IdempotencyKey == key {
			return p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryPayments) GetByProcessorRef(_ context.Context, ref string) (*models.Payment, error) {
	for _, p := range m.rows {
		if p.ProcessorRef == ref {
			return p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryPayments) UpdateStatus(_ context.Context, id, status string, _ time.Time) error {
	for _, p := range m.rows {
		if p.ID == id {
			p.Status = status
			return nil
		}
	}
	return repositories.ErrNotFound
}

// draftBookings submits a draft once; a second completion is a transition
// error, as it is for the real booking service.
type draftBookings struct {
	status map[string]models.ReservationStatus
}

func (b *draftBookings) CheckCompletable(_ context.Context, id, _ string) (*models.Reservation, error) {
	if b.status[id] != models.StatusDraft {
		return nil, booking.ErrInvalidTransition
	}
	return &models.Reservation{ID: id, Status: models.StatusDraft}, nil
}

func (b *draftBookings) Complete(ctx context.Context, id, userID string) (*models.Reservation, error) {
	if _, err := b.CheckCompletable(ctx, id, userID); err != nil {
		return nil, err
	}
	b.status[id] = models.StatusSubmitted
	return &models.Reservation{ID: id, Status: models.StatusSubmitted}, nil
}

func TestService_ChargeRetry(t *testing.T) {
	reservationID := "res-1"
	otherReservation := "res-2"
	request := ChargeInput{
		MerchantID:       "m-1",
		UserID:           "u-1",
		InstrumentID:     "pm_1",
		ReservationID:    &reservationID,
		BaseAmountCents:  10000,
		TotalAmountCents: 10350,
		IdempotencyKey:   "k1",
	}

	newService := func() (Service, *keyedProcessor, *memoryPayments, *draftBookings) {
		instruments := new(MockInstruments)
		instruments.On("GetByID", mock.Anything, "pm_1").Return(ownCard(), nil)
		processor := &keyedProcessor{}
		payments := &memoryPayments{}
		bookings := &draftBookings{status: map[string]models.ReservationStatus{
			reservationID:    models.StatusDraft,
			otherReservation: models.StatusDraft,
		}}
		return NewService(stubFees{}, bookings, instruments, processor, payments, quietLogger()), processor, payments, bookings
	}

	t.Run("same key twice keeps the original charge", func(t *testing.T) {
		s, processor, payments, bookings := newService()

		first, err := s.Charge(context.Background(), request)
		require.NoError(t, err)
		assert.False(t, first.Replayed)

		second, err := s.Charge(context.Background(), request)
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Payment.ID, second.Payment.ID)
		assert.Equal(t, models.PaymentStatusSucceeded, second.Payment.Status)

		assert.Empty(t, processor.refunds)
		assert.Equal(t, 1, processor.charges)
		assert.Len(t, payments.rows, 1)
		assert.Equal(t, models.StatusSubmitted, bookings.status[reservationID])
	})

	t.Run("key reused for another reservation is rejected", func(t *testing.T) {
		s, processor, _, bookings := newService()

		_, err := s.Charge(context.Background(), request)
		require.NoError(t, err)

		reused := request
		reused.ReservationID = &otherReservation
		_, err = s.Charge(context.Background(), reused)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, 1, processor.charges)
		assert.Equal(t, models.StatusDraft, bookings.status[otherReservation])
	})

	t.Run("charge already recorded under its processor ref is replayed", func(t *testing.T) {
		s, processor, payments, _ := newService()

		payments.rows = append(payments.rows, &models.Payment{
			ID:              "pay-0",
			MerchantID:      "m-1",
			UserID:          "u-1",
			InstrumentID:    "pm_1",
			ReservationID:   &reservationID,
			BaseAmountCents: 10000,
			ProcessorRef:    "pi_k1",
			Status:          models.PaymentStatusSucceeded,
		})

		receipt, err := s.Charge(context.Background(), request)
		require.NoError(t, err)
		assert.True(t, receipt.Replayed)
		assert.Equal(t, "pay-0", receipt.Payment.ID)
		assert.Empty(t, processor.refunds)
		assert.Len(t, payments.rows, 1)
	})
}
