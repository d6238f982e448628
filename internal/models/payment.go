package models

import "time"

// Payment instrument types as reported by the processor. Google Pay and
// Apple Pay tokens resolve to PAYMENT_CARD instruments.
const (
	InstrumentTypeCard        = "PAYMENT_CARD"
	InstrumentTypeBankAccount = "BANK_ACCOUNT"
)

// PaymentInstrument mirrors a tokenized instrument held by the processor.
// ID is the processor's payment method id.
type PaymentInstrument struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index" json:"userId"`
	Type      string    `gorm:"not null" json:"type"`
	LastFour  string    `json:"lastFour"`
	Brand     string    `json:"brand"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PaymentInstrument) TableName() string {
	return "payment_instruments"
}

func (p *PaymentInstrument) IsCard() bool {
	return p.Type == InstrumentTypeCard
}

const (
	PaymentStatusSucceeded  = "succeeded"
	PaymentStatusProcessing = "processing"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

// Payment records an authorised charge. Amounts are cents.
type Payment struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	MerchantID       string    `gorm:"not null;index" json:"merchantId"`
	UserID           string    `gorm:"not null;index;uniqueIndex:idx_payments_user_idem" json:"userId"`
	IdempotencyKey   *string   `gorm:"uniqueIndex:idx_payments_user_idem" json:"-"`
	InstrumentID     string    `gorm:"not null" json:"instrumentId"`
	ReservationID    *string   `gorm:"type:uuid;index" json:"reservationId,omitempty"`
	BaseAmountCents  int64     `gorm:"not null" json:"baseAmount"`
	ServiceFeeCents  int64     `gorm:"not null" json:"serviceFee"`
	TotalChargeCents int64     `gorm:"not null" json:"totalAmount"`
	IsCard           bool      `json:"isCard"`
	BasisPoints      int64     `json:"basisPoints"`
	FeeFallback      bool      `gorm:"default:false" json:"feeFallback"`
	ProcessorRef     string    `gorm:"index" json:"processorRef"`
	Status           string    `gorm:"not null;default:'processing'" json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
