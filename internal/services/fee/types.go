package fee

import (
	"fmt"

	"civicpay/internal/models"
)

// Default rates applied when a merchant has no negotiated schedule.
const (
	DefaultCardBasisPoints   int64 = 300
	DefaultCardFixedFeeCents int64 = 50
	DefaultACHBasisPoints    int64 = 150
	DefaultACHFixedFeeCents  int64 = 50

	// MatchToleranceCents absorbs independent rounding at different call sites.
	MatchToleranceCents int64 = 1
)

// Schedule is a merchant's fee schedule per payment-method class.
// A nil ACHBasisPointsFeeLimitCents means the ACH percentage is uncapped.
type Schedule struct {
	CardBasisPoints             int64  `json:"cardBasisPoints"`
	CardFixedFeeCents           int64  `json:"cardFixedFeeCents"`
	ACHBasisPoints              int64  `json:"achBasisPoints"`
	ACHFixedFeeCents            int64  `json:"achFixedFeeCents"`
	ACHBasisPointsFeeLimitCents *int64 `json:"achBasisPointsFeeLimitCents,omitempty"`
}

func DefaultSchedule() Schedule {
	return Schedule{
		CardBasisPoints:   DefaultCardBasisPoints,
		CardFixedFeeCents: DefaultCardFixedFeeCents,
		ACHBasisPoints:    DefaultACHBasisPoints,
		ACHFixedFeeCents:  DefaultACHFixedFeeCents,
	}
}

// ScheduleFromProfile converts a stored merchant fee profile.
func ScheduleFromProfile(p *models.MerchantFeeProfile) Schedule {
	s := Schedule{
		CardBasisPoints:   p.CardBasisPoints,
		CardFixedFeeCents: p.CardFixedFeeCents,
		ACHBasisPoints:    p.ACHBasisPoints,
		ACHFixedFeeCents:  p.ACHFixedFeeCents,
	}
	if p.ACHBasisPointsFeeLimitCents != nil {
		limit := *p.ACHBasisPointsFeeLimitCents
		s.ACHBasisPointsFeeLimitCents = &limit
	}
	return s
}

func (s Schedule) Validate() error {
	switch {
	case s.CardBasisPoints < 0, s.ACHBasisPoints < 0:
		return fmt.Errorf("%w: basis points must not be negative", ErrInvalidInput)
	case s.CardFixedFeeCents < 0, s.ACHFixedFeeCents < 0:
		return fmt.Errorf("%w: fixed fees must not be negative", ErrInvalidInput)
	case s.ACHBasisPointsFeeLimitCents != nil && *s.ACHBasisPointsFeeLimitCents < 0:
		return fmt.Errorf("%w: ACH fee limit must not be negative", ErrInvalidInput)
	}
	return nil
}

// Overrides replaces individual fields of a schedule. Nil fields keep the
// underlying value.
type Overrides struct {
	CardBasisPoints             *int64 `json:"cardBasisPoints"`
	CardFixedFeeCents           *int64 `json:"cardFixedFeeCents"`
	ACHBasisPoints              *int64 `json:"achBasisPoints"`
	ACHFixedFeeCents            *int64 `json:"achFixedFeeCents"`
	ACHBasisPointsFeeLimitCents *int64 `json:"achBasisPointsFeeLimitCents"`
}

func (o Overrides) Apply(s Schedule) Schedule {
	if o.CardBasisPoints != nil {
		s.CardBasisPoints = *o.CardBasisPoints
	}
	if o.CardFixedFeeCents != nil {
		s.CardFixedFeeCents = *o.CardFixedFeeCents
	}
	if o.ACHBasisPoints != nil {
		s.ACHBasisPoints = *o.ACHBasisPoints
	}
	if o.ACHFixedFeeCents != nil {
		s.ACHFixedFeeCents = *o.ACHFixedFeeCents
	}
	if o.ACHBasisPointsFeeLimitCents != nil {
		limit := *o.ACHBasisPointsFeeLimitCents
		s.ACHBasisPointsFeeLimitCents = &limit
	}
	return s
}

// Params are the inputs of CalculateServiceFee. A nil Schedule selects
// DefaultSchedule.
type Params struct {
	BaseAmountCents int64
	IsCard          bool
	Schedule        *Schedule
}

// Quote is the fee breakdown of a single charge. All amounts are cents and
// TotalChargeCents always equals BaseAmountCents + TotalServiceFeeCents.
type Quote struct {
	BaseAmountCents           int64 `json:"baseAmountCents"`
	ServiceFeePercentageCents int64 `json:"serviceFeePercentageCents"`
	ServiceFeeFixedCents      int64 `json:"serviceFeeFixedCents"`
	TotalServiceFeeCents      int64 `json:"totalServiceFeeCents"`
	TotalChargeCents          int64 `json:"totalChargeCents"`
	BasisPoints               int64 `json:"basisPoints"`
	IsCard                    bool  `json:"isCard"`
}

type Validation struct {
	IsValid       bool  `json:"isValid"`
	ExpectedTotal int64 `json:"expectedTotal"`
	Difference    int64 `json:"difference"`
}

// ResolvedQuote is a quote computed from the schedule the server trusts for
// a merchant and instrument. Fallback is set when that schedule could not
// be looked up and the card defaults were used instead.
type ResolvedQuote struct {
	Quote
	MerchantID   string `json:"merchantId"`
	InstrumentID string `json:"instrumentId"`
	Fallback     bool   `json:"fallback"`
}
