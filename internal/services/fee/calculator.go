package fee

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var basisPointsPerUnit = decimal.NewFromInt(10000)

// CalculateServiceFee computes the service fee and total charge for a base
// amount. The percentage component is rounded half-up to the cent, the ACH
// cap is applied to the percentage component only, and the fixed fee is
// added last. Client display and server authorisation both call this.
func CalculateServiceFee(p Params) (Quote, error) {
	if p.BaseAmountCents < 0 {
		return Quote{}, fmt.Errorf("%w: base amount must be a non-negative number of cents, got %d",
			ErrInvalidInput, p.BaseAmountCents)
	}

	schedule := DefaultSchedule()
	if p.Schedule != nil {
		schedule = *p.Schedule
	}
	if err := schedule.Validate(); err != nil {
		return Quote{}, err
	}

	basisPoints, fixedFee := schedule.ACHBasisPoints, schedule.ACHFixedFeeCents
	if p.IsCard {
		basisPoints, fixedFee = schedule.CardBasisPoints, schedule.CardFixedFeeCents
	}

	percentageFee := percentageCents(p.BaseAmountCents, basisPoints)
	if !p.IsCard && schedule.ACHBasisPointsFeeLimitCents != nil &&
		percentageFee > *schedule.ACHBasisPointsFeeLimitCents {
		percentageFee = *schedule.ACHBasisPointsFeeLimitCents
	}

	totalFee := percentageFee + fixedFee
	return Quote{
		BaseAmountCents:           p.BaseAmountCents,
		ServiceFeePercentageCents: percentageFee,
		ServiceFeeFixedCents:      fixedFee,
		TotalServiceFeeCents:      totalFee,
		TotalChargeCents:          p.BaseAmountCents + totalFee,
		BasisPoints:               basisPoints,
		IsCard:                    p.IsCard,
	}, nil
}

// ValidateTotalAmount recomputes the total from the authoritative schedule
// and accepts the provided total when it is within MatchToleranceCents.
func ValidateTotalAmount(baseAmountCents, providedTotalCents int64, isCard bool, schedule *Schedule) (Validation, error) {
	quote, err := CalculateServiceFee(Params{
		BaseAmountCents: baseAmountCents,
		IsCard:          isCard,
		Schedule:        schedule,
	})
	if err != nil {
		return Validation{}, err
	}

	diff := providedTotalCents - quote.TotalChargeCents
	if diff < 0 {
		diff = -diff
	}
	return Validation{
		IsValid:       diff <= MatchToleranceCents,
		ExpectedTotal: quote.TotalChargeCents,
		Difference:    diff,
	}, nil
}

// percentageCents returns base*bp/10000 rounded to the nearest cent, halves
// away from zero. Inputs are non-negative so this is half-up.
func percentageCents(baseAmountCents, basisPoints int64) int64 {
	return decimal.NewFromInt(baseAmountCents).
		Mul(decimal.NewFromInt(basisPoints)).
		Div(basisPointsPerUnit).
		Round(0).
		IntPart()
}
