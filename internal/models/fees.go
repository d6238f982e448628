package models

import "time"

// MerchantFeeProfile holds the negotiated service-fee schedule of one merchant.
// Rates are basis points (1/100 of a percent); fees and caps are cents.
type MerchantFeeProfile struct {
	ID                          uint      `gorm:"primarykey" json:"id"`
	MerchantID                  string    `gorm:"uniqueIndex;not null" json:"merchantId"`
	CardBasisPoints             int64     `gorm:"not null" json:"cardBasisPoints"`
	CardFixedFeeCents           int64     `gorm:"not null" json:"cardFixedFeeCents"`
	ACHBasisPoints              int64     `gorm:"column:ach_basis_points;not null" json:"achBasisPoints"`
	ACHFixedFeeCents            int64     `gorm:"column:ach_fixed_fee_cents;not null" json:"achFixedFeeCents"`
	ACHBasisPointsFeeLimitCents *int64    `gorm:"column:ach_basis_points_fee_limit_cents" json:"achBasisPointsFeeLimitCents"`
	CreatedAt                   time.Time `json:"createdAt"`
	UpdatedAt                   time.Time `json:"updatedAt"`
}

func (MerchantFeeProfile) TableName() string {
	return "merchant_fee_profiles"
}
