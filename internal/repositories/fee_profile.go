package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicpay/internal/models"
	cachekeys "civicpay/internal/utils/cache"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FeeProfileRepository interface {
	GetByMerchantID(ctx context.Context, merchantID string) (*models.MerchantFeeProfile, error)
	// Save inserts the profile or replaces the rates of the merchant's
	// existing one.
	Save(ctx context.Context, profile *models.MerchantFeeProfile) error
}

type feeProfileRepository struct {
	db *gorm.DB
}

func NewFeeProfileRepository(db *gorm.DB) FeeProfileRepository {
	return &feeProfileRepository{db: db}
}

func (r *feeProfileRepository) GetByMerchantID(ctx context.Context, merchantID string) (*models.MerchantFeeProfile, error) {
	var profile models.MerchantFeeProfile
	err := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get fee profile %s: %w", merchantID, err)
	}
	return &profile, nil
}

func (r *feeProfileRepository) Save(ctx context.Context, profile *models.MerchantFeeProfile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "merchant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"card_basis_points",
			"card_fixed_fee_cents",
			"ach_basis_points",
			"ach_fixed_fee_cents",
			"ach_basis_points_fee_limit_cents",
			"updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return fmt.Errorf("save fee profile %s: %w", profile.MerchantID, err)
	}
	return nil
}

// cachedFeeProfileRepository reads through the cache. Cache failures are
// logged and never fail the lookup.
type cachedFeeProfileRepository struct {
	next  FeeProfileRepository
	cache CacheRepository
	ttl   time.Duration
	log   *logrus.Logger
}

func NewCachedFeeProfileRepository(next FeeProfileRepository, cache CacheRepository, ttl time.Duration, log *logrus.Logger) FeeProfileRepository {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &cachedFeeProfileRepository{next: next, cache: cache, ttl: ttl, log: log}
}

func FeeProfileCacheKey(merchantID string) string {
	return cachekeys.GenerateKey(cachekeys.EntityFeeProfile, cachekeys.KeyMerchant, merchantID)
}

func (r *cachedFeeProfileRepository) GetByMerchantID(ctx context.Context, merchantID string) (*models.MerchantFeeProfile, error) {
	key := FeeProfileCacheKey(merchantID)

	var cached models.MerchantFeeProfile
	found, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.log.WithError(err).WithField("merchant_id", merchantID).Warn("fee profile cache read failed")
	}
	if found {
		return &cached, nil
	}

	profile, err := r.next.GetByMerchantID(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetWithTTL(ctx, key, profile, r.ttl); err != nil {
		r.log.WithError(err).WithField("merchant_id", merchantID).Warn("fee profile cache write failed")
	}
	return profile, nil
}

func (r *cachedFeeProfileRepository) Save(ctx context.Context, profile *models.MerchantFeeProfile) error {
	if err := r.next.Save(ctx, profile); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, FeeProfileCacheKey(profile.MerchantID)); err != nil {
		r.log.WithError(err).WithField("merchant_id", profile.MerchantID).Warn("fee profile cache invalidation failed")
	}
	return nil
}
