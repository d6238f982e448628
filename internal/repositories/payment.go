package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicpay/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	// GetByIdempotencyKey finds the payment a user already made with key.
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Payment, error)
	GetByProcessorRef(ctx context.Context, ref string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Payment, error) {
	return r.first(ctx, "user_id = ? AND idempotency_key = ?", userID, key)
}

func (r *paymentRepository) GetByProcessorRef(ctx context.Context, ref string) (*models.Payment, error) {
	return r.first(ctx, "processor_ref = ?", ref)
}

func (r *paymentRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where(query, args...).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": at})
	if result.Error != nil {
		return fmt.Errorf("update payment %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
