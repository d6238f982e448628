package repositories

import (
	"context"
	"errors"
	"fmt"

	"civicpay/internal/models"

	"gorm.io/gorm"
)

type PaymentInstrumentRepository interface {
	GetByID(ctx context.Context, id string) (*models.PaymentInstrument, error)
}

type paymentInstrumentRepository struct {
	db *gorm.DB
}

func NewPaymentInstrumentRepository(db *gorm.DB) PaymentInstrumentRepository {
	return &paymentInstrumentRepository{db: db}
}

func (r *paymentInstrumentRepository) GetByID(ctx context.Context, id string) (*models.PaymentInstrument, error) {
	var instrument models.PaymentInstrument
	if err := r.db.WithContext(ctx).First(&instrument, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment instrument %s: %w", id, err)
	}
	return &instrument, nil
}
