package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicpay/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockingQuery selects the slotted reservations on one resource and date
// that still hold their slot: every active status, plus drafts created at
// or after FreshSince.
type BlockingQuery struct {
	ResourceID string
	Date       string
	ExcludeID  string
	FreshSince time.Time
}

// ConflictFunc picks, from the reservations currently holding slots, those
// that collide with the reservation being created.
type ConflictFunc func(existing []models.Reservation) []models.Reservation

type ReservationRepository interface {
	FindBlocking(ctx context.Context, q BlockingQuery) ([]models.Reservation, error)
	// CreateExclusive inserts r unless conflicts reports a collision. The
	// check and the insert run in one transaction serialised per
	// resource and date, so two overlapping creates cannot both succeed.
	CreateExclusive(ctx context.Context, r *models.Reservation, q BlockingQuery, conflicts ConflictFunc) ([]models.Reservation, error)
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	// TransitionStatus moves a reservation to `to` only if its status is
	// one of `from`. It returns ErrStatusChanged when the row exists but
	// no longer matches.
	TransitionStatus(ctx context.Context, id string, from []models.ReservationStatus, to models.ReservationStatus, at time.Time) (*models.Reservation, error)
	// SubmitDraft moves a draft to submitted. A slotted draft must also
	// have been created at or after freshSince. It returns
	// ErrStatusChanged when the row exists but does not qualify.
	SubmitDraft(ctx context.Context, id string, freshSince, at time.Time) (*models.Reservation, error)
	// ExpireDrafts marks every slotted draft created before createdBefore
	// as expired and returns the rows it changed.
	ExpireDrafts(ctx context.Context, createdBefore, at time.Time) ([]models.Reservation, error)
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) blocking(tx *gorm.DB, q BlockingQuery) *gorm.DB {
	query := tx.Model(&models.Reservation{}).
		Where("tile_id = ? AND date = ? AND start_time IS NOT NULL", q.ResourceID, q.Date).
		Where("(status IN ? OR (status = ? AND created_at >= ?))",
			models.ActiveStatuses, models.StatusDraft, q.FreshSince)
	if q.ExcludeID != "" {
		query = query.Where("id <> ?", q.ExcludeID)
	}
	return query
}

func (r *reservationRepository) FindBlocking(ctx context.Context, q BlockingQuery) ([]models.Reservation, error) {
	var out []models.Reservation
	err := r.blocking(r.db.WithContext(ctx), q).
		Order("start_time ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find blocking reservations: %w", err)
	}
	return out, nil
}

func (r *reservationRepository) CreateExclusive(ctx context.Context, res *models.Reservation, q BlockingQuery, conflicts ConflictFunc) ([]models.Reservation, error) {
	var found []models.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Rows that do not exist yet cannot be locked, so serialise on the
		// resource/date pair itself for the rest of the transaction.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", q.ResourceID+"|"+q.Date).Error; err != nil {
			return fmt.Errorf("lock slot range: %w", err)
		}

		var existing []models.Reservation
		err := r.blocking(tx, q).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Order("start_time ASC").
			Find(&existing).Error
		if err != nil {
			return fmt.Errorf("find blocking reservations: %w", err)
		}

		found = conflicts(existing)
		if len(found) > 0 {
			return nil
		}

		if res.ID == "" {
			res.ID = uuid.NewString()
		}
		return tx.Create(res).Error
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation %s: %w", id, err)
	}
	return &res, nil
}

func (r *reservationRepository) TransitionStatus(ctx context.Context, id string, from []models.ReservationStatus, to models.ReservationStatus, at time.Time) (*models.Reservation, error) {
	var updated []models.Reservation
	result := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": at})
	if result.Error != nil {
		return nil, fmt.Errorf("update reservation %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 || len(updated) == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStatusChanged
	}
	return &updated[0], nil
}

func (r *reservationRepository) SubmitDraft(ctx context.Context, id string, freshSince, at time.Time) (*models.Reservation, error) {
	var updated []models.Reservation
	result := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ? AND (date IS NULL OR created_at >= ?)", id, models.StatusDraft, freshSince).
		Updates(map[string]interface{}{"status": models.StatusSubmitted, "updated_at": at})
	if result.Error != nil {
		return nil, fmt.Errorf("submit reservation %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 || len(updated) == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStatusChanged
	}
	return &updated[0], nil
}

func (r *reservationRepository) ExpireDrafts(ctx context.Context, createdBefore, at time.Time) ([]models.Reservation, error) {
	var expired []models.Reservation
	err := r.db.WithContext(ctx).
		Model(&expired).
		Clauses(clause.Returning{}).
		Where("status = ? AND date IS NOT NULL AND created_at < ?", models.StatusDraft, createdBefore).
		Updates(map[string]interface{}{"status": models.StatusExpired, "updated_at": at}).Error
	if err != nil {
		return nil, fmt.Errorf("expire abandoned drafts: %w", err)
	}
	return expired, nil
}
