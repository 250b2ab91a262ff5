package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remit/internal/models"

	"gorm.io/gorm"
)

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, t *models.Transfer) error {
	result := r.db.WithContext(ctx).Create(t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTransfer
		}
		return fmt.Errorf("failed to create transfer: %w", result.Error)
	}
	return nil
}

func (r *transferRepository) GetByID(ctx context.Context, id string) (*models.Transfer, error) {
	var t models.Transfer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return &t, nil
}

func (r *transferRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Transfer, error) {
	var t models.Transfer
	if err := r.db.WithContext(ctx).Where("tracking_number = ?", trackingNumber).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return &t, nil
}

func (r *transferRepository) Update(ctx context.Context, t *models.Transfer, expected models.TransferStatus) error {
	result := r.db.WithContext(ctx).
		Model(t).
		Where("status = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(t)
	if result.Error != nil {
		return fmt.Errorf("failed to update transfer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Transfer{}).Where("id = ?", t.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to update transfer: %w", err)
		}
		if count == 0 {
			return ErrTransferNotFound
		}
		return ErrStaleStatus
	}
	return nil
}

func (r *transferRepository) ListBySender(ctx context.Context, senderID string, limit, offset int) ([]*models.Transfer, int64, error) {
	var (
		transfers []*models.Transfer
		total     int64
	)
	q := r.db.WithContext(ctx).Model(&models.Transfer{}).Where("sender_id = ?", senderID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transfers: %w", err)
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&transfers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, total, nil
}

func (r *transferRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.Transfer, error) {
	var transfers []*models.Transfer
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Order("created_at").
		Find(&transfers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, nil
}

func (r *transferRepository) SumBySenderMethodSince(ctx context.Context, senderID, paymentMethod string, since time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Transfer{}).
		Select("COALESCE(SUM(send_amount), 0)").
		Where("sender_id = ? AND payment_method = ? AND created_at >= ?", senderID, paymentMethod, since).
		Where("status NOT IN ?", []models.TransferStatus{models.StatusCancelled, models.StatusFailed, models.StatusRefunded}).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum sender transfers: %w", err)
	}
	return total, nil
}
