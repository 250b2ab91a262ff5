package repositories

import (
	"context"
	"fmt"

	"remit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type currencyRepository struct {
	db *gorm.DB
}

func NewCurrencyRepository(db *gorm.DB) CurrencyRepository {
	return &currencyRepository{db: db}
}

func (r *currencyRepository) Upsert(ctx context.Context, c *models.Currency) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, UpdateAll: true}).
		Create(c).Error
	if err != nil {
		return fmt.Errorf("failed to upsert currency %s: %w", c.Code, err)
	}
	return nil
}

func (r *currencyRepository) List(ctx context.Context) ([]models.Currency, error) {
	var currencies []models.Currency
	if err := r.db.WithContext(ctx).Order("code").Find(&currencies).Error; err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return currencies, nil
}

type corridorRepository struct {
	db *gorm.DB
}

func NewCorridorRepository(db *gorm.DB) CorridorRepository {
	return &corridorRepository{db: db}
}

func (r *corridorRepository) Upsert(ctx context.Context, c *models.PaymentCorridor) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "origin_country"}, {Name: "destination_country"}},
			UpdateAll: true,
		}).
		Create(c).Error
	if err != nil {
		return fmt.Errorf("failed to upsert corridor %s: %w", c.Key(), err)
	}
	return nil
}

func (r *corridorRepository) List(ctx context.Context) ([]*models.PaymentCorridor, error) {
	var corridors []*models.PaymentCorridor
	if err := r.db.WithContext(ctx).Order("id").Find(&corridors).Error; err != nil {
		return nil, fmt.Errorf("failed to list corridors: %w", err)
	}
	return corridors, nil
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) Upsert(ctx context.Context, p *models.TransferPartner) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert partner %s: %w", p.ID, err)
	}
	return nil
}

func (r *partnerRepository) List(ctx context.Context) ([]*models.TransferPartner, error) {
	var partners []*models.TransferPartner
	if err := r.db.WithContext(ctx).Order("position, created_at").Find(&partners).Error; err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	return partners, nil
}

func (r *partnerRepository) UpdateSuccessRate(ctx context.Context, id string, successRate float64) error {
	result := r.db.WithContext(ctx).Model(&models.TransferPartner{}).
		Where("id = ?", id).
		Update("success_rate", successRate)
	if result.Error != nil {
		return fmt.Errorf("failed to update partner %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPartnerNotFound
	}
	return nil
}
