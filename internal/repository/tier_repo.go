package repository

import (
	"context"

	"happymeter/internal/models"

	"gorm.io/gorm"
)

type TierRepository struct {
	db *gorm.DB
}

func NewTierRepository(db *gorm.DB) *TierRepository {
	return &TierRepository{db: db}
}

func (r *TierRepository) Create(ctx context.Context, t *models.LoyaltyTier) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// ListTiersDesc returns tiers best first. Ties on order fall back to id.
func (r *TierRepository) ListTiersDesc(ctx context.Context, programID uint) ([]models.LoyaltyTier, error) {
	var list []models.LoyaltyTier
	err := r.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("tier_order DESC").Order("id ASC").
		Find(&list).Error
	return list, err
}
