package repository

import (
	"context"
	"errors"
	"time"

	"happymeter/internal/domain"
	"happymeter/internal/loyalty"
	"happymeter/internal/models"

	"gorm.io/gorm"
)

type RedemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

// CreateRedemption reports a code collision as loyalty.ErrDuplicateCode.
func (r *RedemptionRepository) CreateRedemption(ctx context.Context, red *models.LoyaltyRedemption) error {
	err := r.db.WithContext(ctx).Create(red).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return loyalty.ErrDuplicateCode
	}
	return err
}

func (r *RedemptionRepository) GetByCode(ctx context.Context, programID uint, code string) (*models.LoyaltyRedemption, error) {
	var red models.LoyaltyRedemption
	err := r.db.WithContext(ctx).
		Where("program_id = ? AND redemption_code = ?", programID, code).
		First(&red).Error
	if err != nil {
		return nil, notFound(err, "redemption", 0)
	}
	return &red, nil
}

// MarkRedeemed flips a PENDING redemption to REDEEMED. It reports false when the row was not
// PENDING any more, so two concurrent claims cannot both succeed.
func (r *RedemptionRepository) MarkRedeemed(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.LoyaltyRedemption{}).
		Where("id = ? AND status = ?", id, domain.RedemptionStatusPending).
		Updates(map[string]interface{}{
			"status":      domain.RedemptionStatusRedeemed,
			"redeemed_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *RedemptionRepository) ListByCustomer(ctx context.Context, customerID uint, status string) ([]models.LoyaltyRedemption, error) {
	var list []models.LoyaltyRedemption
	q := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Order("id DESC").Find(&list).Error
	return list, err
}
