package repository

import (
	"context"

	"happymeter/internal/models"

	"gorm.io/gorm"
)

type RewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) Create(ctx context.Context, reward *models.LoyaltyReward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *RewardRepository) GetByID(ctx context.Context, programID, rewardID uint) (*models.LoyaltyReward, error) {
	var reward models.LoyaltyReward
	err := r.db.WithContext(ctx).Where("program_id = ?", programID).First(&reward, rewardID).Error
	if err != nil {
		return nil, notFound(err, "reward", rewardID)
	}
	return &reward, nil
}

func (r *RewardRepository) ListByProgram(ctx context.Context, programID uint) ([]models.LoyaltyReward, error) {
	var list []models.LoyaltyReward
	err := r.db.WithContext(ctx).Where("program_id = ?", programID).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *RewardRepository) UpdateImageURL(ctx context.Context, rewardID uint, url string) error {
	return r.db.WithContext(ctx).Model(&models.LoyaltyReward{}).Where("id = ?", rewardID).Update("image_url", url).Error
}
