package repository

import (
	"context"

	"happymeter/internal/models"

	"gorm.io/gorm"
)

type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, rule *models.LoyaltyRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *RuleRepository) GetByID(ctx context.Context, programID, ruleID uint) (*models.LoyaltyRule, error) {
	var rule models.LoyaltyRule
	err := r.db.WithContext(ctx).Where("program_id = ?", programID).First(&rule, ruleID).Error
	if err != nil {
		return nil, notFound(err, "rule", ruleID)
	}
	return &rule, nil
}

func (r *RuleRepository) Update(ctx context.Context, rule *models.LoyaltyRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *RuleRepository) ListByProgram(ctx context.Context, programID uint) ([]models.LoyaltyRule, error) {
	var list []models.LoyaltyRule
	err := r.db.WithContext(ctx).Where("program_id = ?", programID).Order("id ASC").Find(&list).Error
	return list, err
}

// ListActiveRules returns the rules the engine evaluates, in id order.
func (r *RuleRepository) ListActiveRules(ctx context.Context, programID uint) ([]models.LoyaltyRule, error) {
	var list []models.LoyaltyRule
	err := r.db.WithContext(ctx).
		Where("program_id = ? AND is_active = ?", programID, true).
		Order("id ASC").
		Find(&list).Error
	return list, err
}
