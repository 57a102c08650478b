package repository

import (
	"context"

	"happymeter/internal/models"

	"gorm.io/gorm"
)

type ProgramRepository struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

func (r *ProgramRepository) Create(ctx context.Context, p *models.LoyaltyProgram) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProgramRepository) GetByID(ctx context.Context, id uint) (*models.LoyaltyProgram, error) {
	var p models.LoyaltyProgram
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "program", id)
	}
	return &p, nil
}

func (r *ProgramRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.LoyaltyProgram, error) {
	var list []models.LoyaltyProgram
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&list).Error
	return list, err
}
