package models

import (
	"time"

	"gorm.io/gorm"
)

// LoyaltyReward is a catalog entry a rule can grant.
type LoyaltyReward struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProgramID   uint           `gorm:"not null;index" json:"program_id"`
	Name        string         `gorm:"size:120;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	ImageURL    string         `gorm:"size:512" json:"image_url"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (LoyaltyReward) TableName() string { return "loyalty_rewards" }
