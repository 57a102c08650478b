package models

import (
	"time"

	"gorm.io/gorm"
)

// LoyaltyProgram is a business's loyalty scheme. Rules, tiers, rewards and customers hang off it.
type LoyaltyProgram struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OwnerID   uint           `gorm:"not null;index" json:"owner_id"`
	Name      string         `gorm:"size:120;not null" json:"name"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (LoyaltyProgram) TableName() string { return "loyalty_programs" }
