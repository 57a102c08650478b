package models

import "time"

// LoyaltyTier is a status level. Higher Order is better.
type LoyaltyTier struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProgramID      uint      `gorm:"not null;index" json:"program_id"`
	Name           string    `gorm:"size:60;not null" json:"name"`
	RequiredVisits int       `gorm:"not null;default:0" json:"required_visits"`
	Order          int       `gorm:"column:tier_order;not null;default:0" json:"order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (LoyaltyTier) TableName() string { return "loyalty_tiers" }
