package models

import (
	"time"

	"gorm.io/datatypes"
)

// LoyaltyRule pairs a trigger event type and a conditions blob with an optional reward.
// Conditions is kept as raw JSON; the engine decodes it permissively.
type LoyaltyRule struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ProgramID  uint           `gorm:"not null;index:idx_rule_program_active" json:"program_id"`
	Name       string         `gorm:"size:120" json:"name"`
	Trigger    string         `gorm:"size:20;not null" json:"trigger"`
	Conditions datatypes.JSON `json:"conditions"`
	RewardID   *uint          `json:"reward_id"`
	IsActive   bool           `gorm:"default:true;index:idx_rule_program_active" json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (LoyaltyRule) TableName() string { return "loyalty_rules" }
