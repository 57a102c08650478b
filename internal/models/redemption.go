package models

import "time"

// LoyaltyRedemption is a granted reward waiting to be claimed at the counter.
type LoyaltyRedemption struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ProgramID      uint       `gorm:"not null;index" json:"program_id"`
	CustomerID     uint       `gorm:"not null;index" json:"customer_id"`
	RewardID       uint       `gorm:"not null" json:"reward_id"`
	RuleID         uint       `gorm:"not null" json:"rule_id"`
	EventID        uint       `json:"event_id"`
	Status         string     `gorm:"size:20;not null;default:'PENDING';index" json:"status"` // PENDING, REDEEMED, EXPIRED
	RedemptionCode string     `gorm:"size:16;not null;uniqueIndex" json:"redemption_code"`
	RedeemedAt     *time.Time `json:"redeemed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (LoyaltyRedemption) TableName() string { return "loyalty_redemptions" }
