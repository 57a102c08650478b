package models

import (
	"time"
)

// LoyaltyCustomer is one member of a program, identified by phone within that program.
// TotalVisits is maintained by visit recording; TierID is only changed by the engine.
type LoyaltyCustomer struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ProgramID   uint       `gorm:"not null;uniqueIndex:idx_customer_program_phone" json:"program_id"`
	Phone       string     `gorm:"size:32;not null;uniqueIndex:idx_customer_program_phone" json:"phone"`
	Name        string     `gorm:"size:120" json:"name"`
	TotalVisits int        `gorm:"not null;default:0" json:"total_visits"`
	TierID      *uint      `gorm:"index" json:"tier_id"`
	LastVisitAt *time.Time `json:"last_visit_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (LoyaltyCustomer) TableName() string { return "loyalty_customers" }
