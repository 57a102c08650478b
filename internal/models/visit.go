package models

import "time"

// LoyaltyVisit records a single visit. Rows are written alongside the total_visits increment.
type LoyaltyVisit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProgramID  uint      `gorm:"not null;index" json:"program_id"`
	CustomerID uint      `gorm:"not null;index:idx_visit_customer_created" json:"customer_id"`
	Source     string    `gorm:"size:20;not null" json:"source"` // QR, SURVEY, MANUAL
	CreatedAt  time.Time `gorm:"index:idx_visit_customer_created" json:"created_at"`
}

func (LoyaltyVisit) TableName() string { return "loyalty_visits" }
