package models

import (
	"time"

	"gorm.io/datatypes"
)

// LoyaltyEvent is an append-only fact about a customer interaction.
// There is intentionally no UpdatedAt/DeletedAt and no foreign key to the customer.
type LoyaltyEvent struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ProgramID  uint              `gorm:"not null;index" json:"program_id"`
	CustomerID uint              `gorm:"not null;index:idx_event_customer_type_created" json:"customer_id"`
	Type       string            `gorm:"size:20;not null;index:idx_event_customer_type_created" json:"type"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	CreatedAt  time.Time         `gorm:"index:idx_event_customer_type_created" json:"created_at"`
}

func (LoyaltyEvent) TableName() string { return "loyalty_events" }
