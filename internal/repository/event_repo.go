package repository

import (
	"context"

	"happymeter/internal/models"

	"gorm.io/gorm"
)

// EventRepository is append-only: there is no update or delete.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) CreateEvent(ctx context.Context, ev *models.LoyaltyEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

// ListByCustomer returns a customer's events newest first, optionally filtered by type.
func (r *EventRepository) ListByCustomer(ctx context.Context, customerID uint, eventType string, limit, offset int) ([]models.LoyaltyEvent, error) {
	var list []models.LoyaltyEvent
	q := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if eventType != "" {
		q = q.Where("type = ?", eventType)
	}
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
