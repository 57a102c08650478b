package repository

import (
	"context"
	"time"

	"happymeter/internal/loyalty"
	"happymeter/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uint) (*models.LoyaltyCustomer, error) {
	var c models.LoyaltyCustomer
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "customer", id)
	}
	return &c, nil
}

// FindOrCreate returns the program's customer with this phone, creating it on first sight.
func (r *CustomerRepository) FindOrCreate(ctx context.Context, programID uint, phone, name string) (*models.LoyaltyCustomer, error) {
	c := models.LoyaltyCustomer{ProgramID: programID, Phone: phone, Name: name}
	err := r.db.WithContext(ctx).
		Where("program_id = ? AND phone = ?", programID, phone).
		FirstOrCreate(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordVisit increments total_visits atomically and writes the visit row in one transaction.
func (r *CustomerRepository) RecordVisit(ctx context.Context, c *models.LoyaltyCustomer, source string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.LoyaltyCustomer{}).
			Where("id = ?", c.ID).
			UpdateColumns(map[string]interface{}{
				"total_visits":  gorm.Expr("total_visits + 1"),
				"last_visit_at": at,
				"updated_at":    at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &loyalty.NotFoundError{Entity: "customer", ID: c.ID}
		}
		if err := tx.Create(&models.LoyaltyVisit{
			ProgramID:  c.ProgramID,
			CustomerID: c.ID,
			Source:     source,
			CreatedAt:  at,
		}).Error; err != nil {
			return err
		}
		return tx.First(c, c.ID).Error
	})
}

func (r *CustomerRepository) ListByProgram(ctx context.Context, programID uint, limit, offset int) ([]models.LoyaltyCustomer, error) {
	var list []models.LoyaltyCustomer
	err := r.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("last_visit_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// GetCustomerHistory loads the customer, its q.VisitLimit newest visits and its events of
// q.EventType since q.Since, newest first.
func (r *CustomerRepository) GetCustomerHistory(ctx context.Context, q loyalty.HistoryQuery) (*loyalty.History, error) {
	db := r.db.WithContext(ctx)
	h := &loyalty.History{}
	if err := db.Where("program_id = ?", q.ProgramID).First(&h.Customer, q.CustomerID).Error; err != nil {
		return nil, notFound(err, "customer", q.CustomerID)
	}
	if err := db.Where("customer_id = ?", q.CustomerID).
		Order("created_at DESC").Order("id DESC").
		Limit(q.VisitLimit).
		Find(&h.RecentVisits).Error; err != nil {
		return nil, err
	}
	events := db.Where("customer_id = ? AND type = ?", q.CustomerID, q.EventType)
	if !q.Since.IsZero() {
		events = events.Where("created_at >= ?", q.Since)
	}
	if err := events.Order("created_at DESC").Order("id DESC").Find(&h.Events).Error; err != nil {
		return nil, err
	}
	return h, nil
}

// GetCustomerForUpdate must run inside a transaction for the row lock to hold.
func (r *CustomerRepository) GetCustomerForUpdate(ctx context.Context, programID, customerID uint) (*models.LoyaltyCustomer, error) {
	var c models.LoyaltyCustomer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("program_id = ?", programID).
		First(&c, customerID).Error
	if err != nil {
		return nil, notFound(err, "customer", customerID)
	}
	return &c, nil
}

func (r *CustomerRepository) UpdateCustomerTier(ctx context.Context, customerID uint, tierID *uint) error {
	return r.db.WithContext(ctx).Model(&models.LoyaltyCustomer{}).
		Where("id = ?", customerID).
		Update("tier_id", tierID).Error
}
