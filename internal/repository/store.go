package repository

import (
	"context"
	"errors"

	"happymeter/internal/loyalty"

	"gorm.io/gorm"
)

// LoyaltyStore adapts the gorm repositories to the engine's storage ports.
type LoyaltyStore struct {
	db *gorm.DB
}

func NewLoyaltyStore(db *gorm.DB) *LoyaltyStore {
	return &LoyaltyStore{db: db}
}

func (s *LoyaltyStore) Repositories() loyalty.Repositories {
	return repositoriesFor(s.db)
}

// Transaction runs fn with every repository bound to one database transaction.
func (s *LoyaltyStore) Transaction(ctx context.Context, fn func(loyalty.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repositoriesFor(tx))
	})
}

func repositoriesFor(db *gorm.DB) loyalty.Repositories {
	return loyalty.Repositories{
		Events:      NewEventRepository(db),
		Rules:       NewRuleRepository(db),
		Tiers:       NewTierRepository(db),
		Customers:   NewCustomerRepository(db),
		Redemptions: NewRedemptionRepository(db),
	}
}

// notFound maps gorm.ErrRecordNotFound to a loyalty.NotFoundError and passes anything else through.
func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &loyalty.NotFoundError{Entity: entity, ID: id}
	}
	return err
}
