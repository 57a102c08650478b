package loyalty

import (
	"context"
	"time"

	"happymeter/internal/models"
)

// History is what the evaluator needs to know about a customer.
type History struct {
	Customer     models.LoyaltyCustomer
	RecentVisits []models.LoyaltyVisit // newest first
	Events       []models.LoyaltyEvent // same type as the incoming event, newest first
}

// HistoryQuery selects the history of one customer of one program. Events older than Since are
// skipped; a zero Since loads them all.
type HistoryQuery struct {
	ProgramID  uint
	CustomerID uint
	EventType  string
	VisitLimit int
	Since      time.Time
}

type EventRepository interface {
	CreateEvent(ctx context.Context, ev *models.LoyaltyEvent) error
}

type RuleRepository interface {
	// ListActiveRules returns is_active rules of a program in id order.
	ListActiveRules(ctx context.Context, programID uint) ([]models.LoyaltyRule, error)
}

type TierRepository interface {
	// ListTiersDesc returns a program's tiers, best (highest order) first.
	ListTiersDesc(ctx context.Context, programID uint) ([]models.LoyaltyTier, error)
}

type CustomerRepository interface {
	// GetCustomerHistory returns a NotFoundError when the customer does not exist in q.ProgramID.
	GetCustomerHistory(ctx context.Context, q HistoryQuery) (*History, error)
	// GetCustomerForUpdate reads the program's customer row and locks it for the rest of the
	// transaction.
	GetCustomerForUpdate(ctx context.Context, programID, customerID uint) (*models.LoyaltyCustomer, error)
	UpdateCustomerTier(ctx context.Context, customerID uint, tierID *uint) error
}

type RedemptionRepository interface {
	// CreateRedemption returns ErrDuplicateCode when RedemptionCode collides.
	CreateRedemption(ctx context.Context, r *models.LoyaltyRedemption) error
}

// Repositories bundles the storage ports the engine reads and writes.
type Repositories struct {
	Events      EventRepository
	Rules       RuleRepository
	Tiers       TierRepository
	Customers   CustomerRepository
	Redemptions RedemptionRepository
}

// Store is a persistence backend. Transaction runs fn against repositories bound to one
// transaction; returning an error rolls it back.
type Store interface {
	Repositories() Repositories
	Transaction(ctx context.Context, fn func(Repositories) error) error
}
