// Package loyaltytest provides an in-memory loyalty.Store for tests.
package loyaltytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"happymeter/internal/loyalty"
	"happymeter/internal/models"
)

// Store keeps every table in memory. Transaction serializes its callbacks but does not roll
// back writes made before a failure.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	customers   map[uint]*models.LoyaltyCustomer
	visits      []models.LoyaltyVisit
	events      []models.LoyaltyEvent
	rules       []models.LoyaltyRule
	tiers       []models.LoyaltyTier
	redemptions []models.LoyaltyRedemption
	nextID      uint

	// LastHistory is the most recent query passed to GetCustomerHistory.
	LastHistory loyalty.HistoryQuery

	// Fail maps an operation name (e.g. "CreateRedemption") to the error it should return.
	Fail map[string]error
}

func New() *Store {
	return &Store{
		customers: make(map[uint]*models.LoyaltyCustomer),
		Fail:      make(map[string]error),
	}
}

func (s *Store) Repositories() loyalty.Repositories {
	return loyalty.Repositories{
		Events:      s,
		Rules:       s,
		Tiers:       s,
		Customers:   s,
		Redemptions: s,
	}
}

func (s *Store) Transaction(ctx context.Context, fn func(loyalty.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s.Repositories())
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) failure(op string) error {
	return s.Fail[op]
}

// Seeding helpers.

func (s *Store) AddCustomer(c models.LoyaltyCustomer) models.LoyaltyCustomer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.customers[c.ID] = &c
	return c
}

func (s *Store) AddRule(r models.LoyaltyRule) models.LoyaltyRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	s.rules = append(s.rules, r)
	return r
}

func (s *Store) AddTier(t models.LoyaltyTier) models.LoyaltyTier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.id()
	}
	s.tiers = append(s.tiers, t)
	return t
}

// AddEvent stores a pre-existing event as if it had been logged earlier.
func (s *Store) AddEvent(ev models.LoyaltyEvent) models.LoyaltyEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = s.id()
	s.events = append(s.events, ev)
	return ev
}

func (s *Store) AddVisit(v models.LoyaltyVisit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.id()
	s.visits = append(s.visits, v)
}

// SetTotalVisits plays the role of the external visit recorder.
func (s *Store) SetTotalVisits(customerID uint, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.customers[customerID]; ok {
		c.TotalVisits = n
	}
}

// Inspection helpers.

func (s *Store) Customer(id uint) (models.LoyaltyCustomer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return models.LoyaltyCustomer{}, false
	}
	return *c, true
}

func (s *Store) Events() []models.LoyaltyEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LoyaltyEvent(nil), s.events...)
}

func (s *Store) EventsOfType(t string) []models.LoyaltyEvent {
	var out []models.LoyaltyEvent
	for _, ev := range s.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (s *Store) Redemptions() []models.LoyaltyRedemption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LoyaltyRedemption(nil), s.redemptions...)
}

// loyalty.EventRepository

func (s *Store) CreateEvent(_ context.Context, ev *models.LoyaltyEvent) error {
	if err := s.failure("CreateEvent"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = s.id()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	s.events = append(s.events, *ev)
	return nil
}

// loyalty.RuleRepository

func (s *Store) ListActiveRules(_ context.Context, programID uint) ([]models.LoyaltyRule, error) {
	if err := s.failure("ListActiveRules"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LoyaltyRule
	for _, r := range s.rules {
		if r.ProgramID == programID && r.IsActive {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// loyalty.TierRepository

func (s *Store) ListTiersDesc(_ context.Context, programID uint) ([]models.LoyaltyTier, error) {
	if err := s.failure("ListTiersDesc"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LoyaltyTier
	for _, t := range s.tiers {
		if t.ProgramID == programID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order > out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// loyalty.CustomerRepository

func (s *Store) GetCustomerHistory(_ context.Context, q loyalty.HistoryQuery) (*loyalty.History, error) {
	if err := s.failure("GetCustomerHistory"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastHistory = q
	customerID, eventType, visitLimit := q.CustomerID, q.EventType, q.VisitLimit
	c, ok := s.customers[customerID]
	if !ok || c.ProgramID != q.ProgramID {
		return nil, &loyalty.NotFoundError{Entity: "customer", ID: customerID}
	}
	h := &loyalty.History{Customer: *c}
	for _, v := range s.visits {
		if v.CustomerID == customerID {
			h.RecentVisits = append(h.RecentVisits, v)
		}
	}
	sort.SliceStable(h.RecentVisits, func(i, j int) bool {
		return h.RecentVisits[i].CreatedAt.After(h.RecentVisits[j].CreatedAt)
	})
	if visitLimit > 0 && len(h.RecentVisits) > visitLimit {
		h.RecentVisits = h.RecentVisits[:visitLimit]
	}
	for _, ev := range s.events {
		if ev.CustomerID == customerID && ev.Type == eventType && !ev.CreatedAt.Before(q.Since) {
			h.Events = append(h.Events, ev)
		}
	}
	sort.SliceStable(h.Events, func(i, j int) bool {
		return h.Events[i].CreatedAt.After(h.Events[j].CreatedAt)
	})
	return h, nil
}

func (s *Store) GetCustomerForUpdate(_ context.Context, programID, customerID uint) (*models.LoyaltyCustomer, error) {
	if err := s.failure("GetCustomerForUpdate"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok || c.ProgramID != programID {
		return nil, &loyalty.NotFoundError{Entity: "customer", ID: customerID}
	}
	cp := *c
	return &cp, nil
}

func (s *Store) UpdateCustomerTier(_ context.Context, customerID uint, tierID *uint) error {
	if err := s.failure("UpdateCustomerTier"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return &loyalty.NotFoundError{Entity: "customer", ID: customerID}
	}
	c.TierID = tierID
	return nil
}

// loyalty.RedemptionRepository

func (s *Store) CreateRedemption(_ context.Context, r *models.LoyaltyRedemption) error {
	if err := s.failure("CreateRedemption"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.redemptions {
		if existing.RedemptionCode == r.RedemptionCode {
			return loyalty.ErrDuplicateCode
		}
	}
	r.ID = s.id()
	r.CreatedAt = time.Now()
	s.redemptions = append(s.redemptions, *r)
	return nil
}
