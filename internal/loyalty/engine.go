package loyalty

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"happymeter/internal/domain"
	"happymeter/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventContext is one incoming customer interaction.
type EventContext struct {
	ProgramID  uint
	CustomerID uint
	Type       string
	Metadata   map[string]interface{}
}

// Evaluation is the outcome of matching an event against a program's rules.
type Evaluation struct {
	FiredRules []models.LoyaltyRule
	History    *History
}

// Result is returned to the caller of ProcessEvent.
type Result struct {
	Success          bool                       `json:"success"`
	EventID          uint                       `json:"event_id"`
	FiredRuleIDs     []uint                     `json:"fired_rule_ids"`
	TriggeredRewards []models.LoyaltyRedemption `json:"triggered_rewards"`
	NewTierID        *uint                      `json:"new_tier_id"`
}

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	Now                   func() time.Time
	Location              *time.Location
	VisitHistoryLimit     int
	RedemptionCodeRetries int
	NewCode               func() string
}

// Engine logs loyalty events, evaluates rules, grants rewards and promotes tiers.
// It holds no per-customer state and is safe for concurrent use.
type Engine struct {
	store       Store
	now         func() time.Time
	loc         *time.Location
	visitLimit  int
	codeRetries int
	newCode     func() string
}

func NewEngine(store Store, opts Options) *Engine {
	e := &Engine{
		store:       store,
		now:         opts.Now,
		loc:         opts.Location,
		visitLimit:  opts.VisitHistoryLimit,
		codeRetries: opts.RedemptionCodeRetries,
		newCode:     opts.NewCode,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.visitLimit <= 0 {
		e.visitLimit = 10
	}
	if e.codeRetries <= 0 {
		e.codeRetries = 5
	}
	if e.newCode == nil {
		e.newCode = NewRedemptionCode
	}
	return e
}

// NewRedemptionCode returns 8 uppercase alphanumeric characters taken from a random UUID.
func NewRedemptionCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// ProcessEvent runs the whole pipeline for one event: log it, evaluate rules, create a
// redemption per fired rule that carries a reward, then recompute the customer's tier.
// The event is logged before the customer is looked up, so an unknown customer still leaves
// the event behind and returns a NotFoundError.
func (e *Engine) ProcessEvent(ctx context.Context, ec EventContext) (*Result, error) {
	ev, err := e.LogEvent(ctx, ec.ProgramID, ec.CustomerID, ec.Type, ec.Metadata)
	if err != nil {
		return nil, err
	}
	eval, err := e.Evaluate(ctx, ec)
	if err != nil {
		return nil, err
	}
	rewards, err := e.grantRewards(ctx, ec, ev.ID, eval.FiredRules)
	if err != nil {
		return nil, err
	}
	newTier, err := e.ResolveTier(ctx, ec.ProgramID, ec.CustomerID)
	if err != nil {
		return nil, err
	}

	fired := make([]uint, len(eval.FiredRules))
	for i, r := range eval.FiredRules {
		fired[i] = r.ID
	}
	log.Printf("[loyalty] program=%d customer=%d type=%s event=%d fired=%d rewards=%d tier_up=%t",
		ec.ProgramID, ec.CustomerID, ec.Type, ev.ID, len(fired), len(rewards), newTier != nil)
	return &Result{
		Success:          true,
		EventID:          ev.ID,
		FiredRuleIDs:     fired,
		TriggeredRewards: rewards,
		NewTierID:        newTier,
	}, nil
}

// LogEvent appends one immutable event. Nil metadata is stored as an empty object.
func (e *Engine) LogEvent(ctx context.Context, programID, customerID uint, eventType string, metadata map[string]interface{}) (*models.LoyaltyEvent, error) {
	return logEvent(ctx, e.store.Repositories().Events, programID, customerID, eventType, metadata, e.now())
}

func logEvent(ctx context.Context, repo EventRepository, programID, customerID uint, eventType string, metadata map[string]interface{}, at time.Time) (*models.LoyaltyEvent, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	ev := &models.LoyaltyEvent{
		ProgramID:  programID,
		CustomerID: customerID,
		Type:       eventType,
		Metadata:   datatypes.JSONMap(metadata),
		CreatedAt:  at,
	}
	if err := repo.CreateEvent(ctx, ev); err != nil {
		return nil, storageErr("log event", err)
	}
	return ev, nil
}

// Evaluate returns the active rules whose trigger matches ec.Type and whose conditions hold.
func (e *Engine) Evaluate(ctx context.Context, ec EventContext) (*Evaluation, error) {
	repos := e.store.Repositories()
	rules, err := repos.Rules.ListActiveRules(ctx, ec.ProgramID)
	if err != nil {
		return nil, storageErr("list rules", err)
	}
	now := e.now()
	q := HistoryQuery{
		ProgramID:  ec.ProgramID,
		CustomerID: ec.CustomerID,
		EventType:  ec.Type,
		VisitLimit: e.visitLimit,
		Since:      now,
	}
	switch days := longestWindow(rules, ec.Type); {
	case days > maxWindowDays:
		q.Since = time.Time{}
	case days > 0:
		q.Since = now.Add(-time.Duration(days) * 24 * time.Hour)
	}
	hist, err := repos.Customers.GetCustomerHistory(ctx, q)
	if err != nil {
		return nil, storageErr("load customer", err)
	}

	in := ConditionInput{
		Now:       now.In(e.loc),
		EventType: ec.Type,
		Metadata:  ec.Metadata,
		History:   hist.Events,
	}
	var fired []models.LoyaltyRule
	for _, rule := range rules {
		if !rule.IsActive || rule.Trigger != ec.Type {
			continue
		}
		if DecodeConditions(rule.Conditions).Matches(in) {
			fired = append(fired, rule)
		}
	}
	return &Evaluation{FiredRules: fired, History: hist}, nil
}

// maxWindowDays bounds the history cut-off; wider windows load every event.
const maxWindowDays = 36500

// longestWindow returns the widest frequency window, in days, among the active rules on trigger.
// Without one no past events are needed.
func longestWindow(rules []models.LoyaltyRule, trigger string) int {
	days := 0
	for _, rule := range rules {
		if !rule.IsActive || rule.Trigger != trigger {
			continue
		}
		for _, c := range DecodeConditions(rule.Conditions) {
			if fw, ok := c.(FrequencyWindow); ok && fw.Days > days {
				days = fw.Days
			}
		}
	}
	return days
}

func (e *Engine) grantRewards(ctx context.Context, ec EventContext, eventID uint, fired []models.LoyaltyRule) ([]models.LoyaltyRedemption, error) {
	repo := e.store.Repositories().Redemptions
	out := make([]models.LoyaltyRedemption, 0, len(fired))
	for _, rule := range fired {
		if rule.RewardID == nil {
			continue
		}
		red := models.LoyaltyRedemption{
			ProgramID:  ec.ProgramID,
			CustomerID: ec.CustomerID,
			RewardID:   *rule.RewardID,
			RuleID:     rule.ID,
			EventID:    eventID,
			Status:     domain.RedemptionStatusPending,
		}
		if err := e.createRedemption(ctx, repo, &red); err != nil {
			return nil, err
		}
		out = append(out, red)
	}
	return out, nil
}

// createRedemption retries with a fresh code while the repository reports a collision.
func (e *Engine) createRedemption(ctx context.Context, repo RedemptionRepository, red *models.LoyaltyRedemption) error {
	var err error
	for i := 0; i < e.codeRetries; i++ {
		red.RedemptionCode = e.newCode()
		err = repo.CreateRedemption(ctx, red)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateCode) {
			return storageErr("create redemption", err)
		}
		log.Printf("[loyalty] redemption code collision for rule %d, retrying", red.RuleID)
	}
	return storageErr("create redemption", err)
}

// ResolveTier recomputes the customer's tier from total visits and promotes it when the
// qualifying tier ranks strictly higher than the current one. The read and the write share a
// transaction with the customer row locked, so concurrent events promote at most once.
// It returns the new tier id, or nil when nothing changed.
func (e *Engine) ResolveTier(ctx context.Context, programID, customerID uint) (*uint, error) {
	var promoted *uint
	err := e.store.Transaction(ctx, func(r Repositories) error {
		cust, err := r.Customers.GetCustomerForUpdate(ctx, programID, customerID)
		if err != nil {
			return storageErr("lock customer", err)
		}
		tiers, err := r.Tiers.ListTiersDesc(ctx, programID)
		if err != nil {
			return storageErr("list tiers", err)
		}
		next := QualifyingTier(tiers, cust.TotalVisits)
		if next == nil || !outranks(*next, cust.TierID, tiers) {
			return nil
		}

		meta := map[string]interface{}{
			domain.MetaOldTier: nil,
			domain.MetaNewTier: next.ID,
		}
		if cust.TierID != nil {
			meta[domain.MetaOldTier] = *cust.TierID
		}
		if _, err := logEvent(ctx, r.Events, programID, customerID, domain.EventTierUp, meta, e.now()); err != nil {
			return err
		}
		id := next.ID
		if err := r.Customers.UpdateCustomerTier(ctx, customerID, &id); err != nil {
			return storageErr("update tier", err)
		}
		promoted = &id
		return nil
	})
	if err != nil {
		return nil, err
	}
	if promoted != nil {
		log.Printf("[loyalty] customer %d promoted to tier %d", customerID, *promoted)
	}
	return promoted, nil
}

// QualifyingTier walks tiers best-first and returns the first one totalVisits reaches.
// tiers must be ordered by Order descending.
func QualifyingTier(tiers []models.LoyaltyTier, totalVisits int) *models.LoyaltyTier {
	for i := range tiers {
		if totalVisits >= tiers[i].RequiredVisits {
			return &tiers[i]
		}
	}
	return nil
}

// outranks reports whether next is better than the tier identified by current.
// A customer without a tier, or whose tier no longer exists, is outranked by any tier.
func outranks(next models.LoyaltyTier, current *uint, tiers []models.LoyaltyTier) bool {
	if current == nil {
		return true
	}
	if *current == next.ID {
		return false
	}
	for _, t := range tiers {
		if t.ID == *current {
			return next.Order > t.Order
		}
	}
	return true
}
