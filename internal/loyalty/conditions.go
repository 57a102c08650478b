package loyalty

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"happymeter/internal/domain"
	"happymeter/internal/models"
)

// Condition is one predicate kind a rule can carry. The set of kinds is closed:
// FrequencyWindow, MinSpend, SpecificWeekday and Unconditional.
type Condition interface {
	isCondition()
}

// FrequencyWindow holds when at least Frequency same-type events happened in the last Days days.
type FrequencyWindow struct {
	Frequency int
	Days      int
}

// MinSpend holds when the event's metadata amount is at least Amount.
type MinSpend struct {
	Amount float64
}

// SpecificWeekday holds on the given day of the week.
type SpecificWeekday struct {
	Day time.Weekday
}

// Unconditional always holds. It is what an empty conditions object decodes to.
type Unconditional struct{}

func (FrequencyWindow) isCondition() {}
func (MinSpend) isCondition()        {}
func (SpecificWeekday) isCondition() {}
func (Unconditional) isCondition()   {}

// ConditionSet fires when any of its conditions holds. An empty set never fires.
type ConditionSet []Condition

// ConditionInput is the evaluation context for a rule.
type ConditionInput struct {
	Now       time.Time // already in the program's time zone
	EventType string
	Metadata  map[string]interface{}
	History   []models.LoyaltyEvent
}

// DecodeConditions turns a stored conditions blob into a ConditionSet.
// It never fails: fields with the wrong type or range are skipped, and a blob that is not a
// JSON object yields an empty set. Null or missing conditions count as an empty object.
func DecodeConditions(raw []byte) ConditionSet {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ConditionSet{Unconditional{}}
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return ConditionSet{}
	}
	if len(fields) == 0 {
		return ConditionSet{Unconditional{}}
	}

	var set ConditionSet
	freq, okFreq := toNumber(fields["frequency"])
	days, okDays := toNumber(fields["days"])
	if okFreq && okDays && freq > 0 && days > 0 {
		set = append(set, FrequencyWindow{Frequency: int(freq), Days: int(days)})
	}
	if amount, ok := toNumber(fields["minSpend"]); ok && amount > 0 {
		set = append(set, MinSpend{Amount: amount})
	}
	if day, ok := toNumber(fields["specificDay"]); ok && day >= 0 && day <= 6 && day == float64(int(day)) {
		set = append(set, SpecificWeekday{Day: time.Weekday(int(day))})
	}
	return set
}

// Matches reports whether any condition holds for in.
func (s ConditionSet) Matches(in ConditionInput) bool {
	for _, c := range s {
		if holds(c, in) {
			return true
		}
	}
	return false
}

func holds(c Condition, in ConditionInput) bool {
	switch c := c.(type) {
	case Unconditional:
		return true
	case FrequencyWindow:
		since := in.Now.Add(-time.Duration(c.Days) * 24 * time.Hour)
		count := 0
		for _, ev := range in.History {
			if ev.Type == in.EventType && !ev.CreatedAt.Before(since) {
				count++
			}
		}
		return count >= c.Frequency
	case MinSpend:
		amount, ok := toNumber(in.Metadata[domain.MetaAmount])
		return ok && amount >= c.Amount
	case SpecificWeekday:
		return in.Now.Weekday() == c.Day
	}
	return false
}

// toNumber accepts the shapes a loosely typed JSON field shows up in.
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
