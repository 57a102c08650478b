package loyalty_test

import (
	"testing"
	"time"

	"happymeter/internal/domain"
	"happymeter/internal/loyalty"
	"happymeter/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDecodeConditions(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want loyalty.ConditionSet
	}{
		{"empty object", `{}`, loyalty.ConditionSet{loyalty.Unconditional{}}},
		{"null", `null`, loyalty.ConditionSet{loyalty.Unconditional{}}},
		{"missing", ``, loyalty.ConditionSet{loyalty.Unconditional{}}},
		{"frequency", `{"frequency": 3, "days": 30}`, loyalty.ConditionSet{loyalty.FrequencyWindow{Frequency: 3, Days: 30}}},
		{"frequency without days", `{"frequency": 3}`, nil},
		{"min spend", `{"minSpend": 250.5}`, loyalty.ConditionSet{loyalty.MinSpend{Amount: 250.5}}},
		{"min spend as string", `{"minSpend": "100"}`, loyalty.ConditionSet{loyalty.MinSpend{Amount: 100}}},
		{"sunday", `{"specificDay": 0}`, loyalty.ConditionSet{loyalty.SpecificWeekday{Day: time.Sunday}}},
		{"day out of range", `{"specificDay": 9}`, nil},
		{"wrong types", `{"frequency": "often", "days": true, "minSpend": [1]}`, nil},
		{"unknown keys only", `{"colour": "blue"}`, nil},
		{"not an object", `[1, 2]`, loyalty.ConditionSet{}},
		{"broken json", `{"frequency":`, loyalty.ConditionSet{}},
		{
			"several kinds",
			`{"frequency": 2, "days": 7, "minSpend": 500, "specificDay": 5}`,
			loyalty.ConditionSet{
				loyalty.FrequencyWindow{Frequency: 2, Days: 7},
				loyalty.MinSpend{Amount: 500},
				loyalty.SpecificWeekday{Day: time.Friday},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, loyalty.DecodeConditions([]byte(tc.raw)))
		})
	}
}

func TestConditionSetIsAnOr(t *testing.T) {
	wednesday := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	set := loyalty.DecodeConditions([]byte(`{"minSpend": 1000, "specificDay": 3}`))

	in := loyalty.ConditionInput{
		Now:       wednesday,
		EventType: domain.EventSpend,
		Metadata:  map[string]interface{}{domain.MetaAmount: 10.0},
	}
	assert.True(t, set.Matches(in), "weekday alone is enough")

	in.Now = wednesday.Add(24 * time.Hour)
	assert.False(t, set.Matches(in))

	in.Metadata[domain.MetaAmount] = 1000.0
	assert.True(t, set.Matches(in), "spend alone is enough")
}

func TestEmptyConditionSetNeverMatches(t *testing.T) {
	assert.False(t, loyalty.ConditionSet{}.Matches(loyalty.ConditionInput{Now: time.Now()}))
}

func TestFrequencyWindowCounts(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	history := []models.LoyaltyEvent{
		{Type: domain.EventVisit, CreatedAt: now.Add(-time.Hour)},
		{Type: domain.EventVisit, CreatedAt: now.Add(-48 * time.Hour)},
		{Type: domain.EventVisit, CreatedAt: now.Add(-40 * 24 * time.Hour)},
	}
	set := loyalty.ConditionSet{loyalty.FrequencyWindow{Frequency: 2, Days: 3}}
	assert.True(t, set.Matches(loyalty.ConditionInput{Now: now, EventType: domain.EventVisit, History: history}))

	set = loyalty.ConditionSet{loyalty.FrequencyWindow{Frequency: 3, Days: 3}}
	assert.False(t, set.Matches(loyalty.ConditionInput{Now: now, EventType: domain.EventVisit, History: history}))
}
