package ws

import (
	"happymeter/internal/loyalty"
	"happymeter/internal/models"
)

const MessageLoyaltyEvent = "loyalty_event"

// FeedMessage is what dashboards receive after an event is processed.
type FeedMessage struct {
	Type       string                     `json:"type"`
	CustomerID uint                       `json:"customer_id"`
	EventType  string                     `json:"event_type"`
	EventID    uint                       `json:"event_id"`
	Rewards    []models.LoyaltyRedemption `json:"rewards"`
	NewTierID  *uint                      `json:"new_tier_id"`
}

func NewFeedMessage(customerID uint, eventType string, res *loyalty.Result) FeedMessage {
	return FeedMessage{
		Type:       MessageLoyaltyEvent,
		CustomerID: customerID,
		EventType:  eventType,
		EventID:    res.EventID,
		Rewards:    res.TriggeredRewards,
		NewTierID:  res.NewTierID,
	}
}
