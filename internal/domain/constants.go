package domain

// Loyalty event types. TIER_UP is written by the engine only.
const (
	EventCheckIn  = "CHECK_IN"
	EventSpend    = "SPEND"
	EventVisit    = "VISIT"
	EventReferral = "REFERRAL"
	EventFeedback = "FEEDBACK"
	EventCustom   = "CUSTOM"
	EventTierUp   = "TIER_UP"
)

// TriggerEventTypes are the event types a rule may listen for.
var TriggerEventTypes = []string{EventCheckIn, EventSpend, EventVisit, EventReferral, EventFeedback, EventCustom}

// IsTriggerEventType reports whether t can be submitted by callers and used as a rule trigger.
func IsTriggerEventType(t string) bool {
	for _, v := range TriggerEventTypes {
		if v == t {
			return true
		}
	}
	return false
}

const (
	RedemptionStatusPending  = "PENDING"
	RedemptionStatusRedeemed = "REDEEMED"
	RedemptionStatusExpired  = "EXPIRED"
)

// Where a visit was recorded from.
const (
	VisitSourceQR     = "QR"
	VisitSourceSurvey = "SURVEY"
	VisitSourceManual = "MANUAL"
)

const (
	RoleOwner = "OWNER"
	RoleStaff = "STAFF"
)

// Metadata keys the engine reads or writes.
const (
	MetaAmount  = "amount"
	MetaOldTier = "oldTier"
	MetaNewTier = "newTier"
)
