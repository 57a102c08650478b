package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"happymeter/internal/domain"
	"happymeter/internal/loyalty"
	"happymeter/internal/models"
	"happymeter/internal/repository"
)

var (
	ErrPhoneRequired    = errors.New("phone is required")
	ErrInvalidSource    = errors.New("invalid visit source")
	ErrInvalidEventType = errors.New("invalid event type")
)

// CheckInRequest describes one visit. EventType defaults to VISIT.
type CheckInRequest struct {
	ProgramID uint
	Phone     string
	Name      string
	Source    string
	EventType string
	Metadata  map[string]interface{}
}

type CheckInResult struct {
	Customer *models.LoyaltyCustomer `json:"customer"`
	*loyalty.Result
}

// CheckInService records a visit and then hands the resulting event to the engine.
type CheckInService struct {
	customerRepo *repository.CustomerRepository
	engine       *loyalty.Engine
	now          func() time.Time
}

func NewCheckInService(customerRepo *repository.CustomerRepository, engine *loyalty.Engine) *CheckInService {
	return &CheckInService{customerRepo: customerRepo, engine: engine, now: time.Now}
}

func (s *CheckInService) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	source := strings.ToUpper(req.Source)
	switch source {
	case "":
		source = domain.VisitSourceManual
	case domain.VisitSourceQR, domain.VisitSourceSurvey, domain.VisitSourceManual:
	default:
		return nil, ErrInvalidSource
	}
	eventType := req.EventType
	if eventType == "" {
		eventType = domain.EventVisit
	}
	if !domain.IsTriggerEventType(eventType) {
		return nil, ErrInvalidEventType
	}

	cust, err := s.customerRepo.FindOrCreate(ctx, req.ProgramID, phone, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.RecordVisit(ctx, cust, source, s.now()); err != nil {
		log.Printf("[checkin] record visit for customer %d: %v", cust.ID, err)
		return nil, err
	}

	res, err := s.engine.ProcessEvent(ctx, loyalty.EventContext{
		ProgramID:  req.ProgramID,
		CustomerID: cust.ID,
		Type:       eventType,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return nil, err
	}
	if res.NewTierID != nil {
		cust.TierID = res.NewTierID
	}
	return &CheckInResult{Customer: cust, Result: res}, nil
}
