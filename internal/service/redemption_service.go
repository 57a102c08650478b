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
	ErrRedemptionNotFound = errors.New("redemption not found")
	ErrAlreadyRedeemed    = errors.New("redemption already claimed")
)

// RedemptionService lets staff claim the codes the engine hands out.
type RedemptionService struct {
	redemptionRepo *repository.RedemptionRepository
	now            func() time.Time
}

func NewRedemptionService(redemptionRepo *repository.RedemptionRepository) *RedemptionService {
	return &RedemptionService{redemptionRepo: redemptionRepo, now: time.Now}
}

// Claim moves a PENDING redemption to REDEEMED. Codes are matched case-insensitively.
func (s *RedemptionService) Claim(ctx context.Context, programID uint, code string) (*models.LoyaltyRedemption, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrRedemptionNotFound
	}
	red, err := s.redemptionRepo.GetByCode(ctx, programID, code)
	if err != nil {
		var nf *loyalty.NotFoundError
		if errors.As(err, &nf) {
			return nil, ErrRedemptionNotFound
		}
		return nil, err
	}
	if red.Status != domain.RedemptionStatusPending {
		return nil, ErrAlreadyRedeemed
	}

	at := s.now()
	ok, err := s.redemptionRepo.MarkRedeemed(ctx, red.ID, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyRedeemed
	}
	red.Status = domain.RedemptionStatusRedeemed
	red.RedeemedAt = &at
	log.Printf("[redemption] program=%d code=%s claimed", programID, code)
	return red, nil
}

// ListForCustomer returns the customer's redemptions newest first, optionally filtered by status.
func (s *RedemptionService) ListForCustomer(ctx context.Context, customerID uint, status string) ([]models.LoyaltyRedemption, error) {
	return s.redemptionRepo.ListByCustomer(ctx, customerID, strings.ToUpper(status))
}
