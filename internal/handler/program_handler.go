package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"happymeter/internal/domain"
	"happymeter/internal/middleware"
	"happymeter/internal/models"
	"happymeter/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// ProgramHandler serves owner administration of programs, rules, tiers, rewards and customers.
type ProgramHandler struct {
	programRepo  *repository.ProgramRepository
	ruleRepo     *repository.RuleRepository
	tierRepo     *repository.TierRepository
	rewardRepo   *repository.RewardRepository
	customerRepo *repository.CustomerRepository
	eventRepo    *repository.EventRepository
}

func NewProgramHandler(
	programRepo *repository.ProgramRepository,
	ruleRepo *repository.RuleRepository,
	tierRepo *repository.TierRepository,
	rewardRepo *repository.RewardRepository,
	customerRepo *repository.CustomerRepository,
	eventRepo *repository.EventRepository,
) *ProgramHandler {
	return &ProgramHandler{
		programRepo:  programRepo,
		ruleRepo:     ruleRepo,
		tierRepo:     tierRepo,
		rewardRepo:   rewardRepo,
		customerRepo: customerRepo,
		eventRepo:    eventRepo,
	}
}

func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	p := &models.LoyaltyProgram{OwnerID: middleware.GetOwnerID(c), Name: strings.TrimSpace(req.Name), IsActive: true}
	if err := h.programRepo.Create(c.Request.Context(), p); err != nil {
		log.Printf("[handler] create program: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create program"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	list, err := h.programRepo.ListByOwner(c.Request.Context(), middleware.GetOwnerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"programs": list})
}

type ruleRequest struct {
	Name       string          `json:"name"`
	Trigger    string          `json:"trigger"`
	Conditions json.RawMessage `json:"conditions"`
	RewardID   *uint           `json:"reward_id"`
	IsActive   *bool           `json:"is_active"`
}

// validReward reports whether rewardID is nil or names a reward of the program.
func (h *ProgramHandler) validReward(c *gin.Context, programID uint, rewardID *uint) bool {
	if rewardID == nil {
		return true
	}
	if _, err := h.rewardRepo.GetByID(c.Request.Context(), programID, *rewardID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown reward"})
		return false
	}
	return true
}

func (h *ProgramHandler) CreateRule(c *gin.Context) {
	program := middleware.GetProgram(c)
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !domain.IsTriggerEventType(req.Trigger) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown trigger"})
		return
	}
	if !h.validReward(c, program.ID, req.RewardID) {
		return
	}
	rule := &models.LoyaltyRule{
		ProgramID:  program.ID,
		Name:       req.Name,
		Trigger:    req.Trigger,
		Conditions: conditionsJSON(req.Conditions),
		RewardID:   req.RewardID,
		IsActive:   true,
	}
	ctx := c.Request.Context()
	if err := h.ruleRepo.Create(ctx, rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create rule"})
		return
	}
	// is_active has a column default, so false only sticks through an update
	if req.IsActive != nil && !*req.IsActive {
		rule.IsActive = false
		if err := h.ruleRepo.Update(ctx, rule); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create rule"})
			return
		}
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *ProgramHandler) UpdateRule(c *gin.Context) {
	program := middleware.GetProgram(c)
	ruleID, ok := parseID(c, "rule_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rule, err := h.ruleRepo.GetByID(ctx, program.ID, ruleID)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rule"})
		return
	}
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Trigger != "" {
		if !domain.IsTriggerEventType(req.Trigger) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown trigger"})
			return
		}
		rule.Trigger = req.Trigger
	}
	if req.Name != "" {
		rule.Name = req.Name
	}
	if req.Conditions != nil {
		rule.Conditions = conditionsJSON(req.Conditions)
	}
	if req.RewardID != nil {
		if !h.validReward(c, program.ID, req.RewardID) {
			return
		}
		rule.RewardID = req.RewardID
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := h.ruleRepo.Update(ctx, rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update rule"})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *ProgramHandler) ListRules(c *gin.Context) {
	list, err := h.ruleRepo.ListByProgram(c.Request.Context(), middleware.GetProgram(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": list})
}

// conditionsJSON stores the blob as sent. The engine tolerates anything, so no validation here.
func conditionsJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

func (h *ProgramHandler) CreateTier(c *gin.Context) {
	program := middleware.GetProgram(c)
	var req struct {
		Name           string `json:"name" binding:"required"`
		RequiredVisits int    `json:"required_visits"`
		Order          int    `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	if req.RequiredVisits < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "required_visits must be >= 0"})
		return
	}
	tier := &models.LoyaltyTier{ProgramID: program.ID, Name: req.Name, RequiredVisits: req.RequiredVisits, Order: req.Order}
	if err := h.tierRepo.Create(c.Request.Context(), tier); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create tier"})
		return
	}
	c.JSON(http.StatusCreated, tier)
}

func (h *ProgramHandler) ListTiers(c *gin.Context) {
	list, err := h.tierRepo.ListTiersDesc(c.Request.Context(), middleware.GetProgram(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tiers": list})
}

func (h *ProgramHandler) CreateReward(c *gin.Context) {
	program := middleware.GetProgram(c)
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	reward := &models.LoyaltyReward{ProgramID: program.ID, Name: req.Name, Description: req.Description, IsActive: true}
	if err := h.rewardRepo.Create(c.Request.Context(), reward); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reward"})
		return
	}
	c.JSON(http.StatusCreated, reward)
}

func (h *ProgramHandler) ListRewards(c *gin.Context) {
	list, err := h.rewardRepo.ListByProgram(c.Request.Context(), middleware.GetProgram(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": list})
}

func (h *ProgramHandler) ListCustomers(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.customerRepo.ListByProgram(c.Request.Context(), middleware.GetProgram(c).ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": list})
}

// ListCustomerEvents returns the customer's event log newest first, optionally filtered by ?type=.
func (h *ProgramHandler) ListCustomerEvents(c *gin.Context) {
	program := middleware.GetProgram(c)
	customerID, ok := parseID(c, "customer_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cust, err := h.customerRepo.GetByID(ctx, customerID)
	if err != nil || cust.ProgramID != program.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	limit, offset := pagination(c)
	list, err := h.eventRepo.ListByCustomer(ctx, customerID, strings.ToUpper(c.Query("type")), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": cust, "events": list})
}
