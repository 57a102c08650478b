package handler

import (
	"errors"
	"log"
	"net/http"

	"happymeter/internal/middleware"
	"happymeter/internal/repository"
	"happymeter/internal/service"

	"github.com/gin-gonic/gin"
)

type RedemptionHandler struct {
	svc          *service.RedemptionService
	customerRepo *repository.CustomerRepository
}

func NewRedemptionHandler(svc *service.RedemptionService, customerRepo *repository.CustomerRepository) *RedemptionHandler {
	return &RedemptionHandler{svc: svc, customerRepo: customerRepo}
}

func (h *RedemptionHandler) Claim(c *gin.Context) {
	program := middleware.GetProgram(c)
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}
	red, err := h.svc.Claim(c.Request.Context(), program.ID, req.Code)
	switch {
	case errors.Is(err, service.ErrRedemptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyRedeemed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		log.Printf("[handler] claim redemption: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "claim failed"})
	default:
		c.JSON(http.StatusOK, red)
	}
}

func (h *RedemptionHandler) ListForCustomer(c *gin.Context) {
	program := middleware.GetProgram(c)
	customerID, ok := parseID(c, "customer_id")
	if !ok {
		return
	}
	cust, err := h.customerRepo.GetByID(c.Request.Context(), customerID)
	if err != nil || cust.ProgramID != program.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	list, err := h.svc.ListForCustomer(c.Request.Context(), customerID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": list})
}
