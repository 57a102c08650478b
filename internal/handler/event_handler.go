package handler

import (
	"net/http"

	"happymeter/internal/domain"
	"happymeter/internal/loyalty"
	"happymeter/internal/middleware"
	"happymeter/internal/repository"
	"happymeter/internal/ws"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	engine       *loyalty.Engine
	customerRepo *repository.CustomerRepository
	hub          *ws.Hub
}

func NewEventHandler(engine *loyalty.Engine, customerRepo *repository.CustomerRepository, hub *ws.Hub) *EventHandler {
	return &EventHandler{engine: engine, customerRepo: customerRepo, hub: hub}
}

type processEventRequest struct {
	CustomerID uint                   `json:"customer_id" binding:"required"`
	Type       string                 `json:"type" binding:"required"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// Process runs one event through the engine and pushes the outcome to the live feed.
func (h *EventHandler) Process(c *gin.Context) {
	program := middleware.GetProgram(c)
	var req processEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "customer_id and type required"})
		return
	}
	if !domain.IsTriggerEventType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown event type"})
		return
	}
	// a customer of another program is reported like a missing one
	if cust, err := h.customerRepo.GetByID(c.Request.Context(), req.CustomerID); err == nil && cust.ProgramID != program.ID {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Customer not found"})
		return
	}

	res, err := h.engine.ProcessEvent(c.Request.Context(), loyalty.EventContext{
		ProgramID:  program.ID,
		CustomerID: req.CustomerID,
		Type:       req.Type,
		Metadata:   req.Metadata,
	})
	if err != nil {
		engineError(c, err)
		return
	}
	if h.hub != nil {
		h.hub.BroadcastToProgram(program.ID, ws.NewFeedMessage(req.CustomerID, req.Type, res))
	}
	c.JSON(http.StatusOK, res)
}
