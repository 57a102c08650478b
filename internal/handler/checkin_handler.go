package handler

import (
	"errors"
	"net/http"

	"happymeter/internal/domain"
	"happymeter/internal/middleware"
	"happymeter/internal/service"
	"happymeter/internal/ws"

	"github.com/gin-gonic/gin"
)

type CheckInHandler struct {
	svc *service.CheckInService
	hub *ws.Hub
}

func NewCheckInHandler(svc *service.CheckInService, hub *ws.Hub) *CheckInHandler {
	return &CheckInHandler{svc: svc, hub: hub}
}

type checkInRequest struct {
	Phone     string                 `json:"phone" binding:"required"`
	Name      string                 `json:"name"`
	Source    string                 `json:"source"`
	EventType string                 `json:"event_type"`
	Metadata  map[string]interface{} `json:"metadata"`
}

func (h *CheckInHandler) CheckIn(c *gin.Context) {
	program := middleware.GetProgram(c)
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "phone required"})
		return
	}
	res, err := h.svc.CheckIn(c.Request.Context(), service.CheckInRequest{
		ProgramID: program.ID,
		Phone:     req.Phone,
		Name:      req.Name,
		Source:    req.Source,
		EventType: req.EventType,
		Metadata:  req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhoneRequired),
			errors.Is(err, service.ErrInvalidSource),
			errors.Is(err, service.ErrInvalidEventType):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		default:
			engineError(c, err)
		}
		return
	}
	if h.hub != nil {
		eventType := req.EventType
		if eventType == "" {
			eventType = domain.EventVisit
		}
		h.hub.BroadcastToProgram(program.ID, ws.NewFeedMessage(res.Customer.ID, eventType, res.Result))
	}
	c.JSON(http.StatusOK, res)
}
