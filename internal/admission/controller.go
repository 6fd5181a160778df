package admission

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parkgate/internal/shared/utils/response"
	"parkgate/internal/users"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Scan handles POST /admissions/scan from gate terminals
func (c *Controller) Scan(ctx *gin.Context) {
	var req ScanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := c.service.Scan(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to process scan", nil, nil)
		return
	}

	if result.Admitted {
		response.RespondJSON(ctx, "success", http.StatusOK, "Admit", result, nil)
		return
	}

	if result.Reason.IsRetryable() {
		// Transient contention: instruct the gate to re-scan the same payload.
		response.RespondJSON(ctx, "error", http.StatusServiceUnavailable, "Ticket busy, re-scan", result, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Deny", result, nil)
}

// Override handles POST /admissions/:id/override (MANAGER and above)
func (c *Controller) Override(ctx *gin.Context) {
	ticketID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket ID", nil, nil)
		return
	}

	var req struct {
		GateID string `json:"gate_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	actor := actorFromContext(ctx)
	result, err := c.service.OverrideAdmit(ctx.Request.Context(), ticketID, req.GateID, actor)
	if err != nil {
		if errors.Is(err, users.ErrForbidden) {
			response.RespondJSON(ctx, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to process override", nil, nil)
		return
	}

	if result.Admitted {
		response.RespondJSON(ctx, "success", http.StatusOK, "Admit", result, nil)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Deny", result, nil)
}

// ListEvents handles GET /admissions (audit log, MANAGER and above)
func (c *Controller) ListEvents(ctx *gin.Context) {
	query := EventListQuery{
		GateID: ctx.Query("gate_id"),
	}
	query.Page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	query.Limit, _ = strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	if raw := ctx.Query("ticket_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket ID filter", nil, nil)
			return
		}
		query.TicketID = &id
	}

	events, total, err := c.service.ListEvents(ctx.Request.Context(), query)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list admission events", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Admission events retrieved successfully", gin.H{
		"events": events,
		"total":  total,
		"page":   query.Page,
		"limit":  query.Limit,
	}, nil)
}

// actorFromContext builds the acting staff identity from JWT middleware values
func actorFromContext(ctx *gin.Context) Actor {
	actor := Actor{}
	if id, exists := ctx.Get("user_id"); exists {
		actor.ID, _ = id.(string)
	}
	if role, exists := ctx.Get("user_role"); exists {
		if roleStr, ok := role.(string); ok {
			actor.Role = users.Role(roleStr)
		}
	}
	return actor
}
