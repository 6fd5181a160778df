package tickets

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parkgate/internal/shared/utils/response"
	"parkgate/internal/users"
	"parkgate/pkg/cache"
)

type Controller struct {
	service  Service
	cache    cache.Service
	cacheTTL time.Duration
}

func NewController(service Service, cacheService cache.Service, cacheTTL time.Duration) *Controller {
	return &Controller{
		service:  service,
		cache:    cacheService,
		cacheTTL: cacheTTL,
	}
}

// Issue handles POST /tickets from the purchase flow
func (c *Controller) Issue(ctx *gin.Context) {
	var req IssueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resp, err := c.service.Issue(ctx.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRequest):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket request", nil, err.Error())
		case errors.Is(err, ErrAlreadyExists):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Ticket already exists", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to issue ticket", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Ticket issued successfully", resp, nil)
}

// Get handles GET /tickets/:id (staff console lookup, cache-aside)
func (c *Controller) Get(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket ID", nil, nil)
		return
	}

	var ticketResp TicketResponse
	cacheKey := "parkgate:ticket:" + id.String()
	err = c.cache.GetOrSet(ctx.Request.Context(), cacheKey, c.cacheTTL, func() (interface{}, error) {
		ticket, err := c.service.Get(ctx.Request.Context(), id)
		if err != nil {
			return nil, err
		}
		return ticket.ToResponse(), nil
	}, &ticketResp)

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Ticket not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get ticket", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket retrieved successfully", ticketResp, nil)
}

// Payload handles GET /tickets/:id/payload (re-issue the QR payload)
func (c *Controller) Payload(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket ID", nil, nil)
		return
	}

	payload, err := c.service.Payload(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Ticket not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to encode payload", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payload encoded successfully", gin.H{"payload": payload}, nil)
}

// Void handles POST /tickets/:id/void (MANAGER and above)
func (c *Controller) Void(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket ID", nil, nil)
		return
	}

	roleValue, exists := ctx.Get("user_role")
	if !exists {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "user role not found in context", nil, nil)
		return
	}
	actorRole := users.Role(roleValue.(string))

	if err := c.service.Void(ctx.Request.Context(), id, actorRole); err != nil {
		switch {
		case errors.Is(err, users.ErrForbidden):
			response.RespondJSON(ctx, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		case errors.Is(err, ErrNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Ticket not found", nil, nil)
		case errors.Is(err, ErrContentionExhausted):
			response.RespondJSON(ctx, "error", http.StatusServiceUnavailable, "Ticket busy, retry the operation", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to void ticket", nil, nil)
		}
		return
	}

	// Voiding changes state; drop any cached view of the ticket.
	_ = c.cache.Delete(ctx.Request.Context(), "parkgate:ticket:"+id.String())

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket voided successfully", nil, nil)
}

// ListFlagged handles GET /tickets/flagged (refund-after-admission review queue)
func (c *Controller) ListFlagged(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	flagged, total, err := c.service.ListFlagged(ctx.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list flagged tickets", nil, nil)
		return
	}

	items := make([]TicketResponse, 0, len(flagged))
	for i := range flagged {
		items = append(items, flagged[i].ToResponse())
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Flagged tickets retrieved successfully", gin.H{
		"tickets": items,
		"total":   total,
		"page":    page,
		"limit":   limit,
	}, nil)
}
