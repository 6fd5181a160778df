package payments

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parkgate/internal/shared/config"
	"parkgate/internal/shared/utils/response"
	"parkgate/internal/tickets"
)

// webhookSecretHeader carries the shared secret the payment processor is
// configured to send with every callback.
const webhookSecretHeader = "X-Webhook-Secret"

type Controller struct {
	service Service
	config  *config.Config
}

func NewController(service Service, cfg *config.Config) *Controller {
	return &Controller{
		service: service,
		config:  cfg,
	}
}

// Settlement handles POST /webhooks/payments/settlement
func (c *Controller) Settlement(ctx *gin.Context) {
	if !c.authorized(ctx) {
		return
	}

	var req SettlementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	ticketID, err := uuid.Parse(req.TicketID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket ID", nil, nil)
		return
	}

	if err := c.service.HandleSettlement(ctx.Request.Context(), ticketID, SettlementResult(req.Result)); err != nil {
		c.respondReconcileError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Settlement processed successfully", nil, nil)
}

// Refund handles POST /webhooks/payments/refund
func (c *Controller) Refund(ctx *gin.Context) {
	if !c.authorized(ctx) {
		return
	}

	var req RefundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	ticketID, err := uuid.Parse(req.TicketID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket ID", nil, nil)
		return
	}

	if err := c.service.HandleRefund(ctx.Request.Context(), ticketID); err != nil {
		c.respondReconcileError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Refund processed successfully", nil, nil)
}

func (c *Controller) respondReconcileError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, tickets.ErrNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Ticket not found", nil, nil)
	case errors.Is(err, tickets.ErrContentionExhausted):
		// Transient: the processor will re-deliver and the operation is idempotent.
		response.RespondJSON(ctx, "error", http.StatusServiceUnavailable, "Ticket busy, retry delivery", nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to reconcile payment", nil, nil)
	}
}

// authorized verifies the webhook shared secret with a constant-time compare
func (c *Controller) authorized(ctx *gin.Context) bool {
	provided := ctx.GetHeader(webhookSecretHeader)
	expected := c.config.Webhook.Secret
	if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid webhook secret", nil, nil)
		ctx.Abort()
		return false
	}
	return true
}
