package payments

import (
	"github.com/gin-gonic/gin"
)

// Router handles payment webhook routes
type Router struct {
	controller *Controller
}

// NewRouter creates a new payments router
func NewRouter(controller *Controller) *Router {
	return &Router{controller: controller}
}

// SetupRoutes registers the payment processor callbacks. These are not JWT
// protected; the processor authenticates with the shared webhook secret.
func (pr *Router) SetupRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks/payments")
	{
		webhooks.POST("/settlement", pr.controller.Settlement)
		webhooks.POST("/refund", pr.controller.Refund)
	}
}
