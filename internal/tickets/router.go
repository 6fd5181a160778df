package tickets

import (
	"github.com/gin-gonic/gin"

	"parkgate/internal/shared/config"
	"parkgate/internal/shared/middleware"
)

// Router handles ticket-related routes
type Router struct {
	controller *Controller
	config     *config.Config
}

// NewRouter creates a new ticket router
func NewRouter(controller *Controller, cfg *config.Config) *Router {
	return &Router{
		controller: controller,
		config:     cfg,
	}
}

// SetupRoutes registers all ticket routes
func (tr *Router) SetupRoutes(rg *gin.RouterGroup) {
	tickets := rg.Group("/tickets")
	tickets.Use(middleware.JWTAuthWithConfig(tr.config))
	{
		// Staff and above may issue and look up tickets
		staff := tickets.Group("")
		staff.Use(middleware.RequireStaff())
		{
			staff.POST("", tr.controller.Issue)
			staff.GET("/:id", tr.controller.Get)
			staff.GET("/:id/payload", tr.controller.Payload)
		}

		// Managers and above may void and review
		admin := tickets.Group("")
		admin.Use(middleware.RequireManager())
		{
			admin.POST("/:id/void", tr.controller.Void)
			admin.GET("/flagged", tr.controller.ListFlagged)
		}
	}
}
