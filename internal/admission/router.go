package admission

import (
	"github.com/gin-gonic/gin"

	"parkgate/internal/shared/config"
	"parkgate/internal/shared/middleware"
)

// Router handles admission-related routes
type Router struct {
	controller *Controller
	config     *config.Config
}

// NewRouter creates a new admission router
func NewRouter(controller *Controller, cfg *config.Config) *Router {
	return &Router{
		controller: controller,
		config:     cfg,
	}
}

// SetupRoutes registers all admission routes
func (ar *Router) SetupRoutes(rg *gin.RouterGroup) {
	admissions := rg.Group("/admissions")
	admissions.Use(middleware.JWTAuthWithConfig(ar.config))
	{
		// Gate terminals run with staff credentials
		staff := admissions.Group("")
		staff.Use(middleware.RequireStaff())
		{
			staff.POST("/scan", ar.controller.Scan)
		}

		// Audit log and overrides are manager-only
		admin := admissions.Group("")
		admin.Use(middleware.RequireManager())
		{
			admin.GET("", ar.controller.ListEvents)
			admin.POST("/:id/override", ar.controller.Override)
		}
	}
}
