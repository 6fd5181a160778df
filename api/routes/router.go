// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"parkgate/internal/admission"
	"parkgate/internal/auth"
	"parkgate/internal/payments"
	"parkgate/internal/shared/clock"
	"parkgate/internal/shared/config"
	"parkgate/internal/shared/database"
	"parkgate/internal/tickets"
	"parkgate/pkg/cache"
	"parkgate/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher admission.Publisher
	log       *logger.Logger
}

// NewRouter creates a new router instance. publisher may be nil when the
// audit stream is disabled.
func NewRouter(cfg *config.Config, db *database.DB, publisher admission.Publisher, log *logger.Logger) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
		log:       log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// Shared domain plumbing
	codec := tickets.NewCodec([]byte(r.config.Ticket.SigningSecret))
	clk := clock.NewSystem()
	retry := tickets.RetryPolicy{
		MaxAttempts: r.config.Ticket.CASMaxAttempts,
		Backoff:     r.config.Ticket.CASBackoff,
	}
	ledger := tickets.NewRepository(r.db.GetPostgreSQL())
	cacheService := cache.NewService(r.db.GetRedis(), r.log)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)
		r.setupTicketRoutes(api, ledger, codec, clk, retry, cacheService)
		r.setupAdmissionRoutes(api, ledger, codec, clk, retry)
		r.setupPaymentRoutes(api, ledger, retry)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "parkgate",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "parkgate",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController, r.config)

	authRouter.SetupRoutes(rg)
}

// setupTicketRoutes configures ticket issuance and lookup routes
func (r *Router) setupTicketRoutes(rg *gin.RouterGroup, ledger tickets.Ledger, codec *tickets.Codec, clk clock.Clock, retry tickets.RetryPolicy, cacheService cache.Service) {
	ticketService := tickets.NewService(ledger, codec, clk, retry)
	ticketController := tickets.NewController(ticketService, cacheService, r.config.Redis.TicketCacheTTL)
	ticketRouter := tickets.NewRouter(ticketController, r.config)

	ticketRouter.SetupRoutes(rg)
}

// setupAdmissionRoutes configures gate scan and audit log routes
func (r *Router) setupAdmissionRoutes(rg *gin.RouterGroup, ledger tickets.Ledger, codec *tickets.Codec, clk clock.Clock, retry tickets.RetryPolicy) {
	arbiter := admission.NewArbiter(ledger, clk, retry)
	eventRepo := admission.NewEventRepository(r.db.GetPostgreSQL())
	admissionService := admission.NewService(codec, arbiter, eventRepo, r.publisher, clk, r.log)
	admissionController := admission.NewController(admissionService)
	admissionRouter := admission.NewRouter(admissionController, r.config)

	admissionRouter.SetupRoutes(rg)
}

// setupPaymentRoutes configures payment processor webhook routes
func (r *Router) setupPaymentRoutes(rg *gin.RouterGroup, ledger tickets.Ledger, retry tickets.RetryPolicy) {
	paymentService := payments.NewService(ledger, retry, r.log)
	paymentController := payments.NewController(paymentService, r.config)
	paymentRouter := payments.NewRouter(paymentController)

	paymentRouter.SetupRoutes(rg)
}
