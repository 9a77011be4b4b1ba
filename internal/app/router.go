package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"haulmatch/internal/auth"
	"haulmatch/internal/handler"
	"haulmatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler  *handler.AuthHandler
	TripHandler  *handler.TripHandler
	TokenManager *auth.TokenManager
	RedisClient  *redis.Client
	NewRelicApp  *newrelic.Application
	CORSOrigin   string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware(deps.CORSOrigin))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	requireAuth := middleware.RequireAuth(deps.TokenManager)
	optionalAuth := middleware.OptionalAuth(deps.TokenManager)

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Account routes.
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/signup", deps.AuthHandler.SignUp)
		authRoutes.POST("/login", deps.AuthHandler.Login)
	}
	router.GET("/me", requireAuth, deps.AuthHandler.Me)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		trips := v1.Group("/trips")
		{
			trips.GET("", deps.TripHandler.ListOpen)
			trips.POST("", requireAuth, deps.TripHandler.Create)
			trips.GET("/mine", requireAuth, deps.TripHandler.ListMine)
			trips.GET("/:id", optionalAuth, deps.TripHandler.GetDetail)
			trips.POST("/:id/claim", requireAuth, deps.TripHandler.Claim)
			trips.POST("/:id/unclaim", requireAuth, deps.TripHandler.Unclaim)
			trips.POST("/:id/complete", requireAuth, deps.TripHandler.Complete)
			trips.POST("/:id/cancel", requireAuth, deps.TripHandler.Cancel)
		}
	}

	return router
}
