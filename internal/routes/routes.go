package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/niaga-platform/service-pos-analytics/internal/handlers"
)

// SnapshotStatus reports whether analytics can be served yet
type SnapshotStatus interface {
	Ready() bool
}

// RouteConfig holds configuration for routes
type RouteConfig struct {
	ServiceName      string
	AnalyticsHandler *handlers.AnalyticsHandler
	WebhookHandler   *handlers.WebhookHandler
	Snapshot         SnapshotStatus
	// RateLimit guards the analytics group when set
	RateLimit gin.HandlerFunc
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *RouteConfig) {
	router.GET("/health", healthHandler(cfg))

	// API v1 routes
	v1 := router.Group("/api/v1")

	// Webhook routes (signature checked by the handler)
	if cfg.WebhookHandler != nil {
		v1.POST("/webhooks/orders", cfg.WebhookHandler.HandleOrderWebhook)
	}

	analytics := v1.Group("/analytics")
	if cfg.RateLimit != nil {
		analytics.Use(cfg.RateLimit)
	}
	{
		analytics.GET("/stats", cfg.AnalyticsHandler.GetStats)
		analytics.GET("/trends", cfg.AnalyticsHandler.GetTrends)
		analytics.GET("/products", cfg.AnalyticsHandler.GetProducts)
		analytics.GET("/seating", cfg.AnalyticsHandler.GetSeating)
		analytics.GET("/customers", cfg.AnalyticsHandler.GetCustomers)
		analytics.GET("/time", cfg.AnalyticsHandler.GetTime)
		analytics.GET("/snapshot", cfg.AnalyticsHandler.GetSnapshot)
		analytics.POST("/refresh", cfg.AnalyticsHandler.Refresh)
	}
}

// healthHandler reports liveness and whether the first snapshot has loaded.
// The service stays healthy while the snapshot loads.
func healthHandler(cfg *RouteConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ready := cfg.Snapshot != nil && cfg.Snapshot.Ready()
		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"service":        cfg.ServiceName,
			"snapshot_ready": ready,
			"time":           time.Now().UTC(),
		})
	}
}
