package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/niaga-platform/service-pos-analytics/internal/analytics"
	"github.com/niaga-platform/service-pos-analytics/internal/clients"
	"github.com/niaga-platform/service-pos-analytics/internal/config"
	"github.com/niaga-platform/service-pos-analytics/internal/domain/upstream"
	"github.com/niaga-platform/service-pos-analytics/internal/events"
	"github.com/niaga-platform/service-pos-analytics/internal/handlers"
	"github.com/niaga-platform/service-pos-analytics/internal/logger"
	"github.com/niaga-platform/service-pos-analytics/internal/middleware"
	"github.com/niaga-platform/service-pos-analytics/internal/models"
	"github.com/niaga-platform/service-pos-analytics/internal/repository"
	"github.com/niaga-platform/service-pos-analytics/internal/routes"
	"github.com/niaga-platform/service-pos-analytics/internal/services"
)

func main() {
	// Load .env file in development
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zlog, err := logger.NewLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	loc, err := cfg.Analytics.Location()
	if err != nil {
		zlog.Fatal("Invalid analytics timezone", zap.Error(err))
	}

	// Connect to database when orders live in SQL
	var db *gorm.DB
	if cfg.Source.Kind == config.SourceSQL {
		db, err = repository.Connect(cfg.Database, cfg.App.Env, zlog)
		if err != nil {
			zlog.Fatal("Failed to connect to database", zap.Error(err))
		}
		sqlDB, _ := db.DB()
		defer sqlDB.Close()

		if cfg.Database.AutoMigrate {
			if err := repository.NewOrderRepository(db).AutoMigrate(); err != nil {
				zlog.Fatal("Failed to migrate orders table", zap.Error(err))
			}
		}
	}

	// Connect to Redis (optional)
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = repository.ConnectRedis(context.Background(), cfg.Redis)
		if err != nil {
			zlog.Warn("Redis unavailable, analytics cache and rate limiting disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zlog.Info("Connected to Redis")
		}
	}

	// Order source
	source, err := services.NewOrderSource(&services.OrderSourceConfig{
		Kind: cfg.Source.Kind,
		DB:   db,
		Supabase: clients.SupabaseClientConfig{
			URL:   cfg.Supabase.URL,
			Key:   cfg.Supabase.Key,
			Table: cfg.Supabase.Table,
		},
		Notion: clients.NotionClientConfig{
			BaseURL:    cfg.Notion.BaseURL,
			Token:      cfg.Notion.Token,
			DatabaseID: cfg.Notion.DatabaseID,
		},
	}, upstream.NewRateLimiter(upstream.DefaultRateLimitConfig()), zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize order source", zap.Error(err))
	}

	// Connect to NATS (optional - only if configured)
	var natsConn *nats.Conn
	var eventPublisher *events.Publisher
	if cfg.NATS.URL != "" {
		natsConn, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			zlog.Warn("Failed to connect to NATS, order events disabled", zap.Error(err))
		} else {
			defer natsConn.Close()
			zlog.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
			eventPublisher = events.NewPublisher(natsConn, zlog)
		}
	}

	statuses := make([]models.OrderStatus, 0, len(cfg.Analytics.Statuses()))
	for _, s := range cfg.Analytics.Statuses() {
		statuses = append(statuses, models.OrderStatus(s))
	}

	snapshot := services.NewSnapshotService(
		source,
		services.NewAnalyticsCacheService(redisClient, cfg.Analytics.CacheTTL, zlog),
		eventPublisher,
		services.SnapshotConfig{
			Options: &analytics.Options{
				CutoffHour:       analytics.CutoffAt(cfg.Analytics.CutoffHour),
				IncludedStatuses: statuses,
				Clock:            analytics.SystemClock,
				Location:         loc,
				Locale:           cfg.Analytics.Locale,
				CLVMonths:        cfg.Analytics.CLVMonths,
			},
			RetryPolicy:     upstream.DefaultRetryPolicy(),
			RefreshInterval: cfg.Analytics.RefreshInterval,
		},
		zlog,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go snapshot.Run(ctx)

	// Start NATS subscriber if connected
	if natsConn != nil {
		subscriber := events.NewSubscriber(natsConn, snapshot, zlog)
		if err := subscriber.Start(); err != nil {
			zlog.Warn("Failed to start event subscriber", zap.Error(err))
		} else {
			defer subscriber.Stop()
		}
	}

	// Set Gin mode
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(zlog))
	router.Use(middleware.LoggerMiddleware(zlog))
	router.Use(middleware.CORSWithOrigins(cfg.Security.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())

	routes.SetupRoutes(router, &routes.RouteConfig{
		ServiceName:      cfg.App.Name,
		AnalyticsHandler: handlers.NewAnalyticsHandler(snapshot, zlog),
		WebhookHandler:   handlers.NewWebhookHandler(snapshot, cfg.Security.WebhookSecret, zlog),
		Snapshot:         snapshot,
		RateLimit:        middleware.RateLimiter(redisClient, cfg.Security.RateLimit, time.Minute, zlog),
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		zlog.Info("POS analytics service starting",
			zap.String("port", cfg.App.Port),
			zap.String("source", source.Name()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}
