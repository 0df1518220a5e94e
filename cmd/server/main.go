package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/andreajoa/linktree/backend/internal/analytics"
	"github.com/andreajoa/linktree/backend/internal/auth"
	"github.com/andreajoa/linktree/backend/internal/cache"
	"github.com/andreajoa/linktree/backend/internal/config"
	"github.com/andreajoa/linktree/backend/internal/database"
	"github.com/andreajoa/linktree/backend/internal/handlers"
	"github.com/andreajoa/linktree/backend/internal/logger"
	"github.com/andreajoa/linktree/backend/internal/metrics"
	"github.com/andreajoa/linktree/backend/internal/middleware"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Linktree backend starting ===")

	metrics.Initialize()

	// Initialize database and run migrations
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.FatalWithFields("Failed to connect to database", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Redis is optional: without it the API serves every request from the
	// database and ingestion rate limiting is off.
	cacheClient := cache.Disabled()
	if cfg.RedisConfigured() {
		cacheClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			cacheClient = cache.Disabled()
		}
	} else {
		logger.Log.Info("Redis not configured, caching and rate limiting disabled")
	}
	defer cacheClient.Close()

	authService := auth.NewService(cfg.JWTSecret)
	analyticsService := analytics.NewService(db)

	// Periodic drift repair for the denormalized click/view counters.
	reconciler := analytics.NewReconciler(db)
	if err := reconciler.Start(cfg.ReconcileSpec); err != nil {
		logger.FatalWithFields("Failed to start counter reconciler", err)
	}
	defer reconciler.Stop()

	h := handlers.NewHandlers(db, cacheClient, analyticsService)
	h.SetClickRateLimit(cfg.ClickRateLimit, cfg.ClickRateWindow)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if err := database.Health(db); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "down"
		}
		cacheStatus := "ok"
		if err := cacheClient.Ping(c.Request.Context()); err != nil {
			cacheStatus = "down"
		}
		c.JSON(status, gin.H{
			"status":    dbStatus,
			"cache":     cacheStatus,
			"timestamp": time.Now().UTC(),
			"service":   "linktree-backend",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		// Ingestion routes (public). A coarse per-IP limit guards the
		// group; the handlers apply the finer per-visitor-per-resource
		// limit once the target is known.
		track := api.Group("/track")
		{
			track.Use(middleware.RateLimitMiddleware(cacheClient, middleware.RateLimitConfig{
				Limit:  cfg.ClickRateLimit * 20,
				Window: cfg.ClickRateWindow,
			}))
			track.POST("/click", h.TrackClick)
			track.POST("/view", h.TrackView)
			track.POST("/block", h.TrackBlockClick)
		}

		// Public profile route
		api.GET("/profile/:username", h.GetPublicProfile)

		// Reporting routes (owner only)
		analyticsGroup := api.Group("/analytics")
		{
			analyticsGroup.Use(authService.Middleware())
			analyticsGroup.GET("/:userId", h.GetAnalytics)
			analyticsGroup.GET("/:userId/advanced", h.GetAdvancedAnalytics)
			analyticsGroup.GET("/:userId/links/:linkId", h.GetLinkStats)
		}

		// Link management routes
		links := api.Group("/links")
		{
			links.Use(authService.Middleware())
			links.GET("", h.GetLinks)
			links.POST("", h.CreateLink)
			links.PUT("/:id", h.UpdateLink)
			links.DELETE("/:id", h.DeleteLink)
		}

		// Profile management route
		api.PUT("/profile", authService.Middleware(), h.UpdateProfile)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Linktree backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}
