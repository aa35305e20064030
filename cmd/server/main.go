package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stwalsh4118/floodfas/internal/appraisal"
	"github.com/stwalsh4118/floodfas/internal/config"
	"github.com/stwalsh4118/floodfas/internal/curves"
	"github.com/stwalsh4118/floodfas/internal/database"
	"github.com/stwalsh4118/floodfas/internal/handlers"
	"github.com/stwalsh4118/floodfas/internal/logger"
	"github.com/stwalsh4118/floodfas/internal/middleware"
	"github.com/stwalsh4118/floodfas/internal/models"
	"github.com/stwalsh4118/floodfas/internal/observability"
	"github.com/stwalsh4118/floodfas/internal/repository"
	"github.com/stwalsh4118/floodfas/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log, err := logger.New(cfg.Server.Env).WithLevel(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logger: %v\n", err)
		os.Exit(1)
	}
	log.Info("Starting floodfas API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"workers":     cfg.Engine.Workers,
	})

	// Snapshot storage is optional
	ctx := context.Background()
	var (
		db      *database.Database
		pinger  handlers.Pinger
		storage repository.AppraisalRepository
	)
	if cfg.Database.Enabled {
		db, err = database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", err, map[string]interface{}{
				"host": cfg.Database.Host,
				"port": cfg.Database.Port,
				"name": cfg.Database.Name,
			})
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare snapshot schema", err, nil)
		}

		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
		pinger = db
		storage = repository.NewAppraisalRepository(db)
	} else {
		log.Warn("Snapshot storage disabled; save and load endpoints will return 503", nil)
	}

	// Reference curves are embedded in the binary
	store, err := curves.Load()
	if err != nil {
		log.Fatal("Failed to load reference curves", err, nil)
	}

	metrics := observability.NewMetrics()
	engine := appraisal.NewEngine(store, log, cfg.Engine.Workers)
	appraisalService := services.NewAppraisalService(engine, storage, metrics, log)

	defaults := models.DefaultFloodEventConfig()
	defaults.SchemeLifetime = cfg.Engine.DefaultSchemeLifetime
	defaults.SOP = cfg.Engine.DefaultSOP
	appraisalHandler := handlers.NewAppraisalHandler(appraisalService, defaults)

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> Metrics -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Metrics(metrics))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(pinger, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		appraisals := v1.Group("/appraisals")
		{
			appraisals.POST("/detailed/compute", appraisalHandler.Compute)
			appraisals.POST("", appraisalHandler.Save)
			appraisals.GET("", appraisalHandler.List)
			appraisals.GET("/:id", appraisalHandler.Get)
			appraisals.DELETE("/:id", appraisalHandler.Delete)
			appraisals.GET("/:id/summary.csv", appraisalHandler.SummaryCSV)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
