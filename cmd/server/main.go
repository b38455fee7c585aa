package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/idhub/backend/internal/config"
	"github.com/idhub/backend/internal/db"
	"github.com/idhub/backend/internal/logger"
	"github.com/idhub/backend/internal/middleware"
	"github.com/idhub/backend/internal/queue"
	"github.com/idhub/backend/internal/routes"
	"github.com/idhub/backend/internal/storage"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize logger first
	logger.Initialize(cfg.LogLevel, cfg.LogFile)

	// Connect to database
	database, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{
			"error":  err.Error(),
			"driver": cfg.Database.Driver,
		})
	}
	if err := db.AutoMigrate(database); err != nil {
		logger.Fatal("Failed to migrate database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	publisher, err := queue.New(startupCtx, cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to queue", map[string]interface{}{
			"error":   err.Error(),
			"backend": cfg.Queue.Backend,
		})
	}
	defer publisher.Close()

	files, err := storage.New(startupCtx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize file storage", map[string]interface{}{
			"error":    err.Error(),
			"provider": cfg.Storage.Provider,
		})
	}

	// Seed database with initial data if in development
	if cfg.IsDevelopment() {
		seedDatabase(startupCtx, database, cfg.SeedFile)
	}

	// Set Gin mode
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router without default middleware
	r := gin.New()

	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(middleware.RequestID())
	r.Use(middleware.CustomLoggerMiddleware())
	r.Use(middleware.Metrics())
	r.Use(gin.Recovery())

	// Setup routes
	routes.SetupRoutes(r, database, publisher, files, cfg.CORSOrigin)

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting Industrial Data Hub backend server", map[string]interface{}{
		"addr":     cfg.Addr(),
		"gin_mode": gin.Mode(),
		"queue":    cfg.Queue.Backend,
		"storage":  cfg.Storage.Provider,
	})

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	logger.Info("Shutting down server gracefully...", nil)

	// Create a context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		logger.Info("Server exited gracefully", nil)
	}
}

func seedDatabase(ctx context.Context, database *gorm.DB, path string) {
	logger.Info("Seeding database with initial data...", map[string]interface{}{
		"file": path,
	})

	seed, err := db.LoadSeedFile(path)
	if err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	created, err := db.SeedDataSources(ctx, database, seed)
	if err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	logger.Info("Database seeding completed", map[string]interface{}{
		"created": created,
	})
}
