package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "chatsaid-backend/cmd/api"
	socialRepo "chatsaid-backend/internal/social/repository"
	"chatsaid-backend/pkg/config"
	"chatsaid-backend/pkg/database"
	"chatsaid-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Auto-migrate database schemas
	if err := socialRepo.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	handler := api.NewHandler(db, cfg, log)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		errCh <- handler.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
		return
	case sig := <-quit:
		log.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := handler.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
