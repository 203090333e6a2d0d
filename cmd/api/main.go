package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"go-mrz-scanner/internal/config"
	"go-mrz-scanner/internal/container"
	"go-mrz-scanner/internal/engine"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Activate the recognition engine before any session is created
	if cfg.LicenseKey != "" {
		if status, message := engine.InitLicense(cfg.LicenseKey); status != engine.StatusOK {
			log.Fatalf("Failed to initialize license: %s (%s)", engine.ErrorString(status), message)
		}
	}

	// Initialize dependency injection container
	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Close()

	// Apply recognition settings when a model location is configured
	if cfg.ModelLocation != "" {
		if cfg.StorageBackend == "azure" {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
			err = c.ScanService().LoadSettings(ctx, cfg.ModelLocation)
			cancel()
			if err != nil {
				log.Fatalf("Failed to load recognition settings: %v", err)
			}
		} else if status := c.Session().LoadModel(cfg.ModelLocation); status != engine.StatusOK {
			log.Fatalf("Failed to load recognition settings: %s", engine.ErrorString(status))
		}
	}

	// Setup structured logging
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Get HTTP handler from container (already configured with all dependencies)
	handler := c.Handler()

	// Create HTTP server with configurable timeouts
	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      handler,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithFields(logrus.Fields{
			"address": cfg.ServerAddress(),
			"timeout": cfg.RequestTimeout,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}
