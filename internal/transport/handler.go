package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-mrz-scanner/internal/config"
	apperrors "go-mrz-scanner/internal/errors"
	"go-mrz-scanner/internal/logger"
	"go-mrz-scanner/internal/service"
	"go-mrz-scanner/pkg/models"
)

// SettingsRequest names a recognition settings document to load
type SettingsRequest struct {
	Location string `json:"location" binding:"required"`
}

// NewHandler wires the scan service into an HTTP handler
func NewHandler(svc service.ScanService, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck(svc))
	r.POST("/scan", scanImage(svc, cfg))
	r.POST("/scan/batch", scanBatch(svc, cfg))
	r.POST("/settings", loadSettings(svc, cfg))

	return r
}

func scanImage(svc service.ScanService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.ScanTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing MRZ scan request")

		var req models.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		response, err := svc.ScanURL(ctx, req.URL, req.ExpectedText)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"url": req.URL,
				"ip":  c.ClientIP(),
			}).Error("MRZ scan failed")
			respondError(c, determineStatusCode(err), "scan failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"url":                req.URL,
			"lines":              len(response.Lines),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("MRZ scan completed successfully")

		c.JSON(http.StatusOK, response)
	}
}

func scanBatch(svc service.ScanService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		var req models.BatchScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid batch request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		// Timeout scales with batch size.
		timeout := cfg.ScanTimeout * time.Duration(len(req.URLs))
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		response, err := svc.ScanBatch(ctx, req)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"urls": len(req.URLs),
				"ip":   c.ClientIP(),
			}).Error("Batch scan failed")
			respondError(c, determineStatusCode(err), "batch scan failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"urls":               len(req.URLs),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Batch scan completed")

		c.JSON(http.StatusOK, response)
	}
}

func loadSettings(svc service.ScanService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req SettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		if err := svc.LoadSettings(ctx, req.Location); err != nil {
			logger.WithError(err).WithField("location", req.Location).Error("Failed to load recognition settings")
			respondError(c, determineStatusCode(err), "failed to load settings", err)
			return
		}

		logger.WithField("location", req.Location).Info("Recognition settings loaded")
		c.JSON(http.StatusOK, gin.H{"status": "loaded", "location": req.Location})
	}
}

func healthCheck(svc service.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "available",
			"engine_version": svc.EngineVersion(),
			"time":           time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
