package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/law-comments-api/internal/auth"
	"github.com/law-comments-api/internal/config"
	"github.com/law-comments-api/internal/metrics"
	"github.com/law-comments-api/internal/service"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Submitter addresses come from c.ClientIP(); only listed proxies may set forwarding headers
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Warn().Err(err).Msg("Invalid trusted proxies, forwarding headers ignored")
		router.SetTrustedProxies(nil)
	}

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	commentHandler := NewCommentHandler(services, log)
	adminHandler := NewAdminHandler(services, log)
	exportHandler := NewExportHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1
	v1 := router.Group("/v1")
	{
		// Public endpoints
		comments := v1.Group("/comments", timeoutMiddleware(cfg.Server.RequestTimeout))
		{
			comments.POST("", commentHandler.Submit)
			comments.GET("", commentHandler.ListApproved)
		}

		// Admin endpoints
		admin := v1.Group("/admin", bearerTokenMiddleware())
		{
			// Exports stream for as long as they need
			admin.GET("/comments/export", exportHandler.StreamExport)

			timed := admin.Group("", timeoutMiddleware(cfg.Server.RequestTimeout))
			timed.GET("/comments", adminHandler.ListComments)
			timed.GET("/comments/export/count", exportHandler.CountExport)
			timed.POST("/comments/:id/moderate", adminHandler.Moderate)
			timed.POST("/comments/bulk-moderate", adminHandler.BulkModerate)
			timed.GET("/stats", adminHandler.Stats)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "law-comments-api",
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":      "Internal server error",
					"error_code": "internal_error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Retry-After")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// bearerTokenMiddleware moves the bearer token into the request context.
// It never rejects; the moderation services refuse calls without a valid token.
func bearerTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := auth.BearerToken(c.GetHeader("Authorization")); ok {
			c.Request = c.Request.WithContext(auth.WithToken(c.Request.Context(), token))
		}
		c.Next()
	}
}

// timeoutMiddleware bounds the request context of a handler
func timeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
