// Package api wires the HTTP routes of the admin backend.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prehisle/ydms-sub001/internal/config"
	"github.com/prehisle/ydms-sub001/internal/handlers"
	"github.com/prehisle/ydms-sub001/internal/logger"
	"github.com/prehisle/ydms-sub001/internal/metrics"
)

const corsMaxAgeHours = 12

// NewRouter builds the gin engine with all batch orchestration routes.
func NewRouter(
	batchHandler *handlers.BatchHandler,
	m *metrics.Metrics,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"X-CSRF-Token", "Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	// Middleware
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// API v1
	v1 := router.Group("/api/v1")

	// Batch submission, scoped by tree node
	nodes := v1.Group("/nodes/:id")
	nodes.POST("/workflow-batches/preview", batchHandler.PreviewWorkflow)
	nodes.POST("/workflow-batches", batchHandler.ExecuteWorkflow)
	nodes.POST("/sync-batches/preview", batchHandler.PreviewSync)
	nodes.POST("/sync-batches", batchHandler.ExecuteSync)

	// Batch status and history
	batches := v1.Group("/batches")
	batches.GET("", batchHandler.ListBatches)
	batches.GET("/:id", batchHandler.GetBatch)
	batches.POST("/:id/cancel", batchHandler.CancelBatch)
	batches.GET("/:id/export", batchHandler.ExportBatch)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", statusCode),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", duration),
		)
	}
}
