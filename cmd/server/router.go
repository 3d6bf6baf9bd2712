package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func setupRouter(svc *Service, staticRoot string) *gin.Engine {
	router := gin.New()
	router.Use(
		requestLogger(svc.log),
		gin.Recovery(),
		limitBodySize(svc.cfg.MaxUploadBytes),
		cors.New(cors.Config{
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{"Content-Disposition"},
			MaxAge:        12 * time.Hour,
		}),
	)

	h := &handlers{svc: svc}

	index := filepath.Join(staticRoot, "index.html")
	if staticRoot != "" && fileExists(index) {
		router.StaticFile("/", index)
		router.Static("/assets", filepath.Join(staticRoot, "assets"))
		router.NoRoute(func(c *gin.Context) {
			if c.Request.Method == http.MethodGet && strings.Contains(c.GetHeader("Accept"), "text/html") {
				c.File(index)
				return
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		})
	} else {
		router.GET("/", h.home)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", readyz(svc.store))
	router.GET("/health", h.health)

	router.POST("/train", h.train)
	router.POST("/predict", h.predict)
	router.POST("/predict-batch", h.predictBatch)
	router.POST("/convert-pdf", h.convertPDF)
	router.GET("/model-info", h.modelInfo)
	router.GET("/sample-data", h.sampleData)
	router.POST("/export-report", h.exportReport)
	router.GET("/predictions", h.listRuns)
	router.GET("/predictions/:id", h.getRun)

	return router
}

func readyz(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"db":     "ok",
		})
	}
}

func requestLogger(lg *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).Round(time.Microsecond),
		}
		switch {
		case status >= 500:
			lg.Error("request", fields...)
		case status >= 400:
			lg.Warn("request", fields...)
		default:
			lg.Info("request", fields...)
		}
	}
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
