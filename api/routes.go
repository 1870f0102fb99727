package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdftool/pdf"
)

// Config holds what the handlers need to run operations
type Config struct {
	MaxFileSize int64
	TempDir     string
	Rasterizer  pdf.Rasterizer
	Log         logrus.FieldLogger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(config *Config) *gin.Engine {
	if config.Log == nil {
		config.Log = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(config.Log))
	SetupRoutes(r, config)
	return r
}

func SetupRoutes(r *gin.Engine, config *Config) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "pdftool",
		})
	})

	apiGroup := r.Group("/api/pdf")
	{
		apiGroup.POST("/:operation", func(c *gin.Context) { HandleOperation(c, config) })
	}
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Info("Request handled")
	}
}
