package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avdmnk/daypost/app/cfg"
)

// NewServer creates the HTTP status server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)
	r.GET("/posts", handler.GetPosts)

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "daypost",
			"version":     cfg.GetVersion(),
			"description": "Posts one digest unit per scheduled run",
			"endpoints": map[string]string{
				"health": "/health",
				"stats":  "/stats",
				"posts":  "/posts?limit=<n>",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
