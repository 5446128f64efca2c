package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emogo/emogo/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
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

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)
	r.GET("/feed.xml", handler.GetFeed)

	api := r.Group("/api")
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
		slog.Info("API endpoints require authentication")
	} else {
		slog.Warn("API endpoints are open (API_ACCESS_KEY not set), listening on loopback only")
	}
	{
		api.POST("/surveys", handler.CreateSurvey)
		api.GET("/surveys", handler.ListSurveys)
		api.DELETE("/surveys/:id", handler.DeleteSurvey)

		api.POST("/vlogs", handler.CreateVlog)
		api.GET("/vlogs", handler.ListVlogs)
		api.GET("/vlogs/:id/video", handler.GetVlogVideo)
		api.DELETE("/vlogs/:id", handler.DeleteVlog)

		api.DELETE("/data", handler.ClearData)

		api.GET("/export/json", handler.ExportJSON)
		api.GET("/export/csv", handler.ExportCSV)
		api.POST("/export/bundle", handler.ExportBundle)
		api.POST("/export/jobs", handler.CreateExportJob)
		api.GET("/export/jobs/:id", handler.GetExportJob)

		api.GET("/notifications", handler.ListNotifications)
		api.POST("/notifications/schedule", handler.ScheduleNotifications)
		api.POST("/notifications/test", handler.SendTestNotification)
		api.POST("/notifications/tap", handler.HandleNotificationTap)
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"health":        "/health",
			"stats":         "/stats",
			"feed":          "/feed.xml",
			"surveys":       "/api/surveys",
			"vlogs":         "/api/vlogs",
			"export":        "/api/export/{json,csv,bundle,jobs}",
			"notifications": "/api/notifications",
		}

		c.JSON(http.StatusOK, gin.H{
			"service":     "EmoGo",
			"version":     cfg.GetVersion(),
			"description": "Mood journal with check-in surveys, video logs and exports",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
