package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emogo/emogo/app/tasks"
)

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		surveys:    deps.Surveys,
		vlogs:      deps.Vlogs,
		maintainer: deps.Maintainer,
		recorder:   deps.Recorder,
		exporter:   deps.Exporter,
		generator:  deps.Generator,
		stats:      deps.Stats,
		statsCache: deps.StatsCache,
		scheduler:  deps.Scheduler,
		exportJobs: deps.ExportJobs,
		reminders:  deps.Reminders,
		inbox:      deps.Inbox,
		router:     deps.Router,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	ctx := c.Request.Context()
	surveys, err := h.surveys.CountSurveys(ctx)
	if err != nil {
		slog.Error("Health check failed", "error", err)
		health["status"] = "degraded"
		health["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	health["surveys"] = surveys

	if vlogs, err := h.vlogs.CountVlogs(ctx); err == nil {
		health["vlogs"] = vlogs
	}

	c.JSON(http.StatusOK, health)
}

// GetStats serves the cached home snapshot. A failed latest refresh keeps
// the previous snapshot and marks it stale.
func (h *Handler) GetStats(c *gin.Context) {
	stats, ready, err := h.statsCache.Get()
	if !ready {
		stats, err = h.stats.Compute(c.Request.Context())
		h.statsCache.Set(stats, err)
		if err != nil {
			respondError(c, "compute_stats", err)
			return
		}
	}

	response := gin.H{
		"stats": stats,
		"stale": err != nil,
	}
	if err != nil {
		response["error"] = err.Error()
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetFeed(c *gin.Context) {
	ctx := c.Request.Context()

	surveys, err := h.surveys.GetAllSurveys(ctx)
	if err != nil {
		respondError(c, "get_surveys", err)
		return
	}

	vlogs, err := h.vlogs.GetAllVlogs(ctx)
	if err != nil {
		respondError(c, "get_vlogs", err)
		return
	}

	rss, err := h.generator.Run(surveys, vlogs)
	if err != nil {
		respondError(c, "generate_feed", err)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(surveys)+len(vlogs)))

	c.String(http.StatusOK, rss)
}

// refreshStats asks the worker pool for a new snapshot after a write.
func (h *Handler) refreshStats() {
	if h.scheduler == nil {
		return
	}
	if err := h.scheduler.EnqueueTask(tasks.NewRefreshStatsTask(h.stats, h.statsCache)); err != nil {
		slog.Warn("Failed to enqueue RefreshStatsTask", "error", err)
	}
}
