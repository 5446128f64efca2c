package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emogo/emogo/app/export"
	"github.com/emogo/emogo/app/tasks"
)

func (h *Handler) ExportJSON(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exporter.JSON(c.Request.Context(), &buf); err != nil {
		respondError(c, "export_json", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.JSONFileName))
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

func (h *Handler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exporter.CSV(c.Request.Context(), &buf); err != nil {
		respondError(c, "export_csv", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportBundle builds the bundle synchronously and hands it to the sharer.
func (h *Handler) ExportBundle(c *gin.Context) {
	ctx := c.Request.Context()

	archive, err := queryBool(c, "zip")
	if err != nil {
		respondError(c, "export_bundle", err)
		return
	}

	bundle, err := h.exporter.Bundle(ctx)
	if err != nil {
		respondError(c, "export_bundle", err)
		return
	}

	target, mimeType := bundle.Dir, "inode/directory"
	if archive {
		path, err := h.exporter.Archive(ctx, bundle)
		if err != nil {
			respondError(c, "export_bundle", err)
			return
		}
		target, mimeType = path, "application/zip"
	}

	share, err := h.exporter.Share(ctx, target, mimeType)
	if err != nil {
		// the bundle exists on disk even when sharing fails
		slog.Error("Failed to share export", "path", target, "error", err)
		c.JSON(http.StatusOK, gin.H{
			"bundle":      bundle,
			"share":       share,
			"share_error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bundle": bundle,
		"share":  share,
	})
}

func (h *Handler) CreateExportJob(c *gin.Context) {
	archive, err := queryBool(c, "zip")
	if err != nil {
		respondError(c, "create_export_job", err)
		return
	}

	task := tasks.NewExportBundleTask(h.exporter, h.exportJobs, archive)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		h.exportJobs.Fail(task.GetID(), err)
		slog.Error("Failed to enqueue ExportBundleTask", "id", task.GetID(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": fmt.Sprintf("export could not be queued: %v", err)})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":         task.GetID(),
		"status":     tasks.JobPending,
		"status_url": "/api/export/jobs/" + task.GetID(),
	})
}

func (h *Handler) GetExportJob(c *gin.Context) {
	job, ok := h.exportJobs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "export job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

func queryBool(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("invalid %s value %q", key, raw)
	}
	return v, nil
}
